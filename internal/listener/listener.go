package listener

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

var rl *readline.Instance
var mu sync.Mutex

func Init() error {
	var err error
	rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "",
		EOFPrompt:       "",
	})
	return err
}

func Close() {
	if rl != nil {
		_ = rl.Close()
	}
}

func GetInput() string {
	line, err := rl.Readline()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// AsyncPrintln prints above the current prompt without breaking input.
func AsyncPrintln(s string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}
