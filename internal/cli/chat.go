package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"evalpilot/internal/copilot"
	"evalpilot/internal/display"
	"evalpilot/internal/listener"
	"evalpilot/internal/thought"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the copilot from the terminal",
	Long:  `Runs the copilot in-process with a readline prompt, printing thoughts live as the request is worked on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := listener.Init(); err != nil {
			return fmt.Errorf("failed to init terminal input: %w", err)
		}
		defer listener.Close()

		orch := copilot.NewOrchestrator(registry, copilot.Options{
			MaxIterations:    cfg.Copilot.MaxIterations,
			QualityThreshold: cfg.Copilot.QualityThreshold,
		})

		listener.AsyncPrintln("Hello! Ask me about your evaluation data. (type 'exit' or press Ctrl+C to quit)")

		for {
			inputText := listener.GetInput()
			if strings.TrimSpace(strings.ToLower(inputText)) == "exit" {
				fmt.Println("Goodbye!")
				return nil
			}
			if strings.TrimSpace(inputText) == "" {
				continue
			}

			sessionID := uuid.New().String()[:8]
			st := copilot.NewState(sessionID, inputText, nil, nil)
			stream := thought.NewStream()
			sub := stream.Subscribe()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for t := range sub {
					listener.AsyncPrintln(display.FormatThought(t))
				}
			}()

			result := orch.Run(context.Background(), st, stream)
			stream.Close()
			wg.Wait()

			if result.Response != "" {
				listener.AsyncPrintln(result.Response)
			}
			if result.Error != nil {
				listener.AsyncPrintln(fmt.Sprintf("[Request %s FAILED] %s", sessionID, result.Error.Message))
			}
			if result.Metrics != nil {
				listener.AsyncPrintln(display.FormatRequestMetrics(result.Metrics))
			}
		}
	},
}
