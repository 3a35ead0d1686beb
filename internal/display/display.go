package display

import (
	"fmt"
	"strings"

	"evalpilot/internal/copilot"
	"evalpilot/internal/thought"
)

const maxParamValueLength = 100

var ansiColors = map[string]string{
	"cyan":    "\033[36m",
	"yellow":  "\033[33m",
	"white":   "\033[37m",
	"blue":    "\033[34m",
	"magenta": "\033[35m",
	"green":   "\033[32m",
	"red":     "\033[31m",
}

const ansiReset = "\033[0m"

// FormatPlan renders a plan for the terminal, truncating long param values.
func FormatPlan(plan *copilot.ExecutionPlan) string {
	var sb strings.Builder
	sb.WriteString("Execution plan:\n")
	sb.WriteString("--------------------------------------------------\n")
	for i := range plan.Steps {
		s := &plan.Steps[i]
		sb.WriteString(fmt.Sprintf("Step %d [%s]: %s\n", s.Number, s.Status, s.Description))
		if s.Skill != "" {
			sb.WriteString(fmt.Sprintf("  Skill: %s\n", s.Skill))
		}
		if len(s.DependsOn) > 0 {
			sb.WriteString(fmt.Sprintf("  Depends on: %v\n", s.DependsOn))
		}
		if len(s.Params) > 0 {
			sb.WriteString("  Params:\n")
			for key, val := range s.Params {
				sb.WriteString(fmt.Sprintf("    %s: %s\n", key, formatValueForDisplay(val)))
			}
		}
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

// FormatThought renders one thought as a colored terminal line.
func FormatThought(t *thought.Thought) string {
	origin := t.Node
	if t.Skill != "" {
		origin = t.Skill
	}
	line := fmt.Sprintf("[%s] %s", t.Type, t.Content)
	if origin != "" {
		line = fmt.Sprintf("[%s] (%s) %s", t.Type, origin, t.Content)
	}
	if code, ok := ansiColors[t.Color]; ok {
		return code + line + ansiReset
	}
	return line
}

func formatValueForDisplay(value any) string {
	s := fmt.Sprintf("%v", value)
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > maxParamValueLength {
		return s[:maxParamValueLength] + "..."
	}
	return s
}
