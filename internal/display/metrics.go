package display

import (
	"fmt"
	"strings"

	"evalpilot/internal/metrics"
)

func FormatRequestMetrics(rm *metrics.RequestMetrics) string {
	if rm == nil {
		return "No metrics available."
	}
	var sb strings.Builder
	sb.WriteString("Execution metrics:\n")
	sb.WriteString(fmt.Sprintf("- Total: %d ms  (success=%v)\n", rm.DurationMs, rm.Succeeded))
	for _, it := range rm.Iterations {
		sb.WriteString(fmt.Sprintf("  Iteration %d: %d ms  (quality=%.2f)\n",
			it.Iteration, it.DurationMs, it.Quality))
		for _, s := range it.Steps {
			status := "ok"
			if !s.Success {
				status = "err"
			}
			name := s.Skill
			if name == "" {
				name = "(direct)"
			}
			sb.WriteString(fmt.Sprintf("    step %-3d %-22s %5d ms  [%s]\n",
				s.Step, name, s.DurationMs, status))
		}
	}
	return sb.String()
}
