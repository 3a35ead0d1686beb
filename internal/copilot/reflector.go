package copilot

import (
	"context"
	"fmt"
	"strings"

	"evalpilot/internal/llm_client"
	"evalpilot/internal/logger"
	"evalpilot/internal/thought"
)

// Reflector scores what the executor produced and decides between replanning
// and finalizing. Quality shortfall is not an error; it only drives the loop.
type Reflector struct {
	QualityThreshold float64
}

func (r *Reflector) Run(ctx context.Context, st *State, stream *thought.Stream) error {
	score, feedback := r.assess(st)
	st.QualityScore = score

	stream.Emit(thought.New(thought.TypeReflection,
		fmt.Sprintf("Quality %.2f (threshold %.2f)", score, r.QualityThreshold)).
		WithNode("reflector").
		WithMetadata(map[string]any{"score": score, "iteration": st.Iteration}))

	if score < r.QualityThreshold && st.Iteration < st.MaxIterations {
		st.NeedsReplanning = true
		st.QualityFeedback = feedback
		stream.Emit(thought.New(thought.TypeDecision,
			fmt.Sprintf("Below threshold, replanning: %s", feedback)).WithNode("reflector"))
		return nil
	}

	r.finalize(ctx, st, stream, score < r.QualityThreshold)
	return nil
}

// assess is a deterministic score over the plan outcome: the completion
// fraction, discounted for steps whose results report success=false.
func (r *Reflector) assess(st *State) (float64, string) {
	if st.Plan == nil || len(st.Plan.Steps) == 0 {
		return 0, "no plan was produced"
	}

	total := len(st.Plan.Steps)
	completed := 0
	unsuccessful := 0
	var problems []string

	for i := range st.Plan.Steps {
		s := &st.Plan.Steps[i]
		switch s.Status {
		case StepCompleted:
			completed++
			if ok, present := s.Result["success"].(bool); present && !ok {
				unsuccessful++
				reason, _ := s.Result["error"].(string)
				problems = append(problems, fmt.Sprintf("step %d returned %s", s.Number, reason))
			}
		case StepFailed:
			problems = append(problems, fmt.Sprintf("step %d failed: %s", s.Number, s.Error))
		default:
			problems = append(problems, fmt.Sprintf("step %d never became runnable", s.Number))
		}
	}

	score := float64(completed) / float64(total)
	if completed > 0 {
		score -= 0.5 * float64(unsuccessful) / float64(total)
	}
	if score < 0 {
		score = 0
	}

	return score, strings.Join(problems, "; ")
}

func (r *Reflector) finalize(ctx context.Context, st *State, stream *thought.Stream, belowThreshold bool) {
	response := r.compose(ctx, st)
	if belowThreshold && response != "" {
		response += "\n\nNote: this is a best-effort answer; result quality stayed below the configured threshold after all replanning attempts."
	}

	if response == "" {
		st.SetError("no response could be produced", false)
		stream.Emit(thought.New(thought.TypeError, "No usable output from any step").WithNode("reflector"))
		return
	}

	st.FinalResponse = response
	st.ResponseMetadata = map[string]any{
		"quality":    st.QualityScore,
		"iterations": st.Iteration + 1,
		"steps":      len(st.Plan.Steps),
	}
	if belowThreshold {
		// A degraded answer still counts as recoverable output.
		st.SetError("quality threshold not reached", true)
	}
	stream.Emit(thought.New(thought.TypeSuccess, "Response finalized").WithNode("reflector"))
}

// compose builds the final response text from completed step results,
// delegating to the language model for phrasing when one is configured.
func (r *Reflector) compose(ctx context.Context, st *State) string {
	results := st.Plan.CompletedResults()
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for _, res := range results {
		if s, ok := res["summary"].(string); ok && s != "" {
			parts = append(parts, s)
			continue
		}
		if s, ok := res["response"].(string); ok && s != "" {
			parts = append(parts, s)
			continue
		}
		if s, ok := res["message"].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	assembled := strings.Join(parts, "\n")

	if llm_client.Available() {
		prompt := fmt.Sprintf(
			"You are an analytics copilot. The user asked: %q\nStep outcomes:\n%s\n\nWrite a concise final answer for the user based only on these outcomes.",
			st.Message, assembled)
		if out, err := llm_client.Generate(ctx, prompt, ""); err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		} else if err != nil {
			logger.Log.Warnf("Reflector: synthesis failed, returning raw outcomes: %v", err)
		}
	}
	return assembled
}
