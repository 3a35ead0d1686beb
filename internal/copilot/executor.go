package copilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evalpilot/internal/llm_client"
	"evalpilot/internal/logger"
	"evalpilot/internal/metrics"
	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

const defaultStepTimeout = 60 * time.Second

// Executor drains the plan: it repeatedly takes the next runnable step and
// runs it, one at a time, in discovery order. A failed step is contained to
// itself; steps downstream of it simply never become runnable.
type Executor struct {
	Registry    *skills.Registry
	StepTimeout time.Duration
}

func (e *Executor) Run(ctx context.Context, st *State, stream *thought.Stream) ([]metrics.StepMetrics, error) {
	if st.Plan == nil {
		return nil, fmt.Errorf("executor: no plan")
	}

	var stepMetrics []metrics.StepMetrics
	for step := st.Plan.NextStep(); step != nil; step = st.Plan.NextStep() {
		if err := ctx.Err(); err != nil {
			return stepMetrics, err
		}

		step.Status = StepInProgress
		st.Plan.Current = step.Number

		sm := metrics.StepMetrics{Step: step.Number, Skill: step.Skill, Start: time.Now()}
		result, err := e.runStep(ctx, st, step, stream)
		sm.End = time.Now()
		sm.DurationMs = sm.End.Sub(sm.Start).Milliseconds()
		sm.Success = err == nil

		if err != nil {
			sm.Err = err.Error()
			stepMetrics = append(stepMetrics, sm)

			// Required-parameter misses are input errors and end the request.
			var mpe *skills.MissingParamError
			if errors.As(err, &mpe) {
				st.Plan.MarkStepFailed(step.Number, err.Error())
				return stepMetrics, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				st.Plan.MarkStepFailed(step.Number, err.Error())
				return stepMetrics, err
			}

			logger.Log.Warnf("Step %d (%s) failed: %v", step.Number, step.Skill, err)
			st.Plan.MarkStepFailed(step.Number, err.Error())
			stream.Emit(thought.New(thought.TypeError,
				fmt.Sprintf("Step %d failed: %v", step.Number, err)).WithNode("executor").WithSkill(step.Skill))
			continue
		}

		st.Plan.MarkStepComplete(step.Number, result)
		st.RecordSkillOutput(step.Skill, result)
		stepMetrics = append(stepMetrics, sm)
		stream.Emit(thought.New(thought.TypeObservation,
			fmt.Sprintf("Step %d done: %s", step.Number, step.Description)).WithNode("executor").WithSkill(step.Skill))
	}
	return stepMetrics, nil
}

// runStep executes one step via its bound skill or as a direct LLM turn.
// Panics inside a skill are converted to errors at this boundary.
func (e *Executor) runStep(ctx context.Context, st *State, step *PlanStep, stream *thought.Stream) (result map[string]any, rerr error) {
	defer func() {
		if rec := recover(); rec != nil {
			rerr = fmt.Errorf("panic in step %d: %v", step.Number, rec)
		}
	}()

	timeout := e.StepTimeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if step.Skill == "" {
		return e.directTurn(stepCtx, st, step, stream)
	}

	s := e.Registry.Get(step.Skill)
	if s == nil {
		return nil, fmt.Errorf("skill '%s' is not executable", step.Skill)
	}

	params, err := skills.ValidateParams(s.Metadata(), step.Params)
	if err != nil {
		return nil, err
	}

	return s.Execute(stepCtx, &skills.Input{
		Message:     st.Message,
		Rows:        st.Rows,
		DataContext: st.DataContext,
		Params:      params,
	}, stream)
}

// directTurn answers an unbound step with the language model, or with a
// placeholder when no provider is configured.
func (e *Executor) directTurn(ctx context.Context, st *State, step *PlanStep, stream *thought.Stream) (map[string]any, error) {
	stream.Emit(thought.New(thought.TypeToolUse,
		fmt.Sprintf("Answering step %d directly", step.Number)).WithNode("executor"))

	prompt := fmt.Sprintf("You are an analytics copilot.\nTask: %s\nUser request: %q\nAnswer concisely.",
		step.Description, st.Message)
	out, err := llm_client.Generate(ctx, prompt, "")
	if err != nil {
		if errors.Is(err, llm_client.ErrNotInitialized) {
			return map[string]any{
				"success":  true,
				"response": fmt.Sprintf("No language model is configured; step %q was acknowledged without a generated answer.", step.Description),
				"degraded": true,
			}, nil
		}
		return nil, err
	}
	return map[string]any{"success": true, "response": out}, nil
}
