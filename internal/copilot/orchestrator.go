package copilot

import (
	"context"
	"fmt"
	"time"

	"evalpilot/internal/logger"
	"evalpilot/internal/metrics"
	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

const DefaultQualityThreshold = 0.7

// Orchestrator drives the node pipeline through a bounded replanning loop.
// One orchestrator serves many requests; all per-request state lives in the
// State passed to Run.
type Orchestrator struct {
	analyzer  *Analyzer
	planner   *Planner
	executor  *Executor
	reflector *Reflector

	maxIterations int
}

type Options struct {
	MaxIterations    int
	QualityThreshold float64
	StepTimeout      time.Duration
}

func NewOrchestrator(reg *skills.Registry, opts Options) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.QualityThreshold <= 0 {
		opts.QualityThreshold = DefaultQualityThreshold
	}
	return &Orchestrator{
		analyzer:      &Analyzer{Registry: reg},
		planner:       &Planner{Registry: reg},
		executor:      &Executor{Registry: reg, StepTimeout: opts.StepTimeout},
		reflector:     &Reflector{QualityThreshold: opts.QualityThreshold},
		maxIterations: opts.MaxIterations,
	}
}

// Result is what the transport turns into response/error events.
type Result struct {
	Response string                  `json:"response,omitempty"`
	Metadata map[string]any          `json:"metadata,omitempty"`
	Error    *ErrorInfo              `json:"error,omitempty"`
	Metrics  *metrics.RequestMetrics `json:"metrics,omitempty"`
}

// Run processes one request to completion. It terminates within the
// iteration ceiling even when the reflector keeps asking for another plan.
func (o *Orchestrator) Run(ctx context.Context, st *State, stream *thought.Stream) *Result {
	st.MaxIterations = o.maxIterations
	rm := &metrics.RequestMetrics{SessionID: st.SessionID, Start: time.Now()}
	defer func() {
		rm.End = time.Now()
		rm.Finalize()
	}()

	logger.Log.Infof("Request %s: %q", st.SessionID, st.Message)

	if err := o.analyzer.Run(ctx, st, stream); err != nil {
		return o.fail(st, rm, fmt.Sprintf("analysis failed: %v", err))
	}

	for {
		im := metrics.IterationMetrics{Iteration: st.Iteration, Start: time.Now()}

		if err := o.planner.Run(ctx, st, stream); err != nil {
			return o.fail(st, rm, fmt.Sprintf("planning failed: %v", err))
		}

		stepMetrics, execErr := o.executor.Run(ctx, st, stream)
		im.Steps = stepMetrics
		if execErr != nil {
			im.End = time.Now()
			im.Finalize()
			rm.Iterations = append(rm.Iterations, im)
			return o.fail(st, rm, execErr.Error())
		}

		if err := o.reflector.Run(ctx, st, stream); err != nil {
			return o.fail(st, rm, fmt.Sprintf("reflection failed: %v", err))
		}

		im.End = time.Now()
		im.Quality = st.QualityScore
		im.Finalize()
		rm.Iterations = append(rm.Iterations, im)

		if st.NeedsReplanning && st.Iteration < st.MaxIterations {
			logger.Log.Infof("Request %s: replanning (iteration %d, quality %.2f)",
				st.SessionID, st.Iteration, st.QualityScore)
			st.ResetForReplanning()
			continue
		}
		break
	}

	rm.Succeeded = st.FinalResponse != ""
	result := &Result{
		Response: st.FinalResponse,
		Metadata: st.ResponseMetadata,
		Error:    st.Error,
		Metrics:  rm,
	}
	if st.FinalResponse != "" {
		logger.Log.Infof("Request %s: done (quality %.2f, %d iteration(s))",
			st.SessionID, st.QualityScore, st.Iteration+1)
	} else {
		logger.Log.Warnf("Request %s: no response produced", st.SessionID)
	}
	return result
}

func (o *Orchestrator) fail(st *State, rm *metrics.RequestMetrics, message string) *Result {
	// A partial response already composed still counts as recoverable.
	recoverable := st.FinalResponse != ""
	st.SetError(message, recoverable)
	logger.Log.Warnf("Request %s: %s", st.SessionID, message)
	return &Result{
		Response: st.FinalResponse,
		Metadata: st.ResponseMetadata,
		Error:    st.Error,
		Metrics:  rm,
	}
}
