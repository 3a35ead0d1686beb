package copilot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalpilot/internal/thought"
)

func assessedState(steps []PlanStep) *State {
	st := NewState("s1", "assess this", nil, nil)
	st.MaxIterations = DefaultMaxIterations
	st.Plan = NewPlan(st.Message, steps)
	return st
}

func TestAssessScoring(t *testing.T) {
	r := &Reflector{QualityThreshold: 0.7}

	tests := []struct {
		name  string
		steps []PlanStep
		score float64
	}{
		{
			"all completed",
			[]PlanStep{
				{Number: 1, Status: StepCompleted, Result: map[string]any{"success": true}},
				{Number: 2, Status: StepCompleted, Result: map[string]any{"success": true}},
			},
			1.0,
		},
		{
			"one failed",
			[]PlanStep{
				{Number: 1, Status: StepCompleted, Result: map[string]any{"success": true}},
				{Number: 2, Status: StepFailed, Error: "boom"},
			},
			0.5,
		},
		{
			"completed but unsuccessful",
			[]PlanStep{
				{Number: 1, Status: StepCompleted, Result: map[string]any{"success": false, "error": "no data"}},
			},
			0.5,
		},
		{
			"nothing ran",
			[]PlanStep{
				{Number: 1, Status: StepPending},
			},
			0.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := assessedState(tc.steps)
			score, _ := r.assess(st)
			assert.InDelta(t, tc.score, score, 1e-9)
		})
	}
}

func TestAssessEmptyPlan(t *testing.T) {
	r := &Reflector{QualityThreshold: 0.7}
	st := assessedState(nil)
	score, feedback := r.assess(st)
	assert.Zero(t, score)
	assert.Equal(t, "no plan was produced", feedback)
}

func TestReflectorRequestsReplanBelowThreshold(t *testing.T) {
	r := &Reflector{QualityThreshold: 0.7}
	st := assessedState([]PlanStep{{Number: 1, Status: StepFailed, Error: "boom"}})

	stream := thought.NewStream()
	defer stream.Close()
	require.NoError(t, r.Run(context.Background(), st, stream))

	assert.True(t, st.NeedsReplanning)
	assert.Contains(t, st.QualityFeedback, "step 1 failed")
	assert.Empty(t, st.FinalResponse)
	assert.Nil(t, st.Error)
}

func TestReflectorFinalizesAtLastIteration(t *testing.T) {
	r := &Reflector{QualityThreshold: 0.7}
	st := assessedState([]PlanStep{
		{Number: 1, Status: StepCompleted, Result: map[string]any{"success": true, "message": "half done"}},
		{Number: 2, Status: StepFailed, Error: "boom"},
	})
	st.Iteration = st.MaxIterations

	stream := thought.NewStream()
	defer stream.Close()
	require.NoError(t, r.Run(context.Background(), st, stream))

	assert.False(t, st.NeedsReplanning)
	require.NotEmpty(t, st.FinalResponse)
	assert.Contains(t, st.FinalResponse, "half done")
	assert.Contains(t, st.FinalResponse, "best-effort")
	require.NotNil(t, st.Error)
	assert.True(t, st.Error.Recoverable)
}

func TestReflectorErrorsWhenNothingUsable(t *testing.T) {
	r := &Reflector{QualityThreshold: 0.7}
	st := assessedState([]PlanStep{{Number: 1, Status: StepFailed, Error: "boom"}})
	st.Iteration = st.MaxIterations

	stream := thought.NewStream()
	defer stream.Close()
	require.NoError(t, r.Run(context.Background(), st, stream))

	assert.Empty(t, st.FinalResponse)
	require.NotNil(t, st.Error)
	assert.False(t, st.Error.Recoverable)
	assert.Equal(t, "no response could be produced", st.Error.Message)
}

func TestReflectorAboveThresholdSetsMetadata(t *testing.T) {
	r := &Reflector{QualityThreshold: 0.7}
	st := assessedState([]PlanStep{
		{Number: 1, Status: StepCompleted, Result: map[string]any{"success": true, "summary": "looks healthy"}},
	})

	stream := thought.NewStream()
	defer stream.Close()
	require.NoError(t, r.Run(context.Background(), st, stream))

	assert.Equal(t, "looks healthy", st.FinalResponse)
	assert.Nil(t, st.Error)
	require.NotNil(t, st.ResponseMetadata)
	assert.Equal(t, 1.0, st.ResponseMetadata["quality"])
	assert.Equal(t, 1, st.ResponseMetadata["iterations"])
}
