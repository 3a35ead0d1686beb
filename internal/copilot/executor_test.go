package copilot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

func TestExecutorStopsOnMissingRequiredParam(t *testing.T) {
	stub := newStub("query", map[string]any{"success": true})
	stub.meta.Parameters = []skills.Parameter{
		{Name: "query", Type: "string", Required: true},
	}
	reg := testRegistry(t, stub)

	st := NewState("s1", "find the slow rows", nil, nil)
	st.Plan = NewPlan(st.Message, []PlanStep{
		{Number: 1, Description: "search", Skill: "query", Params: map[string]any{}, Status: StepPending},
		{Number: 2, Description: "search again", Skill: "query", Params: map[string]any{}, Status: StepPending},
	})

	e := &Executor{Registry: reg}
	stream := thought.NewStream()
	defer stream.Close()
	_, err := e.Run(context.Background(), st, stream)

	require.Error(t, err)
	var mpe *skills.MissingParamError
	assert.ErrorAs(t, err, &mpe)
	// The run stops at the first input error; step 2 never starts.
	assert.Equal(t, StepFailed, st.Plan.Steps[0].Status)
	assert.Equal(t, StepPending, st.Plan.Steps[1].Status)
	assert.Equal(t, int32(0), stub.runs.Load())
}

func TestExecutorContainsSkillErrors(t *testing.T) {
	bad := newStub("evaluate", nil)
	bad.fail = assert.AnError
	good := newStub("analyze", map[string]any{"success": true, "message": "done"})
	reg := testRegistry(t, bad, good)

	st := NewState("s1", "evaluate and analyze", nil, nil)
	st.Plan = NewPlan(st.Message, []PlanStep{
		{Number: 1, Description: "eval", Skill: "evaluate", Params: map[string]any{}, Status: StepPending},
		{Number: 2, Description: "stats", Skill: "analyze", Params: map[string]any{}, Status: StepPending},
	})

	e := &Executor{Registry: reg}
	stream := thought.NewStream()
	defer stream.Close()
	stepMetrics, err := e.Run(context.Background(), st, stream)

	require.NoError(t, err)
	assert.Equal(t, StepFailed, st.Plan.Steps[0].Status)
	assert.Equal(t, StepCompleted, st.Plan.Steps[1].Status)
	require.Len(t, stepMetrics, 2)
	assert.False(t, stepMetrics[0].Success)
	assert.True(t, stepMetrics[1].Success)
}

func TestExecutorSkipsStepsBehindFailedDependency(t *testing.T) {
	bad := newStub("evaluate", nil)
	bad.fail = assert.AnError
	after := newStub("summarize", map[string]any{"success": true})
	reg := testRegistry(t, bad, after)

	st := NewState("s1", "evaluate then summarize", nil, nil)
	st.Plan = NewPlan(st.Message, []PlanStep{
		{Number: 1, Description: "eval", Skill: "evaluate", Params: map[string]any{}, Status: StepPending},
		{Number: 2, Description: "sum", Skill: "summarize", Params: map[string]any{}, DependsOn: []int{1}, Status: StepPending},
	})

	e := &Executor{Registry: reg}
	stream := thought.NewStream()
	defer stream.Close()
	_, err := e.Run(context.Background(), st, stream)

	require.NoError(t, err)
	assert.Equal(t, StepPending, st.Plan.Steps[1].Status)
	assert.Equal(t, int32(0), after.runs.Load())
	assert.True(t, st.Plan.HasFailed())
	assert.False(t, st.Plan.IsComplete())
}

func TestExecutorDirectTurnWithoutProvider(t *testing.T) {
	reg := testRegistry(t)
	st := NewState("s1", "just answer me", nil, nil)
	st.Plan = NewPlan(st.Message, []PlanStep{
		{Number: 1, Description: "Answer directly: just answer me", Params: map[string]any{}, Status: StepPending},
	})

	e := &Executor{Registry: reg}
	stream := thought.NewStream()
	defer stream.Close()
	_, err := e.Run(context.Background(), st, stream)

	require.NoError(t, err)
	step := st.Plan.Steps[0]
	assert.Equal(t, StepCompleted, step.Status)
	assert.Equal(t, true, step.Result["degraded"])
	resp, _ := step.Result["response"].(string)
	assert.NotEmpty(t, resp)
}

func TestExecutorRecordsSkillOutputs(t *testing.T) {
	stub := newStub("analyze", map[string]any{"success": true, "stats": map[string]any{"accuracy": 0.9}})
	reg := testRegistry(t, stub)

	st := NewState("s1", "analyze", nil, nil)
	st.Plan = NewPlan(st.Message, []PlanStep{
		{Number: 1, Description: "stats", Skill: "analyze", Params: map[string]any{}, Status: StepPending},
	})

	e := &Executor{Registry: reg}
	stream := thought.NewStream()
	defer stream.Close()
	_, err := e.Run(context.Background(), st, stream)

	require.NoError(t, err)
	require.Len(t, st.IntermediateResults, 1)
	require.Contains(t, st.SkillOutputs, "analyze")
}
