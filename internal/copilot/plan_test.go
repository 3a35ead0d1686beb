package copilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStagePlan() *ExecutionPlan {
	return NewPlan("test goal", []PlanStep{
		{Number: 1, Description: "first", Status: StepPending},
		{Number: 2, Description: "second", Status: StepPending},
		{Number: 3, Description: "third", DependsOn: []int{1, 2}, Status: StepPending},
	})
}

func TestNextStepDependencyGating(t *testing.T) {
	plan := twoStagePlan()

	// Step 3 is blocked until 1 and 2 complete; lowest eligible number wins.
	s := plan.NextStep()
	require.NotNil(t, s)
	assert.Equal(t, 1, s.Number)

	plan.MarkStepComplete(1, map[string]any{"ok": true})
	s = plan.NextStep()
	require.NotNil(t, s)
	assert.Equal(t, 2, s.Number)

	plan.MarkStepComplete(2, map[string]any{"ok": true})
	s = plan.NextStep()
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Number)

	plan.MarkStepComplete(3, nil)
	assert.Nil(t, plan.NextStep())
}

func TestNextStepSkipsBlockedByFailure(t *testing.T) {
	plan := twoStagePlan()
	plan.MarkStepComplete(1, nil)
	plan.MarkStepFailed(2, "boom")

	// Step 3 depends on the failed step 2 and must never become runnable.
	assert.Nil(t, plan.NextStep())
	assert.True(t, plan.HasFailed())
	assert.False(t, plan.IsComplete())
}

func TestMarkStepLastCallWins(t *testing.T) {
	plan := twoStagePlan()

	plan.MarkStepFailed(1, "transient")
	plan.MarkStepComplete(1, map[string]any{"value": 42})

	s := plan.step(1)
	require.NotNil(t, s)
	assert.Equal(t, StepCompleted, s.Status)
	assert.Equal(t, map[string]any{"value": 42}, s.Result)
	assert.Empty(t, s.Error)

	plan.MarkStepFailed(1, "final")
	assert.Equal(t, StepFailed, s.Status)
	assert.Equal(t, "final", s.Error)
	assert.Nil(t, s.Result)
}

func TestMarkStepUnknownNumberIsNoOp(t *testing.T) {
	plan := twoStagePlan()
	plan.MarkStepComplete(99, nil)
	plan.MarkStepFailed(-1, "nope")
	for i := range plan.Steps {
		assert.Equal(t, StepPending, plan.Steps[i].Status)
	}
}

func TestCompletionAndFailureFlags(t *testing.T) {
	plan := twoStagePlan()
	assert.False(t, plan.IsComplete())
	assert.False(t, plan.HasFailed())

	plan.MarkStepComplete(1, map[string]any{"a": 1})
	plan.MarkStepComplete(2, nil) // empty results are excluded from CompletedResults
	plan.MarkStepComplete(3, map[string]any{"b": 2})

	assert.True(t, plan.IsComplete())
	assert.False(t, plan.HasFailed())

	results := plan.CompletedResults()
	require.Len(t, results, 2)
	assert.Equal(t, map[string]any{"a": 1}, results[0])
	assert.Equal(t, map[string]any{"b": 2}, results[1])
}

func TestEmptyPlanIsNotComplete(t *testing.T) {
	plan := NewPlan("empty", nil)
	assert.False(t, plan.IsComplete())
	assert.Nil(t, plan.NextStep())
}

func TestSparseNumberingStillResolves(t *testing.T) {
	plan := NewPlan("sparse", []PlanStep{
		{Number: 10, Status: StepPending},
		{Number: 20, DependsOn: []int{10}, Status: StepPending},
	})

	s := plan.NextStep()
	require.NotNil(t, s)
	assert.Equal(t, 10, s.Number)

	plan.MarkStepComplete(10, map[string]any{"done": true})
	s = plan.NextStep()
	require.NotNil(t, s)
	assert.Equal(t, 20, s.Number)
}

func TestCyclicPlanIsRejectedBeforeExecution(t *testing.T) {
	plan := NewPlan("stuck", []PlanStep{
		{Number: 1, DependsOn: []int{2}, Status: StepPending},
		{Number: 2, DependsOn: []int{1}, Status: StepPending},
	})

	// No step in a mutual cycle can ever become runnable; validation must
	// reject the plan so the executor never sees it.
	assert.Nil(t, plan.NextStep())
	err := plan.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name        string
		steps       []PlanStep
		expectError bool
	}{
		{
			name: "valid plan with dependencies",
			steps: []PlanStep{
				{Number: 1},
				{Number: 2, DependsOn: []int{1}},
			},
			expectError: false,
		},
		{
			name: "dependency on unknown step",
			steps: []PlanStep{
				{Number: 1, DependsOn: []int{7}},
			},
			expectError: true,
		},
		{
			name: "self dependency",
			steps: []PlanStep{
				{Number: 1, DependsOn: []int{1}},
			},
			expectError: true,
		},
		{
			name: "duplicate step numbers",
			steps: []PlanStep{
				{Number: 1},
				{Number: 1},
			},
			expectError: true,
		},
		{
			name: "non-positive step number",
			steps: []PlanStep{
				{Number: 0},
			},
			expectError: true,
		},
		{
			name: "mutual dependency cycle",
			steps: []PlanStep{
				{Number: 1, DependsOn: []int{2}},
				{Number: 2, DependsOn: []int{1}},
			},
			expectError: true,
		},
		{
			name: "three-step cycle",
			steps: []PlanStep{
				{Number: 1, DependsOn: []int{3}},
				{Number: 2, DependsOn: []int{1}},
				{Number: 3, DependsOn: []int{2}},
			},
			expectError: true,
		},
		{
			name: "cycle alongside a clean step",
			steps: []PlanStep{
				{Number: 1},
				{Number: 2, DependsOn: []int{3}},
				{Number: 3, DependsOn: []int{2}},
			},
			expectError: true,
		},
		{
			name: "acyclic backward reference",
			steps: []PlanStep{
				{Number: 1, DependsOn: []int{3}},
				{Number: 2},
				{Number: 3, DependsOn: []int{2}},
			},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewPlan("g", tc.steps).Validate()
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
