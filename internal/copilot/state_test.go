package copilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetForReplanning(t *testing.T) {
	st := NewState("abc123", "compare my runs", nil, nil)
	st.Plan = twoStagePlan()
	st.IntermediateResults = []map[string]any{{"x": 1}}
	st.RecordSkillOutput("compare", map[string]any{"delta": 0.2})
	st.QualityScore = 0.4
	st.QualityFeedback = "step 2 returned no data"
	st.NeedsReplanning = true

	prevIteration := st.Iteration
	st.ResetForReplanning()

	assert.Nil(t, st.Plan)
	assert.Nil(t, st.IntermediateResults)
	assert.Empty(t, st.SkillOutputs)
	assert.Zero(t, st.QualityScore)
	assert.False(t, st.NeedsReplanning)
	assert.Equal(t, prevIteration+1, st.Iteration)
	// The feedback line survives: it is the planner's input on the next pass.
	assert.Equal(t, "step 2 returned no data", st.QualityFeedback)

	// Calling again from the already-clean state still increments by one.
	st.ResetForReplanning()
	assert.Equal(t, prevIteration+2, st.Iteration)
}

func TestRecordSkillOutputMerges(t *testing.T) {
	st := NewState("abc123", "msg", nil, nil)

	st.RecordSkillOutput("evaluate", map[string]any{"mean": 0.8})
	st.RecordSkillOutput("evaluate", map[string]any{"std": 0.1})
	st.RecordSkillOutput("", map[string]any{"response": "direct"})
	st.RecordSkillOutput("evaluate", nil) // empty results are ignored

	require.Len(t, st.IntermediateResults, 3)
	assert.Equal(t, map[string]any{"mean": 0.8, "std": 0.1}, st.SkillOutputs["evaluate"])
	_, hasUnnamed := st.SkillOutputs[""]
	assert.False(t, hasUnnamed)
}
