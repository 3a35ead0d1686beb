package copilot

import (
	"evalpilot/internal/skills"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

const DefaultMaxIterations = 3

type ErrorInfo struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// State is the full per-request context. It is created once per incoming
// request and mutated only by the orchestrator loop and the nodes it invokes;
// it is never shared across requests.
type State struct {
	SessionID   string
	Message     string
	DataContext *skills.DataContext
	Rows        []map[string]any

	Intent          string
	Complexity      Complexity
	RequiresData    bool
	CandidateSkills []string

	Plan            *ExecutionPlan
	NeedsReplanning bool

	IntermediateResults []map[string]any
	SkillOutputs        map[string]map[string]any

	QualityScore    float64
	QualityFeedback string

	Iteration     int
	MaxIterations int

	FinalResponse    string
	ResponseMetadata map[string]any

	Error *ErrorInfo
}

func NewState(sessionID, message string, dataContext *skills.DataContext, rows []map[string]any) *State {
	return &State{
		SessionID:     sessionID,
		Message:       message,
		DataContext:   dataContext,
		Rows:          rows,
		SkillOutputs:  make(map[string]map[string]any),
		MaxIterations: DefaultMaxIterations,
	}
}

// ResetForReplanning is the sole transition boundary between planning
// iterations: it drops the plan and everything derived from executing it,
// bumps the iteration counter and rearms the planner. QualityFeedback
// survives the reset; it is what makes the next planner run different from
// the one that just fell short.
func (s *State) ResetForReplanning() {
	s.Plan = nil
	s.IntermediateResults = nil
	s.SkillOutputs = make(map[string]map[string]any)
	s.QualityScore = 0
	s.Iteration++
	s.NeedsReplanning = false
}

// RecordSkillOutput merges a skill result into the per-skill output map and
// the ordered intermediate results.
func (s *State) RecordSkillOutput(skill string, result map[string]any) {
	if len(result) == 0 {
		return
	}
	s.IntermediateResults = append(s.IntermediateResults, result)
	if skill == "" {
		return
	}
	merged := s.SkillOutputs[skill]
	if merged == nil {
		merged = make(map[string]any, len(result))
	}
	for k, v := range result {
		merged[k] = v
	}
	s.SkillOutputs[skill] = merged
}

func (s *State) SetError(message string, recoverable bool) {
	s.Error = &ErrorInfo{Message: message, Recoverable: recoverable}
}
