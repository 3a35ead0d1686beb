package copilot

import (
	"fmt"
	"time"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// PlanStep is one unit of work. Steps are addressed by their 1-based number;
// DependsOn lists the numbers of steps that must complete first.
type PlanStep struct {
	Number      int            `json:"step"`
	Description string         `json:"description"`
	Skill       string         `json:"skill,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	DependsOn   []int          `json:"depends_on,omitempty"`
	Status      StepStatus     `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type ExecutionPlan struct {
	Goal       string     `json:"goal"`
	CreatedAt  time.Time  `json:"created_at"`
	Steps      []PlanStep `json:"steps"`
	Current    int        `json:"current"`
	MaxRetries int        `json:"max_retries"`
	RetryCount int        `json:"retry_count"`
}

func NewPlan(goal string, steps []PlanStep) *ExecutionPlan {
	return &ExecutionPlan{
		Goal:       goal,
		CreatedAt:  time.Now(),
		Steps:      steps,
		MaxRetries: 3,
	}
}

// step locates a step by number. Dense 1..N numbering indexes directly; any
// other numbering falls back to a scan.
func (p *ExecutionPlan) step(number int) *PlanStep {
	if number >= 1 && number <= len(p.Steps) && p.Steps[number-1].Number == number {
		return &p.Steps[number-1]
	}
	for i := range p.Steps {
		if p.Steps[i].Number == number {
			return &p.Steps[i]
		}
	}
	return nil
}

// NextStep returns the first pending step whose dependencies are all
// completed, in step order. First match wins; this is deliberately not a
// scheduler.
func (p *ExecutionPlan) NextStep() *PlanStep {
	for i := range p.Steps {
		s := &p.Steps[i]
		if s.Status != StepPending {
			continue
		}
		if p.depsCompleted(s) {
			return s
		}
	}
	return nil
}

func (p *ExecutionPlan) depsCompleted(s *PlanStep) bool {
	for _, dep := range s.DependsOn {
		d := p.step(dep)
		if d == nil || d.Status != StepCompleted {
			return false
		}
	}
	return true
}

// MarkStepComplete sets the step's status and result in place. The most
// recent call wins; there is no rollback.
func (p *ExecutionPlan) MarkStepComplete(number int, result map[string]any) {
	if s := p.step(number); s != nil {
		s.Status = StepCompleted
		s.Result = result
		s.Error = ""
	}
}

// MarkStepFailed sets the step's status and error text in place.
func (p *ExecutionPlan) MarkStepFailed(number int, errText string) {
	if s := p.step(number); s != nil {
		s.Status = StepFailed
		s.Error = errText
		s.Result = nil
	}
}

func (p *ExecutionPlan) IsComplete() bool {
	if len(p.Steps) == 0 {
		return false
	}
	for i := range p.Steps {
		if p.Steps[i].Status != StepCompleted {
			return false
		}
	}
	return true
}

func (p *ExecutionPlan) HasFailed() bool {
	for i := range p.Steps {
		if p.Steps[i].Status == StepFailed {
			return true
		}
	}
	return false
}

// CompletedResults returns the non-empty results of completed steps in step
// order.
func (p *ExecutionPlan) CompletedResults() []map[string]any {
	var out []map[string]any
	for i := range p.Steps {
		s := &p.Steps[i]
		if s.Status == StepCompleted && len(s.Result) > 0 {
			out = append(out, s.Result)
		}
	}
	return out
}

// Validate checks that every dependency references a step number present in
// the plan, that no step depends on itself, and that the dependency graph is
// acyclic. A cycle would leave every step in it permanently blocked, so the
// executor would drain zero steps without ever reporting why.
func (p *ExecutionPlan) Validate() error {
	present := make(map[int]struct{}, len(p.Steps))
	for i := range p.Steps {
		n := p.Steps[i].Number
		if n <= 0 {
			return fmt.Errorf("step %d: step numbers must be positive", n)
		}
		if _, dup := present[n]; dup {
			return fmt.Errorf("duplicate step number %d", n)
		}
		present[n] = struct{}{}
	}
	for i := range p.Steps {
		s := &p.Steps[i]
		for _, dep := range s.DependsOn {
			if dep == s.Number {
				return fmt.Errorf("step %d depends on itself", s.Number)
			}
			if _, ok := present[dep]; !ok {
				return fmt.Errorf("step %d depends on unknown step %d", s.Number, dep)
			}
		}
	}

	// Kahn's algorithm: repeatedly peel steps with no unresolved deps. Any
	// step left with a positive in-degree is on a cycle.
	indeg := make(map[int]int, len(p.Steps))
	dependents := make(map[int][]int, len(p.Steps))
	for i := range p.Steps {
		s := &p.Steps[i]
		indeg[s.Number] = len(s.DependsOn)
		for _, dep := range s.DependsOn {
			dependents[dep] = append(dependents[dep], s.Number)
		}
	}
	queue := make([]int, 0, len(p.Steps))
	for i := range p.Steps {
		if indeg[p.Steps[i].Number] == 0 {
			queue = append(queue, p.Steps[i].Number)
		}
	}
	resolved := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		resolved++
		for _, m := range dependents[n] {
			indeg[m]--
			if indeg[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	if resolved != len(p.Steps) {
		for i := range p.Steps {
			if indeg[p.Steps[i].Number] > 0 {
				return fmt.Errorf("step %d is part of a dependency cycle", p.Steps[i].Number)
			}
		}
	}
	return nil
}
