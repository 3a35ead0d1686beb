package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"evalpilot/internal/llm_client"
	"evalpilot/internal/logger"
	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

// Planner turns the analyzed request into a dependency-ordered ExecutionPlan.
// It is re-invoked on every replanning cycle and must work from a state whose
// plan was just cleared.
type Planner struct {
	Registry *skills.Registry
}

func (p *Planner) Run(ctx context.Context, st *State, stream *thought.Stream) error {
	stream.Emit(thought.New(thought.TypePlanning,
		fmt.Sprintf("Planning (iteration %d, complexity %s)", st.Iteration, st.Complexity)).WithNode("planner"))

	var plan *ExecutionPlan
	if llm_client.Available() {
		generated, err := p.generateLLM(ctx, st)
		if err != nil {
			logger.Log.Warnf("Planner: llm plan failed, using heuristic plan: %v", err)
		} else {
			plan = generated
		}
	}
	if plan == nil {
		plan = p.heuristicPlan(st)
	}

	if err := plan.Validate(); err != nil {
		return fmt.Errorf("generated plan invalid: %w", err)
	}

	st.Plan = plan
	stream.Emit(thought.New(thought.TypePlanning,
		fmt.Sprintf("Plan ready: %d step(s)", len(plan.Steps))).
		WithNode("planner").
		WithMetadata(map[string]any{"steps": len(plan.Steps)}))
	return nil
}

type rawPlanStep struct {
	Step        int            `json:"step"`
	Description string         `json:"description"`
	Skill       string         `json:"skill"`
	Params      map[string]any `json:"params"`
	DependsOn   []int          `json:"depends_on"`
}

func (p *Planner) generateLLM(ctx context.Context, st *State) (*ExecutionPlan, error) {
	prompt := p.buildPrompt(st)
	raw, err := llm_client.GenerateJSON(ctx, prompt, "", nil)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	var parsed struct {
		Steps []rawPlanStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse plan JSON: %v\nRaw Response: %s", err, raw)
	}
	if len(parsed.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps\nRaw Response: %s", raw)
	}

	steps := make([]PlanStep, 0, len(parsed.Steps))
	for i, rs := range parsed.Steps {
		number := rs.Step
		if number == 0 {
			number = i + 1
		}
		skillName := strings.TrimSpace(rs.Skill)
		if skillName != "" && p.Registry.GetMetadata(skillName) == nil {
			// Unknown skill: keep the step but run it as a direct LLM turn.
			logger.Log.Warnf("Planner: dropping unknown skill %q from step %d", skillName, number)
			skillName = ""
		}
		steps = append(steps, PlanStep{
			Number:      number,
			Description: rs.Description,
			Skill:       skillName,
			Params:      rs.Params,
			DependsOn:   rs.DependsOn,
			Status:      StepPending,
		})
	}
	return NewPlan(st.Message, steps), nil
}

func (p *Planner) buildPrompt(st *State) string {
	var sb strings.Builder
	sb.WriteString("You are an expert analytics workflow planner. Convert the user's request into a STRICT JSON execution plan.\n")
	sb.WriteString("Respond ONLY with JSON. No extra text.\n\n")
	sb.WriteString("OUTPUT JSON SCHEMA:\n")
	sb.WriteString("{\"steps\": [{\"step\": <int starting at 1>, \"description\": \"<string>\", \"skill\": \"<skill name or empty>\", \"params\": {}, \"depends_on\": [<step numbers>]}]}\n\n")
	sb.WriteString(p.Registry.PromptPart())
	sb.WriteString("\nHARD RULES:\n")
	sb.WriteString("1) depends_on may only reference EARLIER step numbers in this plan.\n")
	sb.WriteString("2) A step with an empty skill is answered directly by the language model.\n")
	sb.WriteString(fmt.Sprintf("3) Complexity is %q: simple means ONE step with no dependencies; keep moderate plans to 2-3 steps.\n", st.Complexity))
	sb.WriteString("4) Prefer the candidate skills listed below; do not invent skill names.\n")
	sb.WriteString("5) Required parameters (marked *) must be present in params.\n\n")

	if len(st.CandidateSkills) > 0 {
		sb.WriteString(fmt.Sprintf("Candidate skills (best match first): [%s]\n", strings.Join(st.CandidateSkills, ", ")))
	}
	if st.DataContext != nil {
		sb.WriteString(fmt.Sprintf("Data context: %d rows, metric columns [%s]\n",
			st.DataContext.RowCount, strings.Join(st.DataContext.MetricColumns, ", ")))
	}
	if st.QualityFeedback != "" {
		sb.WriteString(fmt.Sprintf("PREVIOUS ATTEMPT FEEDBACK (fix this): %s\n", st.QualityFeedback))
	}
	sb.WriteString(fmt.Sprintf("\nUser request: %q\nAssistant: ", st.Message))
	return sb.String()
}

// heuristicPlan builds a plan straight from the candidate shortlist: one step
// per candidate, with summarize-style steps gated on the rest.
func (p *Planner) heuristicPlan(st *State) *ExecutionPlan {
	candidates := st.CandidateSkills
	if len(candidates) == 0 {
		candidates = []string{""}
	}
	if st.Complexity == ComplexitySimple {
		candidates = candidates[:1]
	}

	var dataSteps []int
	steps := make([]PlanStep, 0, len(candidates))
	for i, name := range candidates {
		step := PlanStep{
			Number:      i + 1,
			Description: stepDescription(name, st.Message),
			Skill:       name,
			Params:      map[string]any{},
			Status:      StepPending,
		}
		if name == "summarize" {
			// Summaries read everything produced before them.
			step.DependsOn = append(step.DependsOn, dataSteps...)
		} else {
			dataSteps = append(dataSteps, step.Number)
		}
		steps = append(steps, step)
	}
	return NewPlan(st.Message, steps)
}

func stepDescription(skill, message string) string {
	if skill == "" {
		return fmt.Sprintf("Answer directly: %s", message)
	}
	return fmt.Sprintf("Run %s for: %s", skill, message)
}
