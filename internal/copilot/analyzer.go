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

// Analyzer classifies the request and shortlists candidate skills. It has no
// side effects on the plan; it only fills the derived fields of the state.
type Analyzer struct {
	Registry *skills.Registry
}

func (a *Analyzer) Run(ctx context.Context, st *State, stream *thought.Stream) error {
	stream.Emit(thought.New(thought.TypeReasoning, "Analyzing request intent and complexity").WithNode("analyzer"))

	if llm_client.Available() {
		if err := a.runLLM(ctx, st); err == nil {
			a.finish(st, stream)
			return nil
		} else {
			logger.Log.Warnf("Analyzer: llm classification failed, using heuristics: %v", err)
		}
	}

	a.runHeuristic(st)
	a.finish(st, stream)
	return nil
}

func (a *Analyzer) finish(st *State, stream *thought.Stream) {
	stream.Emit(thought.New(thought.TypeDecision,
		fmt.Sprintf("Intent %q, complexity %s, candidates [%s]",
			st.Intent, st.Complexity, strings.Join(st.CandidateSkills, ", "))).
		WithNode("analyzer").
		WithMetadata(map[string]any{"requires_data": st.RequiresData}))
}

type analysisResult struct {
	Intent          string   `json:"intent"`
	Complexity      string   `json:"complexity"`
	RequiresData    bool     `json:"requires_data"`
	CandidateSkills []string `json:"candidate_skills"`
}

func (a *Analyzer) runLLM(ctx context.Context, st *State) error {
	prompt := a.buildPrompt(st)
	raw, err := llm_client.GenerateJSON(ctx, prompt, "", nil)
	if err != nil {
		return fmt.Errorf("analyze intent: %w", err)
	}

	var res analysisResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return fmt.Errorf("parse analysis JSON: %v\nRaw Response: %s", err, raw)
	}

	st.Intent = strings.TrimSpace(res.Intent)
	st.Complexity = normalizeComplexity(res.Complexity)
	st.RequiresData = res.RequiresData

	// Keep only candidates the registry actually knows.
	st.CandidateSkills = nil
	for _, name := range res.CandidateSkills {
		if a.Registry.GetMetadata(name) != nil {
			st.CandidateSkills = append(st.CandidateSkills, name)
		}
	}
	if st.Intent == "" {
		st.Intent = "analyze"
	}
	if len(st.CandidateSkills) == 0 {
		a.shortlistHeuristic(st)
	}
	return nil
}

func (a *Analyzer) buildPrompt(st *State) string {
	var sb strings.Builder
	sb.WriteString("You are an expert request analyzer for an analytics copilot. Respond ONLY with this JSON (no extra text):\n")
	sb.WriteString("{\"intent\": \"<short verb phrase>\", \"complexity\": \"simple|moderate|complex\", \"requires_data\": <bool>, \"candidate_skills\": [<skill names>]}\n\n")
	sb.WriteString(a.Registry.PromptPart())
	sb.WriteString("\nRules:\n")
	sb.WriteString("- complexity reflects how many skills the request needs: one -> simple, two or three -> moderate, more or open-ended -> complex.\n")
	sb.WriteString("- requires_data is true if the request only makes sense against row data.\n")
	sb.WriteString("- candidate_skills must come from the list above, best match first.\n\n")
	if st.DataContext != nil {
		sb.WriteString(fmt.Sprintf("Data context: %d rows, metric columns [%s]\n",
			st.DataContext.RowCount, strings.Join(st.DataContext.MetricColumns, ", ")))
	}
	sb.WriteString(fmt.Sprintf("User message: %q\nAssistant JSON response: ", st.Message))
	return sb.String()
}

var intentKeywords = []struct {
	keywords []string
	intent   string
	skill    string
}{
	{[]string{"evaluate", "score", "grade", "assess"}, "evaluate", "evaluate"},
	{[]string{"compare", "versus", " vs ", "against", "a/b"}, "compare", "compare"},
	{[]string{"find", "search", "filter", "lookup", "which rows", "where"}, "query", "query"},
	{[]string{"summarize", "summary", "tl;dr", "overview", "describe"}, "summarize", "summarize"},
	{[]string{"analyze", "statistics", "distribution", "percentile", "stats", "trend"}, "analyze", "analyze"},
}

func (a *Analyzer) runHeuristic(st *State) {
	a.shortlistHeuristic(st)

	switch {
	case len(st.CandidateSkills) <= 1:
		st.Complexity = ComplexitySimple
	case len(st.CandidateSkills) <= 3:
		st.Complexity = ComplexityModerate
	default:
		st.Complexity = ComplexityComplex
	}
	if st.Intent == "" {
		st.Intent = "analyze"
	}
	st.RequiresData = st.Intent != "summarize" || len(st.Rows) > 0
}

func (a *Analyzer) shortlistHeuristic(st *State) {
	msg := " " + strings.ToLower(st.Message) + " "
	seen := map[string]struct{}{}
	st.CandidateSkills = nil

	for _, rule := range intentKeywords {
		for _, kw := range rule.keywords {
			if !strings.Contains(msg, kw) {
				continue
			}
			if st.Intent == "" {
				st.Intent = rule.intent
			}
			if _, dup := seen[rule.skill]; dup {
				break
			}
			if a.Registry.GetMetadata(rule.skill) != nil {
				seen[rule.skill] = struct{}{}
				st.CandidateSkills = append(st.CandidateSkills, rule.skill)
			}
			break
		}
	}

	// Fall back to a registry text search, then to analyze.
	if len(st.CandidateSkills) == 0 {
		for _, meta := range a.Registry.FindByQuery(st.Message) {
			st.CandidateSkills = append(st.CandidateSkills, meta.Name)
		}
	}
	if len(st.CandidateSkills) == 0 && a.Registry.GetMetadata("analyze") != nil {
		st.CandidateSkills = []string{"analyze"}
	}
}

func normalizeComplexity(raw string) Complexity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "simple":
		return ComplexitySimple
	case "complex":
		return ComplexityComplex
	default:
		return ComplexityModerate
	}
}
