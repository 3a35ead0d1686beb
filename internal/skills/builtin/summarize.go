package builtin

import (
	"context"
	"fmt"
	"strings"

	"evalpilot/internal/llm_client"
	"evalpilot/internal/logger"
	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

type summarizeSkill struct {
	meta *skills.Metadata
}

func NewSummarize() skills.Skill {
	return &summarizeSkill{meta: &skills.Metadata{
		Name:        "summarize",
		Description: "Writes a short natural-language summary of the dataset shape and what the request asked for.",
		Version:     "1.0.0",
		Parameters: []skills.Parameter{
			{Name: "focus", Type: "string", Description: "Aspect to emphasize", Required: false},
		},
		Tags:    []string{"summary", "report", "llm"},
		Enabled: true,
	}}
}

func (s *summarizeSkill) Metadata() *skills.Metadata { return s.meta }

func (s *summarizeSkill) Execute(ctx context.Context, in *skills.Input, stream *thought.Stream) (map[string]any, error) {
	stream.Emit(thought.New(thought.TypeToolUse, "Summarizing dataset").WithSkill(s.meta.Name))

	shape := describeShape(in)
	focus, _ := in.Params["focus"].(string)

	text := ""
	if llm_client.Available() {
		prompt := buildSummaryPrompt(in.Message, shape, focus)
		out, err := llm_client.Generate(ctx, prompt, "")
		if err != nil {
			// Degraded mode, not a failure: fall through to the template.
			logger.Log.Warnf("summarize: llm unavailable, using template: %v", err)
		} else {
			text = strings.TrimSpace(out)
		}
	}
	if text == "" {
		text = templateSummary(in, shape, focus)
	}

	stream.Emit(thought.New(thought.TypeSuccess, "Summary ready").WithSkill(s.meta.Name))

	return map[string]any{
		"success": true,
		"summary": text,
		"message": "summary generated",
	}, nil
}

func describeShape(in *skills.Input) string {
	if in.DataContext != nil {
		return fmt.Sprintf("%d rows, columns [%s], metric columns [%s]",
			max(in.DataContext.RowCount, len(in.Rows)),
			strings.Join(in.DataContext.Columns, ", "),
			strings.Join(in.DataContext.MetricColumns, ", "))
	}
	return fmt.Sprintf("%d rows", len(in.Rows))
}

func buildSummaryPrompt(message, shape, focus string) string {
	var sb strings.Builder
	sb.WriteString("You are an analytics copilot. Write a concise 2-3 sentence summary for the user.\n")
	sb.WriteString(fmt.Sprintf("User request: %q\n", message))
	sb.WriteString(fmt.Sprintf("Dataset shape: %s\n", shape))
	if focus != "" {
		sb.WriteString(fmt.Sprintf("Emphasize: %s\n", focus))
	}
	sb.WriteString("Do not invent numbers that were not provided.")
	return sb.String()
}

func templateSummary(in *skills.Input, shape, focus string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Dataset: %s.", shape))
	if len(in.Rows) == 0 {
		sb.WriteString(" No row data was provided, so only the declared shape is known.")
	}
	if focus != "" {
		sb.WriteString(fmt.Sprintf(" Requested focus: %s.", focus))
	}
	return sb.String()
}
