package builtin

import (
	"context"
	"fmt"

	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

type evaluateSkill struct {
	meta *skills.Metadata
}

func NewEvaluate() skills.Skill {
	return &evaluateSkill{meta: &skills.Metadata{
		Name:        "evaluate",
		Description: "Scores an evaluation dataset: per-metric mean and spread over a sample of rows.",
		Version:     "1.0.0",
		Parameters: []skills.Parameter{
			{Name: "sample_size", Type: "int", Description: "How many rows to score", Required: true, Default: 100},
			{Name: "metric", Type: "string", Description: "Restrict scoring to one metric column", Required: false},
		},
		Tags:    []string{"evaluation", "metrics", "scoring"},
		Enabled: true,
	}}
}

func (s *evaluateSkill) Metadata() *skills.Metadata { return s.meta }

func (s *evaluateSkill) Execute(ctx context.Context, in *skills.Input, stream *thought.Stream) (map[string]any, error) {
	stream.Emit(thought.New(thought.TypeToolUse, "Evaluating dataset sample").WithSkill(s.meta.Name))

	if len(in.Rows) == 0 {
		stream.Emit(thought.New(thought.TypeObservation, "No rows to evaluate").WithSkill(s.meta.Name))
		return skills.NoData(s.meta.Name), nil
	}

	sampleSize, err := skills.GetIntParam(in.Params, "sample_size")
	if err != nil {
		return nil, err
	}
	rows := in.Rows
	if sampleSize > 0 && sampleSize < len(rows) {
		rows = rows[:sampleSize]
	}

	cols := metricColumns(in)
	if m, _ := in.Params["metric"].(string); m != "" {
		cols = []string{m}
	}
	if len(cols) == 0 {
		stream.Emit(thought.New(thought.TypeObservation, "No metric columns found").WithSkill(s.meta.Name))
		return skills.Failure("no metric columns", "could not find any numeric column to score"), nil
	}

	scores := make(map[string]any, len(cols))
	for _, col := range cols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vals := numericColumn(rows, col)
		scores[col] = map[string]any{
			"count": len(vals),
			"mean":  mean(vals),
			"std":   stddev(vals),
		}
	}

	stream.Emit(thought.New(thought.TypeSuccess,
		fmt.Sprintf("Evaluated %d rows across %d metric(s)", len(rows), len(cols))).WithSkill(s.meta.Name))

	return map[string]any{
		"success":      true,
		"sampled_rows": len(rows),
		"metrics":      scores,
		"message":      fmt.Sprintf("evaluated %d metric column(s) over %d rows", len(cols), len(rows)),
	}, nil
}
