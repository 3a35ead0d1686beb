package builtin

import (
	"context"
	"fmt"
	"math"

	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

type compareSkill struct {
	meta *skills.Metadata
}

func NewCompare() skills.Skill {
	return &compareSkill{meta: &skills.Metadata{
		Name:        "compare",
		Description: "Compares two metric columns head to head: means, delta and relative change.",
		Version:     "1.0.0",
		Parameters: []skills.Parameter{
			{Name: "column_a", Type: "string", Description: "Baseline metric column", Required: false},
			{Name: "column_b", Type: "string", Description: "Candidate metric column", Required: false},
		},
		Tags:    []string{"comparison", "metrics", "ab"},
		Enabled: true,
	}}
}

func (s *compareSkill) Metadata() *skills.Metadata { return s.meta }

func (s *compareSkill) Execute(ctx context.Context, in *skills.Input, stream *thought.Stream) (map[string]any, error) {
	stream.Emit(thought.New(thought.TypeToolUse, "Comparing metric columns").WithSkill(s.meta.Name))

	if len(in.Rows) == 0 {
		stream.Emit(thought.New(thought.TypeObservation, "No rows to compare").WithSkill(s.meta.Name))
		return skills.NoData(s.meta.Name), nil
	}

	colA, _ := in.Params["column_a"].(string)
	colB, _ := in.Params["column_b"].(string)
	if colA == "" || colB == "" {
		cols := metricColumns(in)
		if len(cols) < 2 {
			return skills.Failure("not enough metric columns",
				"compare needs two metric columns, found fewer"), nil
		}
		if colA == "" {
			colA = cols[0]
		}
		if colB == "" {
			colB = cols[1]
		}
	}

	valsA := numericColumn(in.Rows, colA)
	valsB := numericColumn(in.Rows, colB)
	if len(valsA) == 0 || len(valsB) == 0 {
		return skills.Failure("empty column",
			fmt.Sprintf("columns %q and %q must both hold numeric values", colA, colB)), nil
	}

	meanA, meanB := mean(valsA), mean(valsB)
	delta := meanB - meanA
	var pct float64
	if math.Abs(meanA) > 1e-12 {
		pct = delta / math.Abs(meanA) * 100
	}
	winner := colA
	if meanB > meanA {
		winner = colB
	}

	stream.Emit(thought.New(thought.TypeSuccess,
		fmt.Sprintf("Compared %s (%.4f) vs %s (%.4f)", colA, meanA, colB, meanB)).WithSkill(s.meta.Name))

	return map[string]any{
		"success":    true,
		"column_a":   colA,
		"column_b":   colB,
		"mean_a":     meanA,
		"mean_b":     meanB,
		"delta":      delta,
		"pct_change": pct,
		"winner":     winner,
		"message":    fmt.Sprintf("%s leads by %.4f (%.2f%%)", winner, math.Abs(delta), math.Abs(pct)),
	}, nil
}
