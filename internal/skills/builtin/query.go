package builtin

import (
	"context"
	"fmt"
	"strings"

	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

const queryMaxMatches = 50

type querySkill struct {
	meta *skills.Metadata
}

func NewQuery() skills.Skill {
	return &querySkill{meta: &skills.Metadata{
		Name:        "query",
		Description: "Filters rows by a case-insensitive substring match over all text fields.",
		Version:     "1.0.0",
		Parameters: []skills.Parameter{
			{Name: "query", Type: "string", Description: "Text to match", Required: true},
			{Name: "column", Type: "string", Description: "Restrict the match to one column", Required: false},
		},
		Tags:    []string{"query", "filter", "search"},
		Enabled: true,
	}}
}

func (s *querySkill) Metadata() *skills.Metadata { return s.meta }

func (s *querySkill) Execute(ctx context.Context, in *skills.Input, stream *thought.Stream) (map[string]any, error) {
	q, err := skills.GetStringParam(in.Params, "query")
	if err != nil {
		return nil, err
	}
	stream.Emit(thought.New(thought.TypeToolUse, fmt.Sprintf("Querying rows for %q", q)).WithSkill(s.meta.Name))

	if len(in.Rows) == 0 {
		stream.Emit(thought.New(thought.TypeObservation, "No rows to query").WithSkill(s.meta.Name))
		return skills.NoData(s.meta.Name), nil
	}

	column, _ := in.Params["column"].(string)
	needle := strings.ToLower(q)

	var matches []map[string]any
	total := 0
	for _, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rowMatches(row, column, needle) {
			total++
			if len(matches) < queryMaxMatches {
				matches = append(matches, row)
			}
		}
	}

	stream.Emit(thought.New(thought.TypeSuccess,
		fmt.Sprintf("Matched %d of %d rows", total, len(in.Rows))).WithSkill(s.meta.Name))

	return map[string]any{
		"success":   true,
		"query":     q,
		"matched":   total,
		"rows":      matches,
		"truncated": total > len(matches),
		"message":   fmt.Sprintf("%d row(s) matched %q", total, q),
	}, nil
}

func rowMatches(row map[string]any, column, needle string) bool {
	if column != "" {
		s, ok := row[column].(string)
		return ok && strings.Contains(strings.ToLower(s), needle)
	}
	for _, v := range row {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
