package builtin

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

const analyzeConcurrency = 4

type analyzeSkill struct {
	meta *skills.Metadata
}

func NewAnalyze() skills.Skill {
	return &analyzeSkill{meta: &skills.Metadata{
		Name:        "analyze",
		Description: "Full descriptive statistics (count, mean, std, min, max, p50, p95) per metric column.",
		Version:     "1.0.0",
		Parameters: []skills.Parameter{
			{Name: "columns", Type: "string", Description: "Comma-separated columns to analyze (default: all metric columns)", Required: false},
		},
		Tags:    []string{"analysis", "statistics", "metrics"},
		Enabled: true,
	}}
}

func (s *analyzeSkill) Metadata() *skills.Metadata { return s.meta }

func (s *analyzeSkill) Execute(ctx context.Context, in *skills.Input, stream *thought.Stream) (map[string]any, error) {
	stream.Emit(thought.New(thought.TypeToolUse, "Analyzing metric columns").WithSkill(s.meta.Name))

	if len(in.Rows) == 0 {
		stream.Emit(thought.New(thought.TypeObservation, "No rows to analyze").WithSkill(s.meta.Name))
		return skills.NoData(s.meta.Name), nil
	}

	cols := metricColumns(in)
	if raw, _ := in.Params["columns"].(string); raw != "" {
		cols = splitCSV(raw)
	}
	if len(cols) == 0 {
		return skills.Failure("no metric columns", "could not find any numeric column to analyze"), nil
	}

	// Columns are independent; fan out the per-column passes.
	stats := make(map[string]any, len(cols))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyzeConcurrency)

	for _, col := range cols {
		c := col
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vals := numericColumn(in.Rows, c)
			colStats := map[string]any{
				"count": len(vals),
				"mean":  mean(vals),
				"std":   stddev(vals),
				"min":   percentile(vals, 0),
				"max":   percentile(vals, 100),
				"p50":   percentile(vals, 50),
				"p95":   percentile(vals, 95),
			}
			mu.Lock()
			stats[c] = colStats
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stream.Emit(thought.New(thought.TypeSuccess,
		fmt.Sprintf("Analyzed %d column(s) over %d rows", len(cols), len(in.Rows))).WithSkill(s.meta.Name))

	return map[string]any{
		"success": true,
		"rows":    len(in.Rows),
		"columns": cols,
		"stats":   stats,
		"message": fmt.Sprintf("computed statistics for %d column(s)", len(cols)),
	}, nil
}
