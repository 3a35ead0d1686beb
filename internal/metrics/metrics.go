package metrics

import "time"

type StepMetrics struct {
	Step       int       `json:"step"`
	Skill      string    `json:"skill,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Err        string    `json:"err,omitempty"`
}

type IterationMetrics struct {
	Iteration  int           `json:"iteration"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	DurationMs int64         `json:"duration_ms"`
	Quality    float64       `json:"quality"`
	Steps      []StepMetrics `json:"steps"`
}

type RequestMetrics struct {
	SessionID  string             `json:"session_id"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	DurationMs int64              `json:"duration_ms"`
	Succeeded  bool               `json:"succeeded"`
	Iterations []IterationMetrics `json:"iterations"`
}

// Compute derived fields for an iteration.
func (it *IterationMetrics) Finalize() {
	it.DurationMs = it.End.Sub(it.Start).Milliseconds()
}

// Compute derived fields for the whole request.
func (rm *RequestMetrics) Finalize() {
	rm.DurationMs = rm.End.Sub(rm.Start).Milliseconds()
}
