package skills

import (
	"context"
	"fmt"

	"evalpilot/internal/thought"
)

// DataContext carries schema/shape hints for the rows a request brought along.
type DataContext struct {
	Format        string   `json:"format,omitempty"`
	RowCount      int      `json:"row_count,omitempty"`
	Columns       []string `json:"columns,omitempty"`
	MetricColumns []string `json:"metric_columns,omitempty"`
}

type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

type Metadata struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Version      string      `json:"version"`
	Parameters   []Parameter `json:"parameters"`
	Tags         []string    `json:"tags"`
	Enabled      bool        `json:"enabled"`
	Instructions string      `json:"instructions,omitempty"`
}

// Input is everything a skill gets to work with for one invocation.
type Input struct {
	Message     string
	Rows        []map[string]any
	DataContext *DataContext
	Params      map[string]any
}

// Skill is a named, independently pluggable capability. Execute returns a
// structured result map; absence of data is a normal outcome reported as
// {"success": false, "error": "no data"}, not an error return.
type Skill interface {
	Metadata() *Metadata
	Execute(ctx context.Context, in *Input, stream *thought.Stream) (map[string]any, error)
}

// MissingParamError is the one validation failure allowed to surface loudly:
// a required parameter with no default and no caller-supplied value.
type MissingParamError struct {
	Skill string
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("skill '%s' is missing required parameter: '%s'", e.Skill, e.Param)
}

// ValidateParams fills declared defaults into a copy of the supplied params.
func ValidateParams(meta *Metadata, supplied map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(supplied)+len(meta.Parameters))
	for k, v := range supplied {
		out[k] = v
	}
	for _, p := range meta.Parameters {
		if _, ok := out[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			out[p.Name] = p.Default
			continue
		}
		if p.Required {
			return nil, &MissingParamError{Skill: meta.Name, Param: p.Name}
		}
	}
	return out, nil
}

// Failure builds the conventional unsuccessful result payload.
func Failure(errText, message string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   errText,
		"message": message,
	}
}

// NoData is the conventional result for a skill invoked without rows.
func NoData(skill string) map[string]any {
	return Failure("no data", fmt.Sprintf("skill '%s' needs row data, but none was provided", skill))
}
