package thought

import "time"

// Type classifies a single unit of the copilot's intermediate reasoning.
type Type string

const (
	TypeReasoning   Type = "reasoning"
	TypeToolUse     Type = "tool_use"
	TypeObservation Type = "observation"
	TypePlanning    Type = "planning"
	TypeReflection  Type = "reflection"
	TypeDecision    Type = "decision"
	TypeError       Type = "error"
	TypeSuccess     Type = "success"
)

var typeColors = map[Type]string{
	TypeReasoning:   "cyan",
	TypeToolUse:     "yellow",
	TypeObservation: "white",
	TypePlanning:    "blue",
	TypeReflection:  "magenta",
	TypeDecision:    "green",
	TypeError:       "red",
	TypeSuccess:     "green",
}

// Thought is created by a node or skill, pushed to a Stream, and never
// mutated afterwards.
type Thought struct {
	Type      Type           `json:"type"`
	Content   string         `json:"content"`
	Node      string         `json:"node,omitempty"`
	Skill     string         `json:"skill,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Color     string         `json:"color"`
}

func New(t Type, content string) *Thought {
	return &Thought{
		Type:      t,
		Content:   content,
		Timestamp: time.Now(),
		Color:     ColorFor(t),
	}
}

func (t *Thought) WithNode(node string) *Thought {
	t.Node = node
	return t
}

func (t *Thought) WithSkill(skill string) *Thought {
	t.Skill = skill
	return t
}

func (t *Thought) WithMetadata(md map[string]any) *Thought {
	t.Metadata = md
	return t
}

// ColorFor returns the display color for a thought type.
func ColorFor(t Type) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return "white"
}
