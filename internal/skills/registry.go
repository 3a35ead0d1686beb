package skills

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"evalpilot/internal/logger"
)

type entry struct {
	meta  *Metadata
	skill Skill // nil for filesystem-only, metadata-described entries
}

// Registry is the catalog of what the copilot can do. Constructed explicitly
// at startup and passed by reference into request-handling code.
type Registry struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	initialized bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Initialize performs filesystem discovery followed by built-in registration.
// Idempotent: a repeated call is a no-op. Built-ins win on capability;
// filesystem wins on instructions text when both define the same name.
func (r *Registry) Initialize(skillsDir string, builtins []Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	discovered := discoverDir(skillsDir)
	for name, meta := range discovered {
		r.entries[name] = &entry{meta: meta}
	}

	for _, s := range builtins {
		meta := s.Metadata()
		if meta == nil || meta.Name == "" {
			return fmt.Errorf("built-in skill with empty metadata")
		}
		if prev, ok := r.entries[meta.Name]; ok && strings.TrimSpace(prev.meta.Instructions) != "" {
			meta.Instructions = prev.meta.Instructions
		}
		r.entries[meta.Name] = &entry{meta: meta, skill: s}
	}

	r.initialized = true
	logger.Log.Infof("Skill registry initialized: %d skills (%d discovered on disk)",
		len(r.entries), len(discovered))
	return nil
}

// Get returns the executable skill, or nil when unknown or metadata-only.
func (r *Registry) Get(name string) Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.skill
	}
	return nil
}

// GetMetadata returns the metadata for a skill, or nil when unknown.
func (r *Registry) GetMetadata(name string) *Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.meta
	}
	return nil
}

// Register adds or replaces a live catalog entry.
func (r *Registry) Register(s Skill) error {
	meta := s.Metadata()
	if meta == nil || meta.Name == "" {
		return fmt.Errorf("cannot register skill with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[meta.Name] = &entry{meta: meta, skill: s}
	return nil
}

// RegisterMetadata adds or replaces a metadata-only entry (no behavior).
// When the name already has an executable skill, only the instructions text
// is refreshed; code stays the authoring surface for behavior. The refresh
// swaps in a fresh Metadata value rather than mutating the shared one:
// List hands out these pointers and callers read them after RUnlock.
func (r *Registry) RegisterMetadata(meta *Metadata) error {
	if meta == nil || meta.Name == "" {
		return fmt.Errorf("cannot register metadata with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.entries[meta.Name]; ok && prev.skill != nil {
		if strings.TrimSpace(meta.Instructions) != "" {
			refreshed := *prev.meta
			refreshed.Instructions = meta.Instructions
			r.entries[meta.Name] = &entry{meta: &refreshed, skill: prev.skill}
		}
		return nil
	}
	r.entries[meta.Name] = &entry{meta: meta}
	return nil
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns all metadata sorted by name.
func (r *Registry) List() []*Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByTag returns enabled skills carrying the tag (case-insensitive).
func (r *Registry) FindByTag(tag string) []*Metadata {
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []*Metadata
	for _, meta := range r.List() {
		if !meta.Enabled {
			continue
		}
		for _, t := range meta.Tags {
			if strings.ToLower(t) == tag {
				out = append(out, meta)
				break
			}
		}
	}
	return out
}

// FindByQuery does a case-insensitive substring scan over name, description
// and tags of enabled skills.
func (r *Registry) FindByQuery(query string) []*Metadata {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []*Metadata
	for _, meta := range r.List() {
		if !meta.Enabled {
			continue
		}
		if strings.Contains(strings.ToLower(meta.Name), q) ||
			strings.Contains(strings.ToLower(meta.Description), q) {
			out = append(out, meta)
			continue
		}
		for _, t := range meta.Tags {
			if strings.Contains(strings.ToLower(t), q) {
				out = append(out, meta)
				break
			}
		}
	}
	return out
}

// PromptPart renders the enabled catalog for the planner prompt.
func (r *Registry) PromptPart() string {
	var sb strings.Builder
	sb.WriteString("AVAILABLE SKILLS & PARAMETERS:\n")
	for _, meta := range r.List() {
		if !meta.Enabled {
			continue
		}
		var params []string
		for _, p := range meta.Parameters {
			if p.Required {
				params = append(params, p.Name+"*")
			} else {
				params = append(params, p.Name)
			}
		}
		sb.WriteString(fmt.Sprintf("- `%s`: %s Parameters: `[%s]`.\n",
			meta.Name, meta.Description, strings.Join(params, ", ")))
	}
	return sb.String()
}
