package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"evalpilot/internal/logger"
)

const (
	metadataFile     = "metadata.json"
	instructionsFile = "SKILL.md"
)

// discoverDir enumerates subdirectories of the skills directory and loads a
// Metadata from each. A bad or missing metadata.json skips that one skill
// with a warning; the pass itself never fails.
func discoverDir(dir string) map[string]*Metadata {
	out := make(map[string]*Metadata)
	if strings.TrimSpace(dir) == "" {
		return out
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Log.Warnf("Skill discovery: cannot read %s: %v", dir, err)
		return out
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := loadSkillDir(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Log.Warnf("Skill discovery: skipping %s: %v", e.Name(), err)
			continue
		}
		if prev, dup := out[meta.Name]; dup {
			logger.Log.Warnf("Skill discovery: duplicate name %q, keeping first (%s)", meta.Name, prev.Version)
			continue
		}
		out[meta.Name] = meta
	}
	return out
}

func loadSkillDir(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	if strings.TrimSpace(meta.Name) == "" {
		return nil, fmt.Errorf("metadata.json has no name")
	}

	// Optional long-form prose next to the metadata.
	if text, err := os.ReadFile(filepath.Join(dir, instructionsFile)); err == nil {
		meta.Instructions = strings.TrimSpace(string(text))
	}

	return &meta, nil
}
