package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalpilot/internal/thought"
)

type fakeSkill struct {
	meta *Metadata
}

func (f *fakeSkill) Metadata() *Metadata { return f.meta }

func (f *fakeSkill) Execute(context.Context, *Input, *thought.Stream) (map[string]any, error) {
	return map[string]any{"success": true}, nil
}

func newFake(name, description string, tags ...string) *fakeSkill {
	return &fakeSkill{meta: &Metadata{
		Name:        name,
		Description: description,
		Version:     "1.0.0",
		Tags:        tags,
		Enabled:     true,
	}}
}

func writeSkillDir(t *testing.T, root, dirName, metadata, instructions string) {
	t.Helper()
	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadata), 0o644))
	if instructions != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(instructions), 0o644))
	}
}

func TestDiscoverySkipsMalformedDirs(t *testing.T) {
	root := t.TempDir()
	writeSkillDir(t, root, "good",
		`{"name": "good", "description": "a valid skill", "version": "1.0.0", "enabled": true}`,
		"# good\nUse this one.")
	writeSkillDir(t, root, "broken", `{"name": "broken",`, "")
	writeSkillDir(t, root, "nameless", `{"description": "no name here"}`, "")
	// A directory with no metadata.json at all.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	reg := NewRegistry()
	require.NoError(t, reg.Initialize(root, nil))

	list := reg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].Name)
	assert.Equal(t, "# good\nUse this one.", list[0].Instructions)
}

func TestDiscoveryMissingDirIsNotFatal(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Initialize(filepath.Join(t.TempDir(), "does-not-exist"), nil))
	assert.Empty(t, reg.List())
}

func TestBuiltinWinsCapabilityFilesystemWinsInstructions(t *testing.T) {
	root := t.TempDir()
	writeSkillDir(t, root, "evaluate",
		`{"name": "evaluate", "description": "disk copy", "version": "0.9.0", "enabled": true}`,
		"Prose from disk.")

	builtin := newFake("evaluate", "built-in evaluator", "stats")
	reg := NewRegistry()
	require.NoError(t, reg.Initialize(root, []Skill{builtin}))

	// The executable entry is the built-in.
	require.NotNil(t, reg.Get("evaluate"))
	meta := reg.GetMetadata("evaluate")
	require.NotNil(t, meta)
	assert.Equal(t, "built-in evaluator", meta.Description)
	// But the on-disk prose is carried over.
	assert.Equal(t, "Prose from disk.", meta.Instructions)
}

func TestInitializeIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Initialize(t.TempDir(), []Skill{newFake("one", "first")}))
	// Second call with different built-ins changes nothing.
	require.NoError(t, reg.Initialize(t.TempDir(), []Skill{newFake("two", "second")}))

	assert.NotNil(t, reg.Get("one"))
	assert.Nil(t, reg.Get("two"))
}

func TestMetadataOnlyEntriesAreNotExecutable(t *testing.T) {
	root := t.TempDir()
	writeSkillDir(t, root, "prose-only",
		`{"name": "prose-only", "description": "described, not implemented", "enabled": true}`, "")

	reg := NewRegistry()
	require.NoError(t, reg.Initialize(root, nil))

	assert.Nil(t, reg.Get("prose-only"))
	assert.NotNil(t, reg.GetMetadata("prose-only"))
}

func TestRegisterMetadataRefreshesInstructionsOnly(t *testing.T) {
	reg := NewRegistry()
	builtin := newFake("analyze", "built-in analyzer")
	require.NoError(t, reg.Initialize(t.TempDir(), []Skill{builtin}))

	require.NoError(t, reg.RegisterMetadata(&Metadata{
		Name:         "analyze",
		Description:  "disk says otherwise",
		Instructions: "Updated prose.",
	}))

	meta := reg.GetMetadata("analyze")
	assert.Equal(t, "built-in analyzer", meta.Description)
	assert.Equal(t, "Updated prose.", meta.Instructions)
	assert.NotNil(t, reg.Get("analyze"))
}

func TestInstructionsRefreshDoesNotDisturbReaders(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Initialize(t.TempDir(), []Skill{newFake("analyze", "built-in analyzer")}))

	// Catalog readers marshal metadata after the registry lock is released;
	// an instructions refresh must never touch what they are holding.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = reg.RegisterMetadata(&Metadata{Name: "analyze", Instructions: fmt.Sprintf("revision %d", i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			data, err := json.Marshal(reg.List())
			assert.NoError(t, err)
			assert.NotEmpty(t, data)
		}
	}()
	wg.Wait()

	meta := reg.GetMetadata("analyze")
	require.NotNil(t, meta)
	assert.Equal(t, "revision 199", meta.Instructions)
	assert.Equal(t, "built-in analyzer", meta.Description)
	assert.NotNil(t, reg.Get("analyze"))
}

func TestFindByTagAndQuery(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Initialize(t.TempDir(), []Skill{
		newFake("evaluate", "run model evaluation", "stats", "eval"),
		newFake("compare", "compare two metric columns", "stats"),
		newFake("query", "filter rows by text"),
	}))
	disabled := newFake("hidden", "disabled evaluation helper", "eval")
	disabled.meta.Enabled = false
	require.NoError(t, reg.Register(disabled))

	byTag := reg.FindByTag("STATS")
	require.Len(t, byTag, 2)
	assert.Equal(t, "compare", byTag[0].Name)
	assert.Equal(t, "evaluate", byTag[1].Name)

	byQuery := reg.FindByQuery("eval")
	names := make([]string, 0, len(byQuery))
	for _, m := range byQuery {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"evaluate"}, names)

	assert.Empty(t, reg.FindByQuery(""))
}

func TestPromptPartMarksRequiredParams(t *testing.T) {
	sk := newFake("evaluate", "run model evaluation")
	sk.meta.Parameters = []Parameter{
		{Name: "sample_size", Required: true, Default: 100},
		{Name: "metric"},
	}
	reg := NewRegistry()
	require.NoError(t, reg.Initialize(t.TempDir(), []Skill{sk}))

	part := reg.PromptPart()
	assert.Contains(t, part, "AVAILABLE SKILLS & PARAMETERS:")
	assert.Contains(t, part, "`evaluate`")
	assert.Contains(t, part, "[sample_size*, metric]")
}
