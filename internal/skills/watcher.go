package skills

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"evalpilot/internal/logger"
)

// Watch re-reads a skill directory whenever its metadata.json or SKILL.md
// changes, refreshing the registry through the writer path. Instructions stay
// editable on disk while the server runs; executable behavior never changes.
// Blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, reg *Registry) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	// Watch existing skill subdirectories too; fsnotify is not recursive.
	if entries, err := filepath.Glob(filepath.Join(dir, "*")); err == nil {
		for _, e := range entries {
			_ = w.Add(e)
		}
	}

	logger.Log.Infof("Watching skill directory %s", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(ev.Name)
			if base != metadataFile && base != instructionsFile {
				// A new skill folder appeared: start watching inside it.
				if ev.Op&fsnotify.Create != 0 {
					_ = w.Add(ev.Name)
				}
				continue
			}
			skillDir := filepath.Dir(ev.Name)
			meta, err := loadSkillDir(skillDir)
			if err != nil {
				logger.Log.Warnf("Skill reload: skipping %s: %v", filepath.Base(skillDir), err)
				continue
			}
			if err := reg.RegisterMetadata(meta); err != nil {
				logger.Log.Warnf("Skill reload: %v", err)
				continue
			}
			logger.Log.Infof("Skill reload: refreshed %q from %s", meta.Name, strings.TrimPrefix(ev.Name, dir))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Log.Warnf("Skill watcher: %v", err)
		}
	}
}
