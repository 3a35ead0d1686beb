// Package builtin holds the in-process skill implementations. Filesystem
// skill directories can override their instructions text but not their
// behavior.
package builtin

import "evalpilot/internal/skills"

// All returns one instance of every built-in skill.
func All() []skills.Skill {
	return []skills.Skill{
		NewEvaluate(),
		NewCompare(),
		NewAnalyze(),
		NewQuery(),
		NewSummarize(),
	}
}
