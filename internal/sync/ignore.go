package sync

import (
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Paths matching any of these in any segment are never pushed. The
// lines are kept lowercase; matching lowercases the candidate path so
// the policy is case insensitive.
var defaultIgnoreLines = []string{
	// version control metadata
	".git",
	".svn",
	".hg",
	// dependency caches
	"node_modules",
	"__pycache__",
	".venv",
	"venv",
	"bower_components",
	// OS artifacts
	".ds_store",
	"thumbs.db",
	"desktop.ini",
	// editor state
	".idea",
	".vscode",
}

// IgnoreList is the traversal filter applied uniformly to live
// directories and static snapshots.
type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

// NewIgnoreList compiles the default policy plus any extra lines.
func NewIgnoreList(extra ...string) *IgnoreList {
	lines := make([]string, 0, len(defaultIgnoreLines)+len(extra))
	lines = append(lines, defaultIgnoreLines...)
	for _, line := range extra {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, strings.ToLower(line))
		}
	}
	return &IgnoreList{ignore: gitignore.CompileIgnoreLines(lines...)}
}

// ShouldIgnore reports whether the relative path is excluded.
func (l *IgnoreList) ShouldIgnore(relPath string) bool {
	return l.ignore.MatchesPath(strings.ToLower(relPath))
}
