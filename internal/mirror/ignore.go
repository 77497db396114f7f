package mirror

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is an optional gitignore-style rules file at the source
// root. Matching paths are excluded on both sides: never copied to the
// replica, never deleted from it.
const IgnoreFileName = ".driftsyncignore"

var defaultIgnoreLines = []string{
	IgnoreFileName,
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*.swo",
	"*.tmp",
}

type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

// NewIgnoreList compiles the default rules plus any found in the source
// root's ignore file.
func NewIgnoreList(sourceDir string) *IgnoreList {
	lines := append([]string{}, defaultIgnoreLines...)

	ignoreFile := filepath.Join(sourceDir, IgnoreFileName)
	if data, err := os.ReadFile(ignoreFile); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
		slog.Info("loaded ignore rules", "path", ignoreFile)
	}

	return &IgnoreList{ignore: gitignore.CompileIgnoreLines(lines...)}
}

// Match reports whether relPath is excluded. Directory entries must pass
// isDir=true so directory-only rules like "secrets/" match the directory
// itself, not just its contents.
func (l *IgnoreList) Match(relPath string, isDir bool) bool {
	if isDir {
		relPath += "/"
	}
	return l.ignore.MatchesPath(relPath)
}
