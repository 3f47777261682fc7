// Package ignore compiles gitignore-style exclude patterns for synchronization.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"github.com/klauern/dirsync/internal/logging"
)

// FileName is the per-tree ignore file read from the source root.
const FileName = ".dirsyncignore"

// List matches slash-separated paths relative to a tree root.
type List struct {
	patterns []string
	ignore   *gitignore.GitIgnore
}

// New compiles patterns. Blank lines and comments are dropped.
func New(patterns ...string) *List {
	var kept []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		kept = append(kept, p)
	}
	return &List{
		patterns: kept,
		ignore:   gitignore.CompileIgnoreLines(kept...),
	}
}

// Load compiles extra together with the rules found in root's ignore file, if any.
func Load(fsys afero.Fs, root string, extra ...string) (*List, error) {
	lines := append([]string(nil), extra...)
	path := filepath.Join(root, FileName)

	f, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(lines...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rules := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
			rules++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file %q: %w", path, err)
	}

	logging.Debug("loaded ignore file", logging.Path(path), logging.Count(rules))
	return New(lines...), nil
}

// Match reports whether relPath is excluded. Directories are matched with a
// trailing slash so directory-only patterns such as "build/" apply to them.
func (l *List) Match(relPath string, isDir bool) bool {
	if l == nil || len(l.patterns) == 0 {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if isDir && !strings.HasSuffix(relPath, "/") {
		relPath += "/"
	}
	return l.ignore.MatchesPath(relPath)
}

// Patterns returns the compiled patterns in order.
func (l *List) Patterns() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.patterns...)
}

// Empty reports whether the list has no patterns.
func (l *List) Empty() bool {
	return l == nil || len(l.patterns) == 0
}
