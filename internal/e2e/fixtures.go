package e2e

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/dirsync/internal/util"
)

// Fixture provides helpers for creating test fixtures in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", baseDir, err)
	}
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// Dir returns the fixture's base directory.
func (f *Fixture) Dir() string {
	return f.baseDir
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)
	util.WriteFile(f.t, fullPath, content)
	return fullPath
}

// WriteTree writes every file of tree below the base directory. Keys ending
// in "/" create empty directories.
func (f *Fixture) WriteTree(tree map[string]string) {
	f.t.Helper()
	util.WriteTree(f.t, f.baseDir, tree)
}

// Tree returns the fixture's contents in the shape WriteTree accepts.
func (f *Fixture) Tree() map[string]string {
	f.t.Helper()
	return util.ReadTree(f.t, f.baseDir)
}

// MkdirAll creates a directory and all parent directories relative to the base.
func (f *Fixture) MkdirAll(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	if err := os.MkdirAll(fullPath, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Lstat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// ReadFile reads and returns the content of a file.
func (f *Fixture) ReadFile(relPath string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	// #nosec G304 - fullPath is constructed from trusted test fixture base and test-provided path
	data, err := os.ReadFile(fullPath)
	if err != nil {
		f.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}

	return string(data)
}

// SourceFixture returns a fixture for the source directory of this test.
func (h *Harness) SourceFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, filepath.Join(h.rootDir, "source"))
}

// ReplicaFixture returns a fixture for the replica directory of this test.
func (h *Harness) ReplicaFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, filepath.Join(h.rootDir, "replica"))
}

// TempFixture creates a fixture helper for a new temporary directory.
func (h *Harness) TempFixture() *Fixture {
	h.t.Helper()
	return NewFixture(h.t, h.t.TempDir())
}
