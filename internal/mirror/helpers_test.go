package mirror

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// oldTime is stamped on fixture files so rewrites are visible through ModTime.
var oldTime = time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)

// writeTree creates files and directories under root. Keys ending in "/" are
// directories; every other key is a file with the given content.
func writeTree(t *testing.T, fs afero.Fs, root string, tree map[string]string) {
	t.Helper()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", root, err)
	}
	for rel, content := range tree {
		path := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(rel, "/")))
		if strings.HasSuffix(rel, "/") {
			if err := fs.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("failed to create directory %s: %v", path, err)
			}
			continue
		}
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		if err := fs.Chtimes(path, oldTime, oldTime); err != nil {
			t.Fatalf("failed to set times on %s: %v", path, err)
		}
	}
}

// readTree returns the tree under root in the same shape writeTree accepts.
func readTree(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			tree[rel+"/"] = ""
			return nil
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		tree[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", root, err)
	}
	return tree
}

// recordingSink collects appended messages.
type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) Append(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

func (s *recordingSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// errNotEmpty is what faultyFs.Remove returns for a directory with children.
var errNotEmpty = errors.New("directory not empty")

// faultyFs wraps an afero.Fs, failing selected operations on selected paths and
// recording every mutating call. Remove refuses non-empty directories like the
// OS does, which afero.MemMapFs alone does not.
type faultyFs struct {
	afero.Fs

	failRemove map[string]error
	failWrite  map[string]error
	failOpen   map[string]error
	failMkdir  map[string]error

	mu      sync.Mutex
	removed []string
	written []string
}

func newFaultyFs(base afero.Fs) *faultyFs {
	return &faultyFs{
		Fs:         base,
		failRemove: map[string]error{},
		failWrite:  map[string]error{},
		failOpen:   map[string]error{},
		failMkdir:  map[string]error{},
	}
}

func (f *faultyFs) Remove(name string) error {
	f.mu.Lock()
	f.removed = append(f.removed, name)
	f.mu.Unlock()
	if err, ok := f.failRemove[name]; ok {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	if info, err := f.Fs.Stat(name); err == nil && info.IsDir() {
		children, err := afero.ReadDir(f.Fs, name)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return &os.PathError{Op: "remove", Path: name, Err: errNotEmpty}
		}
	}
	return f.Fs.Remove(name)
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		f.mu.Lock()
		f.written = append(f.written, name)
		f.mu.Unlock()
		if err, ok := f.failWrite[name]; ok {
			return nil, &os.PathError{Op: "open", Path: name, Err: err}
		}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	if err, ok := f.failOpen[name]; ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}

func (f *faultyFs) Mkdir(name string, perm os.FileMode) error {
	if err, ok := f.failMkdir[name]; ok {
		return &os.PathError{Op: "mkdir", Path: name, Err: err}
	}
	return f.Fs.Mkdir(name, perm)
}

func (f *faultyFs) touched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range append(append([]string(nil), f.removed...), f.written...) {
		if p == name {
			return true
		}
	}
	return false
}

// matcherFunc adapts a function to Matcher.
type matcherFunc func(relPath string, isDir bool) bool

func (m matcherFunc) Match(relPath string, isDir bool) bool {
	return m(relPath, isDir)
}

// outcomesByPath indexes a result's entries by path.
func outcomesByPath(r *Result) map[string]Outcome {
	out := make(map[string]Outcome, len(r.Entries))
	for _, er := range r.Entries {
		out[er.Path] = er.Outcome
	}
	return out
}
