package mirror

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
)

func TestComparator_Identical(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "same content", a: "hello world", b: "hello world", want: true},
		{name: "both empty", a: "", b: "", want: true},
		{name: "same size different bytes", a: "hello", b: "hellO", want: false},
		{name: "different size", a: "hello", b: "hello!", want: false},
		{name: "one empty", a: "", b: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeTree(t, fs, "/cmp", map[string]string{"a": tt.a, "b": tt.b})

			got, err := NewComparator(fs).Identical("/cmp/a", "/cmp/b")
			if err != nil {
				t.Fatalf("Identical() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Identical() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComparator_DifferentSizeIsNotRead(t *testing.T) {
	fs := newFaultyFs(afero.NewMemMapFs())
	writeTree(t, fs, "/cmp", map[string]string{"a": "short", "b": "much longer"})
	fs.failOpen["/cmp/a"] = os.ErrPermission
	fs.failOpen["/cmp/b"] = os.ErrPermission

	got, err := NewComparator(fs).Identical("/cmp/a", "/cmp/b")
	if err != nil {
		t.Fatalf("Identical() error = %v", err)
	}
	if got {
		t.Error("expected files of different size to differ")
	}
}

func TestComparator_Errors(t *testing.T) {
	fs := newFaultyFs(afero.NewMemMapFs())
	writeTree(t, fs, "/cmp", map[string]string{"a": "same", "b": "same", "dir/": ""})
	cmp := NewComparator(fs)

	if _, err := cmp.Identical("/cmp/a", "/cmp/missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist for missing file, got %v", err)
	}
	if _, err := cmp.Identical("/cmp/dir", "/cmp/a"); err == nil {
		t.Error("expected error when comparing a directory")
	}

	fs.failOpen["/cmp/b"] = os.ErrPermission
	if _, err := cmp.Identical("/cmp/a", "/cmp/b"); !errors.Is(err, os.ErrPermission) {
		t.Errorf("expected os.ErrPermission for unreadable file, got %v", err)
	}
}

func TestComparator_Digest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/cmp", map[string]string{"a": "abc", "b": "abc", "c": "abd"})
	cmp := NewComparator(fs)

	a, err := cmp.Digest("/cmp/a")
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	b, _ := cmp.Digest("/cmp/b")
	c, _ := cmp.Digest("/cmp/c")

	if a != b {
		t.Errorf("expected equal digests for equal content, got %x and %x", a, b)
	}
	if a == c {
		t.Errorf("expected different digests for different content, both %x", a)
	}
}

func TestCopyFile_UnreadableSourceLeavesNoDestination(t *testing.T) {
	fs := newFaultyFs(afero.NewMemMapFs())
	writeTree(t, fs, "/cp", map[string]string{"src": "data"})
	fs.failOpen["/cp/src"] = os.ErrPermission

	if _, err := copyFile(fs, "/cp/src", "/cp/dst"); err == nil {
		t.Fatal("expected copyFile to fail")
	}
	if exists, _ := afero.Exists(fs, "/cp/dst"); exists {
		t.Error("expected no destination file after failure")
	}
}

func TestCopyFile_PreservesModeAndTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/cp", map[string]string{"src": "payload"})
	if err := fs.Chmod("/cp/src", 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	n, err := copyFile(fs, "/cp/src", "/cp/dst")
	if err != nil {
		t.Fatalf("copyFile() error = %v", err)
	}
	if n != int64(len("payload")) {
		t.Errorf("copyFile() = %d bytes, want %d", n, len("payload"))
	}

	info, err := fs.Stat("/cp/dst")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if !info.ModTime().Equal(oldTime) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), oldTime)
	}
}
