package mirror

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Kind is the kind of a directory entry.
type Kind int

const (
	// KindFile is anything that is not a directory.
	KindFile Kind = iota
	// KindDirectory is a directory.
	KindDirectory
)

// String returns a human-readable string for Kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is a name in one directory listing paired with its kind.
type Entry struct {
	Name string
	Kind Kind
}

// Matcher decides whether a path relative to the tree root is excluded from
// synchronization. Paths use forward slashes.
type Matcher interface {
	Match(relPath string, isDir bool) bool
}

// listing is an unordered set of entries keyed by name.
type listing map[string]Entry

// names returns the entry names in lexical order.
func (l listing) names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// list reads one directory level. Symlinks take the kind of their target when
// follow is set; otherwise they are files, so a replica link is never descended into.
// Entries excluded by the matcher are left out.
func (p *pass) list(dir, rel string, follow bool) (listing, error) {
	infos, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		return nil, err
	}

	entries := make(listing, len(infos))
	for _, info := range infos {
		kind := KindFile
		switch {
		case info.IsDir():
			kind = KindDirectory
		case info.Mode()&os.ModeSymlink != 0 && follow:
			if target, err := p.fs.Stat(filepath.Join(dir, info.Name())); err == nil && target.IsDir() {
				kind = KindDirectory
			}
		}
		if p.excluded(rel, info.Name(), kind) {
			continue
		}
		entries[info.Name()] = Entry{Name: info.Name(), Kind: kind}
	}
	return entries, nil
}

func (p *pass) excluded(rel, name string, kind Kind) bool {
	if p.opts.Ignore == nil {
		return false
	}
	return p.opts.Ignore.Match(joinRel(rel, name), kind == KindDirectory)
}

// joinRel joins a slash-separated relative path with a child name.
func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return path.Join(filepath.ToSlash(rel), name)
}

// lstat stats name without following a trailing symlink when the filesystem supports it.
func lstat(fs afero.Fs, name string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return fs.Stat(name)
}
