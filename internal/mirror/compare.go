package mirror

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// Comparator decides whether two files have identical content.
//
// Content is digested with xxHash64, which is fast but not collision resistant.
type Comparator struct {
	fs afero.Fs
}

// NewComparator returns a Comparator reading through fs.
func NewComparator(fs afero.Fs) *Comparator {
	return &Comparator{fs: fs}
}

// Identical returns true iff fileA and fileB have the same content digest.
// Files of different size are reported different without being read.
func (c *Comparator) Identical(fileA, fileB string) (bool, error) {
	infoA, err := c.fs.Stat(fileA)
	if err != nil {
		return false, fmt.Errorf("failed to stat %q: %w", fileA, err)
	}
	infoB, err := c.fs.Stat(fileB)
	if err != nil {
		return false, fmt.Errorf("failed to stat %q: %w", fileB, err)
	}
	if infoA.IsDir() {
		return false, fmt.Errorf("%q is a directory", fileA)
	}
	if infoB.IsDir() {
		return false, fmt.Errorf("%q is a directory", fileB)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	digestA, err := c.Digest(fileA)
	if err != nil {
		return false, err
	}
	digestB, err := c.Digest(fileB)
	if err != nil {
		return false, err
	}
	return digestA == digestB, nil
}

// Digest returns the xxHash64 digest of the file's content.
func (c *Comparator) Digest(name string) (uint64, error) {
	f, err := c.fs.Open(name)
	if err != nil {
		return 0, fmt.Errorf("failed to open %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return h.Sum64(), nil
}
