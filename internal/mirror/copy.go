package mirror

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// copyFile copies src to dst, preserving permission bits and modification time.
// A partially written dst is removed on failure.
func copyFile(fs afero.Fs, src, dst string) (int64, error) {
	srcInfo, err := fs.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source %q: %w", src, err)
	}

	srcFile, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source %q: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create destination %q: %w", dst, err)
	}

	n, err := io.Copy(dstFile, srcFile)
	if closeErr := dstFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = fs.Remove(dst)
		return 0, fmt.Errorf("failed to copy content to %q: %w", dst, err)
	}

	if err := fs.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return n, fmt.Errorf("failed to set times on %q: %w", dst, err)
	}
	return n, nil
}
