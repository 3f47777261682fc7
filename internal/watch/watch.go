// Package watch turns filesystem events under a source tree into pass triggers.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rjeczalik/notify"

	"github.com/klauern/dirsync/internal/logging"
)

const eventBufferSize = 64

// FilterFunc reports whether an event on the absolute path should be dropped.
type FilterFunc func(path string) bool

// Source watches dir recursively. The returned channel holds at most one
// pending trigger: any number of events before the receiver catches up
// collapse into a single receive. The channel is closed once ctx is done.
func Source(ctx context.Context, dir string, filter FilterFunc) (<-chan struct{}, error) {
	raw := make(chan notify.EventInfo, eventBufferSize)
	if err := notify.Watch(filepath.Join(dir, "..."), raw, notify.All); err != nil {
		return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	logging.Debug("watching source", logging.Path(dir))

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer notify.Stop(raw)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-raw:
				if filter != nil && filter(ev.Path()) {
					continue
				}
				logging.Debug("source changed", logging.Path(ev.Path()), logging.Operation(ev.Event().String()))
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// RelativeFilter adapts a matcher over root-relative slash paths to a FilterFunc.
// Paths outside root are never filtered.
func RelativeFilter(root string, match func(relPath string, isDir bool) bool) FilterFunc {
	if match == nil {
		return nil
	}
	return func(path string) bool {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return false
		}
		return match(filepath.ToSlash(rel), false)
	}
}
