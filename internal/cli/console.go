package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/klauern/dirsync/internal/mirror"
	"github.com/klauern/dirsync/internal/progress"
	"github.com/klauern/dirsync/internal/synclog"
	"github.com/klauern/dirsync/internal/ui"
)

// console echoes sync activity to the terminal. The mirror reports each
// entry to observe before the entry's line reaches the sync log, so echo
// can colour the line by the pending outcome.
type console struct {
	out      io.Writer
	dryRun   bool
	progress bool

	mu      sync.Mutex
	pending mirror.Outcome
	bar     *progress.Bar
}

func newConsole(out io.Writer, dryRun, showProgress bool) *console {
	return &console{out: out, dryRun: dryRun, progress: showProgress}
}

// startPass shows a spinner for the coming pass when progress is enabled.
func (c *console) startPass() {
	if !c.progress {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = progress.Spinner("Synchronizing")
}

// finishPass removes the spinner and returns the number of entries seen.
func (c *console) finishPass() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar == nil {
		return 0
	}
	n := c.bar.Count()
	_ = c.bar.Clear()
	_ = c.bar.Finish()
	c.bar = nil
	return n
}

// observe is the mirror's per-entry hook.
func (c *console) observe(er mirror.EntryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar != nil {
		c.bar.Step(er.Path)
	}
	if er.Message == "" {
		return
	}
	if c.dryRun {
		c.print(ui.Entry(string(er.Outcome), "(dry run) "+er.Message))
		return
	}
	c.pending = er.Outcome
}

// echo receives every line written to the sync log.
func (c *console) echo(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := c.pending
	c.pending = ""
	c.print(ui.Entry(string(outcome), line))
}

// Append stands in for the sync log when none is open: the line is only
// printed.
func (c *console) Append(message string) {
	c.echo(synclog.Format(time.Now().Format(synclog.TimeFormat), message))
}

func (c *console) print(line string) {
	if c.bar != nil {
		_ = c.bar.Clear()
	}
	_, _ = fmt.Fprintln(c.out, line)
}
