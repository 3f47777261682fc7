package mirror

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/klauern/dirsync/internal/logging"
)

// Sink receives one line per mutating or failed entry. Implementations own
// timestamps and persistence and must not block the pass on failure.
type Sink interface {
	Append(message string)
}

// Options configures a Mirror.
type Options struct {
	// DryRun records what a pass would do without touching the replica or the sink.
	DryRun bool

	// Ignore excludes matching entries on both sides: they are neither copied
	// from the source nor pruned from the replica.
	Ignore Matcher

	// OnEntry, if set, is called with every entry result as it is produced,
	// before its message reaches the sink.
	OnEntry func(EntryResult)
}

// Mirror reconciles a replica tree against a source tree.
type Mirror struct {
	fs   afero.Fs
	sink Sink
	cmp  *Comparator
	opts Options
}

// New creates a Mirror operating on fs and reporting to sink. A nil sink discards messages.
func New(fs afero.Fs, sink Sink, opts Options) *Mirror {
	return &Mirror{
		fs:   fs,
		sink: sink,
		cmp:  NewComparator(fs),
		opts: opts,
	}
}

// Synchronize performs one full pass making replicaDir mirror sourceDir.
//
// Both paths must be validated, absolute, distinct and not nested. Per-entry
// failures do not produce an error; they are reported in the Result. The error
// is a *StructuralError when a required directory could not be listed or
// created, or the context's error when ctx was cancelled mid-pass.
func (m *Mirror) Synchronize(ctx context.Context, sourceDir, replicaDir string) (*Result, error) {
	defer logging.Timer("pass")()

	result := &Result{
		ID:      uuid.NewString(),
		Source:  sourceDir,
		Replica: replicaDir,
		DryRun:  m.opts.DryRun,
		Started: time.Now(),
		Entries: make([]EntryResult, 0),
	}

	p := &pass{
		Mirror: m,
		ctx:    ctx,
		result: result,
		log:    logging.WithContext(ctx).With(logging.Pass(result.ID)),
	}

	p.log.Debug("starting pass",
		slog.String("source", sourceDir),
		slog.String("replica", replicaDir),
		slog.Bool("dry_run", m.opts.DryRun),
	)

	err := ctx.Err()
	if err == nil {
		err = p.reconcileDirectories(filepath.Clean(sourceDir), filepath.Clean(replicaDir))
	}
	result.Finished = time.Now()

	if err != nil {
		p.log.Error("pass aborted", logging.Err(err), logging.Count(len(result.Entries)))
		return result, err
	}

	p.log.Debug("pass completed",
		logging.Count(len(result.Entries)),
		slog.Int("changed", result.TotalChanged()),
		slog.Int("failed", len(result.Failed())),
	)
	return result, nil
}

// pass holds the working state of one Synchronize call.
type pass struct {
	*Mirror
	ctx    context.Context
	result *Result
	log    *slog.Logger
}

// record stores an entry result, notifies the observer and then writes the
// message to the sink.
func (p *pass) record(er EntryResult) {
	p.result.Entries = append(p.result.Entries, er)

	if er.Outcome == OutcomeFailed {
		p.log.Warn("entry failed", logging.Path(er.Path), logging.Err(er.Err))
	} else {
		p.log.Debug("entry reconciled", logging.Path(er.Path), logging.Outcome(string(er.Outcome)))
	}

	if p.opts.OnEntry != nil {
		p.opts.OnEntry(er)
	}
	if er.Message != "" && !p.opts.DryRun && p.sink != nil {
		p.sink.Append(er.Message)
	}
}

// failed turns er into a failure carrying msg and err.
func failed(er EntryResult, msg string, err error) EntryResult {
	er.Outcome = OutcomeFailed
	er.Message = msg
	er.Err = err
	er.Bytes = 0
	return er
}
