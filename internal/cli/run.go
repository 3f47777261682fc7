package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/klauern/dirsync/internal/ignore"
	"github.com/klauern/dirsync/internal/logging"
	"github.com/klauern/dirsync/internal/mirror"
	"github.com/klauern/dirsync/internal/scheduler"
	"github.com/klauern/dirsync/internal/synclog"
	"github.com/klauern/dirsync/internal/ui"
	"github.com/klauern/dirsync/internal/watch"
)

const (
	msgBegun   = `Synchronization begun with "%s" as the source directory, "%s" as the replica directory, and a %s second update frequency.`
	msgGoodbye = "Synchronization terminated. Goodbye."
)

// passesFlag bounds the run loop; zero runs until interrupted.
func passesFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "passes",
		Local: true,
		Usage: "Stop after `N` passes (0 runs until interrupted)",
	}
}

// session holds what one command needs to run passes: the sync log (absent
// in dry-run mode), the terminal echo and the configured mirror. The ignore
// file is read again before every pass, so mu guards ignore and mirror
// against the watcher goroutine.
type session struct {
	settings *settings
	console  *console
	log      *synclog.Log
	fs       afero.Fs

	mu     sync.Mutex
	ignore *ignore.List
	mirror *mirror.Mirror
}

func openSession(s *settings, out io.Writer) (*session, error) {
	sess := &session{
		settings: s,
		console:  newConsole(out, s.DryRun, s.Progress),
		fs:       afero.NewOsFs(),
	}
	if !s.DryRun {
		var err error
		sess.log, err = synclog.Open(s.LogFile, synclog.WithEcho(sess.console.echo))
		if err != nil {
			return nil, err
		}
	}

	if err := sess.loadIgnore(); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}

// loadIgnore reads the source's ignore file together with the --exclude
// patterns and rebuilds the mirror around the result.
func (s *session) loadIgnore() error {
	ignores, err := ignore.Load(s.fs, s.settings.Source, s.settings.Exclude...)
	if err != nil {
		return err
	}

	var sink mirror.Sink
	if s.log != nil {
		sink = s.log
	}
	m := mirror.New(s.fs, sink, mirror.Options{
		DryRun:  s.settings.DryRun,
		Ignore:  ignores,
		OnEntry: s.console.observe,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignore = ignores
	s.mirror = m
	return nil
}

// match applies the current ignore rules.
func (s *session) match(rel string, isDir bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ignore.Match(rel, isDir)
}

// context attaches a logger carrying the session's directories, which the
// mirror picks up for its per-pass diagnostics.
func (s *session) context(ctx context.Context) context.Context {
	return logging.NewContext(ctx, logging.With(
		"source", s.settings.Source,
		"replica", s.settings.Replica,
		"dry_run", s.settings.DryRun,
	))
}

// Append writes a status line to the sync log, or only to the terminal when
// no log is open.
func (s *session) Append(message string) {
	if s.log != nil {
		s.log.Append(message)
		return
	}
	s.console.Append(message)
}

// Close releases the sync log.
func (s *session) Close() error {
	if s.log == nil {
		return nil
	}
	return s.log.Close()
}

// pass runs one synchronization pass.
func (s *session) pass(ctx context.Context) (*mirror.Result, error) {
	if err := s.loadIgnore(); err != nil {
		logging.WithContext(ctx).Warn("failed to reload ignore rules, keeping the previous ones", logging.Err(err))
	}
	s.mu.Lock()
	m := s.mirror
	s.mu.Unlock()

	s.console.startPass()
	result, err := m.Synchronize(ctx, s.settings.Source, s.settings.Replica)
	seen := s.console.finishPass()
	if err != nil {
		return result, err
	}

	log := logging.WithContext(ctx)
	log.Info("pass finished",
		logging.Pass(result.ID),
		logging.Count(seen),
		"changed", result.TotalChanged(),
		"failed", len(result.Failed()),
		"duration", result.Duration(),
	)
	if !result.Success() {
		log.Warn("some entries failed to synchronize", logging.Err(result.Err()))
	}
	return result, nil
}

// watchTrigger starts the source watcher when requested. A watcher that
// cannot start leaves the interval as the only trigger.
func (s *session) watchTrigger(ctx context.Context) <-chan struct{} {
	if !s.settings.Watch {
		return nil
	}
	trigger, err := watch.Source(ctx, s.settings.Source, watch.RelativeFilter(s.settings.Source, s.match))
	if err != nil {
		logging.Warn("watch unavailable, using the interval only", logging.Err(err))
		return nil
	}
	return trigger
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	s, err := resolveSettings(cmd, true)
	if errors.Is(err, errAborted) {
		fmt.Println(msgGoodbye)
		return nil
	}
	if err != nil {
		return err
	}

	sess, err := openSession(s, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logging.Warn("failed to close sync log", logging.Err(err))
		}
	}()

	ctx = sess.context(ctx)
	printStart(os.Stdout, s)
	sess.Append(fmt.Sprintf(msgBegun, s.Source, s.Replica, scheduler.Seconds(s.Interval)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(func(ctx context.Context) error {
		_, err := sess.pass(ctx)
		return err
	}, sess, scheduler.Options{
		Interval:  s.Interval,
		Trigger:   sess.watchTrigger(ctx),
		MaxPasses: int(cmd.Int("passes")),
	})
	if err := sched.Run(ctx); err != nil {
		return err
	}

	fmt.Println(msgGoodbye)
	return nil
}

// printStart prints the settings a run loop is about to use.
func printStart(w io.Writer, s *settings) {
	logFile := s.LogFile
	if s.DryRun {
		logFile += " (not written in dry-run mode)"
	}

	_, _ = fmt.Fprintln(w, ui.Header("Synchronization will be performed as follows:"))
	_, _ = fmt.Fprintf(w, "- Source directory: %s\n", s.Source)
	_, _ = fmt.Fprintf(w, "- Replica directory: %s\n", s.Replica)
	_, _ = fmt.Fprintf(w, "- Log file path: %s\n", logFile)
	_, _ = fmt.Fprintf(w, "- Synchronization frequency: %s second(s)\n", scheduler.Seconds(s.Interval))
	if s.Watch {
		_, _ = fmt.Fprintln(w, "- Source changes start a pass early")
	}
	if len(s.Exclude) > 0 {
		_, _ = fmt.Fprintf(w, "- Excluded patterns: %d\n", len(s.Exclude))
	}
	_, _ = fmt.Fprintln(w, "Synchronization can still be aborted with a keyboard interrupt (Ctrl+C).")
	_, _ = fmt.Fprintln(w)
}

func onceCommand() *cli.Command {
	flags := make([]cli.Flag, 0, 6)
	for _, f := range syncFlags(false) {
		if f.Names()[0] != "watch" {
			flags = append(flags, f)
		}
	}

	return &cli.Command{
		Name:      "once",
		Usage:     "Run a single synchronization pass and print a summary",
		ArgsUsage: "<source> <replica>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolveSettings(cmd, false)
			if err != nil {
				return err
			}
			s.Watch = false

			sess, err := openSession(s, os.Stdout)
			if err != nil {
				return err
			}
			defer func() {
				if err := sess.Close(); err != nil {
					logging.Warn("failed to close sync log", logging.Err(err))
				}
			}()

			result, err := sess.pass(sess.context(ctx))
			if err != nil {
				return fmt.Errorf("synchronization pass failed: %w", err)
			}

			fmt.Println()
			fmt.Print(result.Summary())
			if result.Success() && result.TotalChanged() == 0 {
				fmt.Println(ui.StatusSkipped("replica already up to date"))
			}

			if failed := len(result.Failed()); failed > 0 {
				return fmt.Errorf("%d entr%s failed to synchronize", failed, plural(failed, "y", "ies"))
			}
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
