// Package synclog writes the append-only synchronization log.
//
// Every line is prefixed with a local timestamp. A lock file next to the log
// keeps two dirsync processes from interleaving their records.
package synclog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"

	"github.com/klauern/dirsync/internal/logging"
)

// DefaultFileName is the log file used when none is configured.
const DefaultFileName = "sync_log.txt"

// TimeFormat is the layout of the bracketed timestamp on every line.
const TimeFormat = "2006-01-02 15:04:05"

// CreatedMessage is written as the first line of a new log file.
const CreatedMessage = "Log created."

// ErrLocked is returned by Open when another process holds the log.
var ErrLocked = errors.New("sync log is locked by another process")

// Option configures a Log.
type Option func(*Log)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(l *Log) { l.clock = c }
}

// WithEcho calls fn with every formatted line after it is written.
func WithEcho(fn func(line string)) Option {
	return func(l *Log) { l.echo = fn }
}

// Log is an open sync log. It is safe for concurrent use.
type Log struct {
	path  string
	file  *os.File
	lock  *flock.Flock
	clock clockwork.Clock
	echo  func(string)

	mu     sync.Mutex
	closed bool
}

// Open opens path for appending, creating it and its parent directories if
// needed, and takes the log's lock.
func Open(path string, opts ...Option) (*Log, error) {
	l := &Log{path: path, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l.lock = flock.New(path + ".lock")
	locked, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock sync log: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)

	l.file, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		_ = l.lock.Unlock()
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}

	if created {
		l.Append(CreatedMessage)
	}
	logging.Debug("sync log opened", logging.Path(path), "created", created)
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one timestamped line. Write failures are reported as
// diagnostics and otherwise ignored.
func (l *Log) Append(message string) {
	line := Format(l.clock.Now().Format(TimeFormat), message)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		logging.Warn("append to closed sync log", logging.Path(l.path))
		return
	}
	if _, err := l.file.WriteString(line + "\n"); err != nil {
		logging.Warn("failed to write sync log", logging.Path(l.path), logging.Err(err))
	}
	if l.echo != nil {
		l.echo(line)
	}
}

// Close closes the file and releases the lock. The lock file stays on disk so
// every process keeps locking the same inode. It is safe to call more than once.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.file.Close()
	if unlockErr := l.lock.Unlock(); err == nil && unlockErr != nil {
		err = fmt.Errorf("failed to unlock sync log: %w", unlockErr)
	}
	return err
}

// Format renders a log line from a timestamp and a message.
func Format(timestamp, message string) string {
	return "[" + timestamp + "] " + message
}
