// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running CLI commands, fixture management,
// and utilities for setting up isolated test environments.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/dirsync/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	rootDir string
	env     map[string]string
}

// NewHarness creates a new E2E test harness.
// It points DIRSYNC_HOME and HOME at an isolated directory and makes a fresh
// work directory the current directory, so the default sync log and .env
// file land inside the test tree.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	rootDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}

	h := &Harness{
		t:       t,
		rootDir: rootDir,
		env:     make(map[string]string),
	}

	h.SetEnv("HOME", filepath.Join(rootDir, "home"))
	h.SetEnv("DIRSYNC_HOME", filepath.Join(rootDir, "home", ".dirsync"))

	workDir := filepath.Join(rootDir, "work")
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		t.Fatalf("failed to create work directory: %v", err)
	}
	t.Chdir(workDir)

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.env[key] = value
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated configuration directory for this harness.
func (h *Harness) HomeDir() string {
	return h.env["DIRSYNC_HOME"]
}

// WorkDir returns the current directory commands run in.
func (h *Harness) WorkDir() string {
	return filepath.Join(h.rootDir, "work")
}

// Run executes a CLI command with the given arguments and captures the output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()
	return h.RunContext(context.Background(), args...)
}

// RunContext is Run with a caller-supplied context, for exercising
// cancellation of the run loop.
func (h *Harness) RunContext(ctx context.Context, args ...string) *Result {
	h.t.Helper()

	// Prepend "dirsync" as the program name if not provided
	if len(args) == 0 || args[0] != "dirsync" {
		args = append([]string{"dirsync"}, args...)
	}

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read stdout concurrently so a command printing more than the pipe
	// buffer holds does not block.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(ctx, args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
