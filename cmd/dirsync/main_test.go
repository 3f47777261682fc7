package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/klauern/dirsync/internal/cli"
)

// capture runs the CLI with args and returns what it wrote to stdout.
func capture(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := cli.Run(context.Background(), append([]string{"dirsync"}, args...))

	if closeErr := w.Close(); closeErr != nil {
		t.Fatalf("failed to close pipe writer: %v", closeErr)
	}
	os.Stdout = old

	var buf bytes.Buffer
	if _, copyErr := io.Copy(&buf, r); copyErr != nil {
		t.Fatalf("failed to read captured output: %v", copyErr)
	}
	return buf.String(), runErr
}

func TestCLIInitialization(t *testing.T) {
	output, err := capture(t, "--help")
	if err != nil {
		t.Fatalf("CLI initialization failed: %v", err)
	}

	if !strings.Contains(output, "dirsync") {
		t.Errorf("expected help output to contain 'dirsync', got: %q", output)
	}
	if !strings.Contains(output, "USAGE") || !strings.Contains(output, "COMMANDS") {
		t.Errorf("expected help output to contain USAGE and COMMANDS sections, got: %q", output)
	}
}

func TestVersionFlag(t *testing.T) {
	output, err := capture(t, "--version")
	if err != nil {
		t.Fatalf("--version flag failed: %v", err)
	}
	if !strings.Contains(output, "dirsync") {
		t.Errorf("expected version output to contain 'dirsync', got: %q", output)
	}
}

func TestGlobalFlagsRecognized(t *testing.T) {
	tests := map[string][]string{
		"verbose flag":   {"--verbose", "version"},
		"debug flag":     {"--debug", "version"},
		"no-color flag":  {"--no-color", "version"},
		"json-logs flag": {"--json-logs", "version"},
		"combined flags": {"--verbose", "--no-color", "version"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := capture(t, args...); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		})
	}
}

func TestAllCommandsRegistered(t *testing.T) {
	output, err := capture(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	for _, cmd := range []string{"once", "check", "config", "version"} {
		if !strings.Contains(output, cmd) {
			t.Errorf("expected command %q to be registered, help output: %q", cmd, output)
		}
	}
}
