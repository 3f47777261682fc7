package e2e_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/dirsync/internal/e2e"
)

// TestVersionCommand verifies the version command works correctly.
func TestVersionCommand(t *testing.T) {
	h := e2e.NewHarness(t)

	result := h.Run("version")

	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, "dirsync version")
	e2e.AssertOutputContains(t, result, "platform:")
}

// TestConfigShowCommand verifies config show prints the defaults.
func TestConfigShowCommand(t *testing.T) {
	h := e2e.NewHarness(t)

	result := h.Run("config", "show")

	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, "# dirsync configuration")
	e2e.AssertOutputContains(t, result, "interval: 1m0s")
	e2e.AssertOutputContains(t, result, "log_file: sync_log.txt")
	e2e.AssertOutputContains(t, result, "output:")
}

// TestConfigShowFormats verifies every supported output format.
func TestConfigShowFormats(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"yaml by default": {args: []string{"config"}, want: "interval: 1m0s"},
		"json":            {args: []string{"config", "show", "--format", "json"}, want: `"interval": "1m0s"`},
		"short flag":      {args: []string{"config", "show", "-f", "json"}, want: `"log_file": "sync_log.txt"`},
		"toml":            {args: []string{"config", "show", "--format", "toml"}, want: `interval = "1m0s"`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := e2e.NewHarness(t)
			result := h.Run(tt.args...)
			e2e.AssertSuccess(t, result)
			e2e.AssertOutputContains(t, result, tt.want)
		})
	}
}

// TestConfigShowJSONIsValid verifies the JSON output parses.
func TestConfigShowJSONIsValid(t *testing.T) {
	h := e2e.NewHarness(t)

	result := h.Run("config", "show", "--format", "json")
	e2e.AssertSuccess(t, result)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(result.Stdout), &decoded); err != nil {
		t.Fatalf("config show did not print valid JSON: %v\n%s", err, result.Stdout)
	}
	if _, ok := decoded["output"]; !ok {
		t.Errorf("expected an output section, got %v", decoded)
	}
}

// TestConfigShowInvalidFormat verifies config show rejects invalid format.
func TestConfigShowInvalidFormat(t *testing.T) {
	h := e2e.NewHarness(t)

	result := h.Run("config", "show", "--format", "invalid")

	e2e.AssertError(t, result)
	e2e.AssertErrorContains(t, result, "unsupported format")
}

// TestConfigShowEnvironmentOverride verifies DIRSYNC_* variables reach the
// effective configuration.
func TestConfigShowEnvironmentOverride(t *testing.T) {
	h := e2e.NewHarness(t)
	h.SetEnv("DIRSYNC_INTERVAL", "15")
	h.SetEnv("DIRSYNC_EXCLUDE", "*.tmp, cache/")

	result := h.Run("config", "show")

	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, "interval: 15s")
	e2e.AssertOutputContains(t, result, "- '*.tmp'")
	e2e.AssertOutputContains(t, result, "- cache/")
}

// TestConfigInitAndPath verifies config init writes a file that config path
// then reports as active.
func TestConfigInitAndPath(t *testing.T) {
	h := e2e.NewHarness(t)

	result := h.Run("config", "path")
	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, "none (using defaults)")

	result = h.Run("config", "init")
	e2e.AssertSuccess(t, result)
	configPath := filepath.Join(h.HomeDir(), "config.yaml")
	e2e.AssertOutputContains(t, result, "Created config file: "+configPath)
	e2e.AssertFileContains(t, configPath, "interval: 1m0s")

	result = h.Run("config", "init")
	e2e.AssertErrorContains(t, result, "already exists")

	result = h.Run("config", "init", "--force")
	e2e.AssertSuccess(t, result)

	result = h.Run("config", "path")
	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, "Active config:    "+configPath)
	e2e.AssertOutputContains(t, result, filepath.Join(h.WorkDir(), "sync_log.txt"))
}

// TestConfigInitTOML verifies the TOML config file is written and read back.
func TestConfigInitTOML(t *testing.T) {
	h := e2e.NewHarness(t)

	result := h.Run("config", "init", "--format", "toml")
	e2e.AssertSuccess(t, result)
	tomlPath := filepath.Join(h.HomeDir(), "config.toml")
	e2e.AssertFileContains(t, tomlPath, `log_file = "sync_log.txt"`)

	result = h.Run("config", "show", "-f", "toml")
	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, `interval = "1m0s"`)
}

// TestOnceMirrorsSource verifies a single pass creates, updates and removes
// replica entries and logs each change.
func TestOnceMirrorsSource(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()

	src.WriteTree(map[string]string{
		"readme.md":          "hello",
		"docs/guide.md":      "guide v2",
		"docs/deep/notes.md": "notes",
		"empty/":             "",
	})
	dst.WriteTree(map[string]string{
		"docs/guide.md": "guide v1",
		"old/file.txt":  "obsolete",
		"stale.txt":     "stale",
	})

	result := h.Run("once", src.Dir(), dst.Dir())
	e2e.AssertSuccess(t, result)

	e2e.AssertTreeEquals(t, dst, src.Tree())

	logPath := filepath.Join(h.WorkDir(), "sync_log.txt")
	e2e.AssertFileContains(t, logPath, "Log created.")
	e2e.AssertFileContains(t, logPath, dst.Path("docs/guide.md")+" updated.")
	e2e.AssertFileContains(t, logPath, "File "+src.Path("readme.md")+" copied to the directory "+dst.Dir()+".")
	e2e.AssertFileContains(t, logPath, "Removed the file "+dst.Path("stale.txt")+" from "+dst.Dir()+".")
	e2e.AssertOutputContains(t, result, "Synchronized "+src.Dir()+" -> "+dst.Dir())
}

// TestOnceIsIdempotent verifies a second pass over identical trees logs nothing.
func TestOnceIsIdempotent(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteTree(map[string]string{"a.txt": "a", "dir/b.txt": "b"})
	logPath := filepath.Join(h.WorkDir(), "sync_log.txt")

	e2e.AssertSuccess(t, h.Run("once", src.Dir(), dst.Dir()))
	// #nosec G304 - test reads its own log
	before, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	result := h.Run("once", src.Dir(), dst.Dir())
	e2e.AssertSuccess(t, result)
	e2e.AssertFileEquals(t, logPath, string(before))
	e2e.AssertOutputContains(t, result, "Unchanged:")
	e2e.AssertOutputContains(t, result, "replica already up to date")
}

// TestOnceDryRun verifies dry run reports without touching the replica.
func TestOnceDryRun(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteTree(map[string]string{"new.txt": "n"})
	dst.WriteTree(map[string]string{"gone.txt": "g"})

	result := h.Run("once", "--dry-run", src.Dir(), dst.Dir())

	e2e.AssertSuccess(t, result)
	e2e.AssertTreeEquals(t, dst, map[string]string{"gone.txt": "g"})
	e2e.AssertFileNotExists(t, filepath.Join(h.WorkDir(), "sync_log.txt"))
	e2e.AssertOutputContains(t, result, "(dry run) Removed the file "+dst.Path("gone.txt"))
	e2e.AssertOutputContains(t, result, "Dry run - no changes made")
}

// TestOnceHonoursIgnoreFile verifies .dirsyncignore and --exclude patterns.
func TestOnceHonoursIgnoreFile(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteTree(map[string]string{
		".dirsyncignore":  "node_modules/\n*.log\n!keep.log\n",
		"app.js":          "js",
		"debug.log":       "d",
		"keep.log":        "k",
		"node_modules/x":  "x",
		"scratch/tmp.bak": "bak",
	})

	result := h.Run("once", "--exclude", "*.bak", src.Dir(), dst.Dir())

	e2e.AssertSuccess(t, result)
	e2e.AssertTreeEquals(t, dst, map[string]string{
		".dirsyncignore": "node_modules/\n*.log\n!keep.log\n",
		"app.js":         "js",
		"keep.log":       "k",
		"scratch/":       "",
	})
}

// TestOnceTypeChange verifies a replica file is replaced by a source
// directory of the same name and vice versa.
func TestOnceTypeChange(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteTree(map[string]string{"x/inner.txt": "i", "y": "file"})
	dst.WriteTree(map[string]string{"x": "was a file", "y/child.txt": "c"})

	result := h.Run("once", src.Dir(), dst.Dir())

	e2e.AssertSuccess(t, result)
	e2e.AssertTreeEquals(t, dst, src.Tree())
}

// TestOnceRejectsBadPairs verifies argument validation.
func TestOnceRejectsBadPairs(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	src.MkdirAll("nested")
	dst := h.ReplicaFixture()

	tests := map[string]struct {
		args []string
		want string
	}{
		"same directory":     {args: []string{"once", src.Dir(), src.Dir()}, want: "already been chosen as the source"},
		"replica in source":  {args: []string{"once", src.Dir(), src.Path("nested")}, want: "subdirectory of the source"},
		"source in replica":  {args: []string{"once", src.Path("nested"), src.Dir()}, want: "contains the source"},
		"missing replica":    {args: []string{"once", src.Dir(), filepath.Join(dst.Dir(), "nope")}, want: "not a valid directory"},
		"log inside source":  {args: []string{"once", "-l", src.Path("log.txt"), src.Dir(), dst.Dir()}, want: "lies inside"},
		"too many arguments": {args: []string{"once", src.Dir(), dst.Dir(), "extra"}, want: "got 3 argument(s)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			result := h.Run(tt.args...)
			e2e.AssertExitCode(t, result, 1)
			e2e.AssertErrorContains(t, result, tt.want)
		})
	}
}

// TestCheckCommand verifies check reports a valid pair and its warnings.
func TestCheckCommand(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteFile("a.txt", "a")
	dst.WriteFile("extra.txt", "e")

	result := h.Run("check", src.Dir(), dst.Dir())

	e2e.AssertSuccess(t, result)
	e2e.AssertOutputContains(t, result, "Source directory:  "+src.Dir())
	e2e.AssertOutputContains(t, result, "Replica directory: "+dst.Dir())
	e2e.AssertOutputContains(t, result, "1 top-level replica entry not in the source will be removed")
	e2e.AssertFileNotExists(t, filepath.Join(h.WorkDir(), "sync_log.txt"))
}

// TestCheckCommandFailure verifies check lists every problem it finds.
func TestCheckCommandFailure(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()

	result := h.Run("check", "--interval", "10", src.Dir(), src.Dir())

	e2e.AssertError(t, result)
	e2e.AssertOutputContains(t, result, "replica:")
	e2e.AssertOutputContains(t, result, "Frequency:         10 second(s)")
}

// TestRunLoop verifies the default command runs bounded passes and writes the
// begun, complete and terminated lines.
func TestRunLoop(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteTree(map[string]string{"a.txt": "a"})
	logPath := filepath.Join(h.TempFixture().Dir(), "logs", "sync.log")

	result := h.Run("--passes", "3", "--interval", "1ms", "--no-progress", "--log-file", logPath, src.Dir(), dst.Dir())

	e2e.AssertSuccess(t, result)
	e2e.AssertTreeEquals(t, dst, map[string]string{"a.txt": "a"})
	e2e.AssertOutputContains(t, result, "Synchronization will be performed as follows:")
	e2e.AssertOutputContains(t, result, "Synchronization terminated. Goodbye.")
	e2e.AssertFileContains(t, logPath, "Synchronization begun with")

	// #nosec G304 - test reads its own log
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if got := strings.Count(string(data), "Synchronization process complete."); got != 3 {
		t.Errorf("expected 3 completed passes, got %d\n%s", got, data)
	}
}

// TestRunLoopCancelled verifies an interrupted loop logs its termination.
func TestRunLoopCancelled(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := h.RunContext(ctx, src.Dir(), dst.Dir())

	e2e.AssertSuccess(t, result)
	e2e.AssertFileContains(t, filepath.Join(h.WorkDir(), "sync_log.txt"), "] Synchronization terminated.\n")
}

// TestEnvFileSuppliesDirectories verifies a .env file in the working
// directory is read before configuration.
func TestEnvFileSuppliesDirectories(t *testing.T) {
	h := e2e.NewHarness(t)
	src := h.SourceFixture()
	dst := h.ReplicaFixture()
	src.WriteFile("a.txt", "a")

	work := e2e.NewFixture(t, h.WorkDir())
	work.WriteFile(".env", "DIRSYNC_SOURCE="+src.Dir()+"\nDIRSYNC_REPLICA="+dst.Dir()+"\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("DIRSYNC_SOURCE")
		_ = os.Unsetenv("DIRSYNC_REPLICA")
	})

	result := h.Run("once")

	e2e.AssertSuccess(t, result)
	e2e.AssertTreeEquals(t, dst, map[string]string{"a.txt": "a"})
}
