// Package config provides configuration management for dirsync.
// It supports YAML and TOML configuration files, a .env file, environment
// variables, and sensible defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/klauern/dirsync/internal/util"
)

// DefaultInterval is the wait between passes when none is configured.
const DefaultInterval = 60 * time.Second

// DefaultLogFile is the sync log name, resolved against the working directory.
const DefaultLogFile = "sync_log.txt"

// Config represents the complete dirsync configuration.
type Config struct {
	// Source is the directory being mirrored.
	Source string `yaml:"source,omitempty" toml:"source,omitempty" json:"source,omitempty"`

	// Replica is the directory made to match Source.
	Replica string `yaml:"replica,omitempty" toml:"replica,omitempty" json:"replica,omitempty"`

	// Interval is the wait between passes.
	Interval Duration `yaml:"interval" toml:"interval" json:"interval"`

	// LogFile is the append-only sync log path.
	LogFile string `yaml:"log_file" toml:"log_file" json:"log_file"`

	// Exclude holds gitignore-style patterns applied to both trees.
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty"`

	// Watch starts a pass early when the source changes.
	Watch bool `yaml:"watch" toml:"watch" json:"watch"`

	// DryRun reports changes without applying them.
	DryRun bool `yaml:"dry_run" toml:"dry_run" json:"dry_run"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output" toml:"output" json:"output"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color" toml:"color" json:"color"`
	// Progress shows a per-pass progress indicator on terminals
	Progress bool `yaml:"progress" toml:"progress" json:"progress"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose" toml:"verbose" json:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Interval: Duration(DefaultInterval),
		LogFile:  DefaultLogFile,
		Output: OutputConfig{
			Color:    "auto",
			Progress: true,
			Verbose:  false,
		},
	}
}

// Config file names, in lookup order.
const (
	configFileName     = "config.yaml"
	configFileNameTOML = "config.toml"
)

// FilePath returns the path to the YAML config file.
func FilePath() string {
	return filepath.Join(util.ConfigDir(), configFileName)
}

// TOMLFilePath returns the path to the TOML config file.
func TOMLFilePath() string {
	return filepath.Join(util.ConfigDir(), configFileNameTOML)
}

// FindFile returns the config file that Load would read: config.yaml if
// present, then config.toml. The second value is false when neither exists.
func FindFile() (string, bool) {
	for _, name := range []string{configFileName, configFileNameTOML} {
		path := filepath.Join(util.ConfigDir(), name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return FilePath(), false
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	path, ok := FindFile()
	if !ok {
		cfg := Default()
		if err := cfg.applyEnvironment(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific path. Files ending in
// .toml are decoded as TOML, everything else as YAML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file in dir into the process
// environment. Variables already set are left alone. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path, as TOML when the
// path ends in .toml.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(c); err != nil {
			return err
		}
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if c.Interval.Std() <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	return nil
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern DIRSYNC_<KEY> or DIRSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() error {
	if v := os.Getenv("DIRSYNC_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("DIRSYNC_REPLICA"); v != "" {
		c.Replica = v
	}
	if v := os.Getenv("DIRSYNC_INTERVAL"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DIRSYNC_INTERVAL: %w", err)
		}
		c.Interval = d
	}
	if v := os.Getenv("DIRSYNC_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("DIRSYNC_EXCLUDE"); v != "" {
		c.Exclude = splitList(v)
	}
	if v := os.Getenv("DIRSYNC_WATCH"); v != "" {
		c.Watch = parseBool(v)
	}
	if v := os.Getenv("DIRSYNC_DRY_RUN"); v != "" {
		c.DryRun = parseBool(v)
	}

	// Output settings
	if v := os.Getenv("DIRSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("DIRSYNC_OUTPUT_PROGRESS"); v != "" {
		c.Output.Progress = parseBool(v)
	}
	if v := os.Getenv("DIRSYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
	return nil
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, ok := FindFile()
	return ok
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitList splits a comma-separated list. Empty segments are filtered out.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Duration is a time.Duration that reads either Go duration syntax ("90s",
// "5m") or a bare number of seconds, and writes Go duration syntax.
type Duration time.Duration

// ParseDuration parses s as a Duration. The result must be positive.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(n) * time.Second
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds (60) or a duration (1m30s)", s)
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return Duration(d), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the Go duration syntax.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
