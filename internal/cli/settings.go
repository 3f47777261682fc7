package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/klauern/dirsync/internal/config"
	"github.com/klauern/dirsync/internal/logging"
	"github.com/klauern/dirsync/internal/ui"
	"github.com/klauern/dirsync/internal/ui/tui"
	"github.com/klauern/dirsync/internal/validation"
)

// errAborted is returned when the user leaves the setup prompt.
var errAborted = errors.New("synchronization setup aborted")

// Seams for tests.
var (
	runPrompt     = tui.RunPrompt
	isInteractive = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
)

// settings is the effective configuration of one command invocation after
// config files, environment, flags and the prompt have been applied.
type settings struct {
	Source   string
	Replica  string
	Interval time.Duration
	LogFile  string
	Exclude  []string
	Watch    bool
	DryRun   bool
	Progress bool
}

// syncFlags returns the flags shared by the commands that run passes. The
// root command takes them as local flags so subcommands can declare their own.
func syncFlags(local bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "interval",
			Local:   local,
			Aliases: []string{"f"},
			Usage:   "Wait `DURATION` between passes (seconds, or a duration such as 5m)",
		},
		&cli.StringFlag{
			Name:    "log-file",
			Local:   local,
			Aliases: []string{"l"},
			Usage:   "Append sync log lines to `FILE` (a directory gets sync_log.txt)",
		},
		&cli.StringSliceFlag{
			Name:    "exclude",
			Local:   local,
			Aliases: []string{"x"},
			Usage:   "Skip entries matching a gitignore-style `PATTERN` (repeatable)",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Local:   local,
			Aliases: []string{"d"},
			Usage:   "Report what would change without modifying the replica",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Local:   local,
			Aliases: []string{"w"},
			Usage:   "Start a pass early when the source changes",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Local: local,
			Usage: "Hide the progress indicator",
		},
	}
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveSettings merges configuration and flags, asks for missing
// directories when attached to a terminal, and validates the result.
// With prompt false, missing directories are an error.
func resolveSettings(cmd *cli.Command, prompt bool) (*settings, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cmd.Bool("no-color") {
		if err := ui.SetColorMode(cfg.Output.Color); err != nil {
			return nil, err
		}
	}
	if cfg.Output.Verbose {
		if err := configureLogging(cmd, true); err != nil {
			return nil, err
		}
	}

	s := &settings{
		Source:   cfg.Source,
		Replica:  cfg.Replica,
		Interval: cfg.Interval.Std(),
		LogFile:  cfg.LogFile,
		Exclude:  cfg.Exclude,
		Watch:    cfg.Watch,
		DryRun:   cfg.DryRun,
		Progress: cfg.Output.Progress,
	}

	if s.Source == "" || s.Replica == "" {
		if !prompt || !isInteractive() {
			return nil, errors.New("source and replica directories are required: dirsync [options] <source> <replica>")
		}
		answer, err := runPrompt(tui.PromptResult{Source: s.Source, Replica: s.Replica, Interval: s.Interval})
		if err != nil {
			return nil, fmt.Errorf("prompt failed: %w", err)
		}
		if answer.Action != tui.PromptActionStart {
			return nil, errAborted
		}
		s.Source, s.Replica, s.Interval = answer.Source, answer.Replica, answer.Interval
	}

	if s.Source, s.Replica, err = validation.ValidatePair(s.Source, s.Replica); err != nil {
		return nil, err
	}
	if err := validation.ValidateInterval(s.Interval); err != nil {
		return nil, err
	}
	if s.LogFile, err = validation.ValidateLogPath(s.LogFile, s.Source, s.Replica); err != nil {
		return nil, err
	}

	logging.Debug("settings resolved",
		"source", s.Source,
		"replica", s.Replica,
		"interval", s.Interval,
		"log_file", s.LogFile,
		"dry_run", s.DryRun,
		"watch", s.Watch,
	)
	return s, nil
}

// applyFlags overrides cfg with positional arguments and flags that were set.
func applyFlags(cmd *cli.Command, cfg *config.Config) error {
	args := cmd.Args()
	switch args.Len() {
	case 0:
	case 2:
		cfg.Source = args.Get(0)
		cfg.Replica = args.Get(1)
	default:
		return fmt.Errorf("expected <source> <replica>, got %d argument(s)", args.Len())
	}

	if cmd.IsSet("interval") {
		d, err := config.ParseDuration(cmd.String("interval"))
		if err != nil {
			return fmt.Errorf("invalid --interval: %w", err)
		}
		cfg.Interval = d
	}
	if cmd.IsSet("log-file") {
		cfg.LogFile = cmd.String("log-file")
	}
	if cmd.IsSet("exclude") {
		cfg.Exclude = append(cfg.Exclude, cmd.StringSlice("exclude")...)
	}
	if cmd.IsSet("dry-run") {
		cfg.DryRun = cmd.Bool("dry-run")
	}
	if cmd.IsSet("watch") {
		cfg.Watch = cmd.Bool("watch")
	}
	if cmd.Bool("no-progress") {
		cfg.Output.Progress = false
	}
	return nil
}
