// Package cli provides the command-line interface for dirsync.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/dirsync/internal/config"
	"github.com/klauern/dirsync/internal/logging"
	"github.com/klauern/dirsync/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:      "dirsync",
		Usage:     "Keep a replica directory identical to a source directory",
		ArgsUsage: "[<source> <replica>]",
		Version:   Version,
		Description: `Runs a synchronization pass every interval until interrupted. Each pass
   copies new and changed files from the source into the replica and removes
   replica entries that no longer exist in the source. Every change is
   appended to the sync log.

   Examples:
     dirsync ./photos /mnt/backup/photos
     dirsync --interval 5m --exclude '*.tmp' ./src ./mirror
     dirsync once --dry-run ./src ./mirror`,
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "json-logs",
				Usage: "Write diagnostic logs as JSON",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Read configuration from `FILE` instead of the default location",
			},
		}, append(syncFlags(true), passesFlag())...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			if err := configureLogging(cmd, false); err != nil {
				return ctx, err
			}
			if cwd, err := os.Getwd(); err == nil {
				if err := config.LoadDotEnv(cwd); err != nil {
					return ctx, err
				}
			}
			return ctx, nil
		},
		Action: runAction,
		Commands: []*cli.Command{
			onceCommand(),
			checkCommand(),
			configCommand(),
			versionCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output based on CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags. verbose
// raises the level to info when no flag asked for more.
func configureLogging(cmd *cli.Command, verbose bool) error {
	opts := logging.DefaultOptions()
	opts.JSON = cmd.Bool("json-logs")
	opts.Color = !cmd.Bool("no-color")

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") || verbose {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
