package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/dirsync/internal/scheduler"
	"github.com/klauern/dirsync/internal/ui"
	"github.com/klauern/dirsync/internal/validation"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate a source/replica pair without synchronizing",
		ArgsUsage: "<source> <replica>",
		Description: `Checks that both directories exist, that neither contains the other,
   that the replica is writable and that the sync log lies outside both trees.
   Warns when the first pass would remove replica entries.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"f"},
				Usage:   "Wait `DURATION` between passes (seconds, or a duration such as 5m)",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Aliases: []string{"l"},
				Usage:   "Append sync log lines to `FILE` (a directory gets sync_log.txt)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}

			result, err := validation.Check(cfg.Source, cfg.Replica, cfg.LogFile, cfg.Interval.Std(), validation.DefaultOptions())
			if err != nil {
				return err
			}

			if result.Source != "" {
				fmt.Printf("Source directory:  %s\n", result.Source)
				fmt.Printf("Replica directory: %s\n", result.Replica)
			}
			if result.LogFile != "" {
				fmt.Printf("Log file path:     %s\n", result.LogFile)
			}
			fmt.Printf("Frequency:         %s second(s)\n\n", scheduler.Seconds(cfg.Interval.Std()))

			for _, e := range result.Errors {
				fmt.Println(ui.StatusError(describe(e)))
			}
			for _, w := range result.Warnings {
				fmt.Println(ui.StatusWarning(w))
			}

			if result.Valid {
				fmt.Println(ui.StatusSuccess(result.Summary()))
				return nil
			}
			fmt.Println(ui.Bold(result.Summary()))
			return result.Error()
		},
	}
}

// describe renders a validation error as "field: message".
func describe(err error) string {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		if vErr.Err != nil {
			return fmt.Sprintf("%s: %s: %v", vErr.Field, vErr.Message, vErr.Err)
		}
		return fmt.Sprintf("%s: %s", vErr.Field, vErr.Message)
	}
	return err.Error()
}
