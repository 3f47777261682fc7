package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/dirsync/internal/config"
	"github.com/klauern/dirsync/internal/synclog"
	"github.com/klauern/dirsync/internal/util"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage dirsync configuration",
		Commands: []*cli.Command{
			configShowCommand(),
			configInitCommand(),
			configPathCommand(),
		},
		Action: configShowAction,
		Flags:  []cli.Flag{formatFlag("yaml", "yaml, json or toml")},
	}
}

func formatFlag(value, choices string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Local:   true,
		Value:   value,
		Usage:   "Output format (" + choices + ")",
	}
}

func configShowCommand() *cli.Command {
	return &cli.Command{
		Name:   "show",
		Usage:  "Print the effective configuration (file, .env and environment)",
		Flags:  []cli.Flag{formatFlag("yaml", "yaml, json or toml")},
		Action: configShowAction,
	}
}

func configShowAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	switch format := cmd.String("format"); format {
	case "yaml":
		fmt.Println("# dirsync configuration")
		return outputAnyYAML(cfg)
	case "json":
		return outputAnyJSON(cfg)
	case "toml":
		fmt.Println("# dirsync configuration")
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func configInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default configuration file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
			formatFlag("yaml", "yaml or toml"),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var path string
			switch format := cmd.String("format"); format {
			case "yaml":
				path = config.FilePath()
			case "toml":
				path = config.TOMLFilePath()
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}

			if existing, ok := config.FindFile(); ok && !cmd.Bool("force") {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", existing)
			}

			if err := config.Default().SaveToPath(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("Created config file: %s\n", path)
			return nil
		},
	}
}

func configPathCommand() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "Print the locations dirsync reads configuration from",
		Action: func(_ context.Context, _ *cli.Command) error {
			active, found := config.FindFile()
			cwd, _ := os.Getwd()

			fmt.Println("Configuration paths:")
			fmt.Printf("  Config directory: %s (override with %s)\n", util.ConfigDir(), util.HomeEnv)
			fmt.Printf("  YAML config:      %s\n", config.FilePath())
			fmt.Printf("  TOML config:      %s\n", config.TOMLFilePath())
			if found {
				fmt.Printf("  Active config:    %s\n", active)
			} else {
				fmt.Println("  Active config:    none (using defaults)")
			}
			fmt.Printf("  .env file:        %s\n", filepath.Join(cwd, ".env"))
			fmt.Printf("  Default sync log: %s\n", filepath.Join(cwd, synclog.DefaultFileName))
			return nil
		},
	}
}

// outputAnyJSON outputs any value as indented JSON.
func outputAnyJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// outputAnyYAML outputs any value as YAML.
func outputAnyYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
