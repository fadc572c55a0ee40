package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/notabot/notabot/pkg/cmd"
	"github.com/notabot/notabot/pkg/config"
	"github.com/notabot/notabot/pkg/log"
)

var errInvalidSources = errors.New("invalid source configurations found")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a bot configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the bot configuration file",
				Value:   "config/default.json",
				Sources: cli.EnvVars("NOTABOT_CONFIG"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup("error", "text")

			path := command.String("config")

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}

			fmt.Printf("Configuration: %s\n", path)
			fmt.Println("=====================================")
			fmt.Printf("Sources:   %d\n", len(cfg.Sources))
			fmt.Printf("Actions:   %d\n", len(cfg.Actions))
			fmt.Printf("Workflows: %d\n", len(cfg.Workflows))
			fmt.Printf("Events:    %d\n", len(cfg.Events))
			fmt.Printf("Globals:   %d\n", len(cfg.Globals))

			// Load already checked the schema and the workflow/action
			// cross-references; what is left is whether each source block
			// satisfies its factory.
			registry := cmd.NewRegistry(log.WithModule("validate"))

			invalid := 0

			for i, sourceConfig := range cfg.Sources {
				_, err := registry.CreateSource(sourceConfig.Type, sourceConfig.Config)
				if err != nil {
					fmt.Printf("  ❌ sources[%d] (%s): %v\n", i, sourceConfig.Type, err)

					invalid++

					continue
				}

				fmt.Printf("  ✅ sources[%d] (%s)\n", i, sourceConfig.Type)
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d", errInvalidSources, invalid)
			}

			fmt.Println("Configuration is valid ✅")

			return nil
		},
	}
}
