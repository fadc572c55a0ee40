package main

import (
	"context"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/notabot/notabot/pkg/cmd"
	"github.com/notabot/notabot/pkg/config"
	"github.com/notabot/notabot/pkg/log"
	"github.com/notabot/notabot/pkg/runtime"
)

func NewTriggerCommand() *cli.Command {
	return &cli.Command{
		Name:    "trigger",
		Aliases: []string{"t"},
		Usage:   "Run one workflow directly, bypassing event routing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the bot configuration file",
				Value:   "config/default.json",
				Sources: cli.EnvVars("NOTABOT_CONFIG"),
			},
			&cli.StringFlag{
				Name:     "workflow",
				Aliases:  []string{"w"},
				Usage:    "Name of the workflow to run",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "var",
				Usage: "Seed variable as key=value (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "Log desktop actions instead of performing them",
				Value:   false,
				Sources: cli.EnvVars("NOTABOT_DRY_RUN"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("trigger")

			cfg, err := config.Load(command.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			vars, err := parseVars(command.StringSlice("var"))
			if err != nil {
				return err
			}

			provider := cmd.NewCapabilityProvider(command.Bool("dry-run"), logger)
			rt := runtime.NewRuntime(cfg, provider, logger)

			workflowName := command.String("workflow")

			if err := rt.RunWorkflow(ctx, workflowName, vars); err != nil {
				return fmt.Errorf("trigger failed: %w", err)
			}

			return nil
		},
	}
}

// parseVars turns repeated key=value flags into the run's seed variables.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}

		vars[key] = value
	}

	return vars, nil
}
