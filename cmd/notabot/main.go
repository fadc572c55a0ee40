package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "notabot",
		Usage:                 "Run the notabot desktop automation engine",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewSchemaCommand(),
			NewTriggerCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the bot configuration file",
				Value:   "config/default.json",
				Sources: cli.EnvVars("NOTABOT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "bot-id",
				Aliases: []string{"id"},
				Usage:   "Custom bot ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("NOTABOT_ID"),
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "Log desktop actions instead of performing them",
				Value:   false,
				Sources: cli.EnvVars("NOTABOT_DRY_RUN"),
			},
			&cli.BoolFlag{
				Name:    "watch",
				Usage:   "Reload the configuration when the file changes",
				Value:   false,
				Sources: cli.EnvVars("NOTABOT_WATCH"),
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Address for the Prometheus /metrics endpoint (empty disables it)",
				Value:   "",
				Sources: cli.EnvVars("METRICS_ADDR"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces via OTLP/HTTP",
				Value:   false,
				Sources: cli.EnvVars("NOTABOT_TRACING"),
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
			return runBot(ctx, command)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
