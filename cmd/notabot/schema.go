package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/notabot/notabot/pkg/cmd"
	"github.com/notabot/notabot/pkg/config"
	"github.com/notabot/notabot/pkg/log"
)

func NewSchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the configuration JSON schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Print the config schema of one source type instead (e.g. 'file')",
				Value: "",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup("error", "text")

			sourceType := command.String("source")
			if sourceType == "" {
				_, err := os.Stdout.Write(config.Schema())

				return err
			}

			registry := cmd.NewRegistry(log.WithModule("schema"))

			factory, ok := registry.SourceFactory(sourceType)
			if !ok {
				return fmt.Errorf("unknown source type %q (known: %s)",
					sourceType, strings.Join(registry.SourceIDs(), ", "))
			}

			out, err := json.MarshalIndent(factory.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render schema for %q: %w", sourceType, err)
			}

			fmt.Println(string(out))

			return nil
		},
	}
}
