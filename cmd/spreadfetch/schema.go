package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-spreadfetch/internal/pipeline"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/utils"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of a fetch request",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the schema to `FILE` instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			schema, err := utils.GetSchemaFromConfig(&pipeline.Request{})
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}

			if path := cmd.String("output"); path != "" {
				return os.WriteFile(path, []byte(schema), 0o644)
			}

			fmt.Println(schema)

			return nil
		},
	}
}
