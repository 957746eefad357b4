package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-spreadfetch/internal/store"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/urfave/cli/v3"
)

func importAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	table, err := store.ParseTable(cmd.String("table"))
	if err != nil {
		return err
	}

	if cmd.Args().Len() == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "import needs at least one file")
	}

	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	total := 0
	for _, path := range cmd.Args().Slice() {
		n, err := db.Import(ctx, table, path)
		if err != nil {
			return err
		}

		total += n
	}

	fmt.Printf("imported %d rows into %s\n", total, table)

	return nil
}

func importCommand() *cli.Command {
	tables := make([]string, len(store.Tables))
	for i, t := range store.Tables {
		tables[i] = string(t)
	}

	return &cli.Command{
		Name:      "import",
		Usage:     "Load parquet or CSV tick files into the store",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table",
				Aliases:  []string{"t"},
				Usage:    fmt.Sprintf("Target table (%s)", strings.Join(tables, ", ")),
				Required: true,
			},
		},
		Action: importAction,
	}
}
