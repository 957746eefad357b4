package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/contract"
	"github.com/rxtech-lab/argo-spreadfetch/internal/period"
	"github.com/rxtech-lab/argo-spreadfetch/internal/pipeline"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/urfave/cli/v3"
)

// printResolution writes the relative periods of code over [start, end] and,
// with segments, the sub-windows each period is valid for.
func printResolution(w io.Writer, code, start, end string, transitionDays int, segments bool) error {
	spec, err := contract.Parse(code)
	if err != nil {
		return err
	}

	first, err := time.Parse(pipeline.DateLayout, start)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid start %q", start)
	}

	last, err := time.Parse(pipeline.DateLayout, end)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid end %q", end)
	}

	window := types.NewDateRange(first, last)
	resolver := period.NewResolver(transitionDays)

	fmt.Fprintf(w, "%s delivers %s\n", spec.Code(), spec.DeliveryDate.Format(pipeline.DateLayout))

	periods := resolver.Resolve(spec, window)
	if segments {
		periods = resolver.Segments(spec, window)
	}

	for _, p := range periods {
		fmt.Fprintf(w, "%-5s %s\n", p.Label(), p.Window)
	}

	return nil
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Show the relative periods a contract maps to over a window",
		ArgsUsage: "CONTRACT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Usage: "First day in `YYYY-MM-DD` format", Required: true},
			&cli.StringFlag{Name: "end", Usage: "Last day in `YYYY-MM-DD` format", Required: true},
			&cli.IntFlag{Name: "transition-days", Usage: "Transition business days", Value: 3},
			&cli.BoolFlag{Name: "segments", Usage: "Print the per-day segmentation instead of the distinct periods"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New(errors.ErrCodeMissingParameter, "resolve takes exactly one contract")
			}

			return printResolution(os.Stdout, cmd.Args().First(), cmd.String("start"), cmd.String("end"),
				int(cmd.Int("transition-days")), cmd.Bool("segments"))
		},
	}
}
