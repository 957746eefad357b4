package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-spreadfetch/internal/export"
	"github.com/rxtech-lab/argo-spreadfetch/internal/pipeline"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// fetchFlags are the request-shaping flags of the fetch command.
type fetchFlags struct {
	RequestFile    string
	Contracts      []string
	Coefficients   string
	Start          string
	End            string
	Lookback       int
	TransitionDays int
	NoPrimary      bool
	NoSynthetic    bool
	Legs           bool
}

func fetchFlagsFrom(cmd *cli.Command) fetchFlags {
	return fetchFlags{
		RequestFile:    cmd.String("request"),
		Contracts:      cmd.StringSlice("contract"),
		Coefficients:   cmd.String("coefficients"),
		Start:          cmd.String("start"),
		End:            cmd.String("end"),
		Lookback:       int(cmd.Int("lookback")),
		TransitionDays: int(cmd.Int("transition-days")),
		NoPrimary:      cmd.Bool("no-primary"),
		NoSynthetic:    cmd.Bool("no-synthetic"),
		Legs:           cmd.Bool("legs"),
	}
}

// request builds the pipeline request. A request file wins over the other flags.
func (f fetchFlags) request() (pipeline.Request, error) {
	if f.RequestFile != "" {
		file, err := os.Open(f.RequestFile)
		if err != nil {
			return pipeline.Request{}, errors.Wrapf(errors.ErrCodeInvalidRequest, err, "cannot read %s", f.RequestFile)
		}
		defer file.Close()

		return pipeline.DecodeRequest(file)
	}

	if len(f.Contracts) == 0 {
		return pipeline.Request{}, errors.New(errors.ErrCodeMissingParameter, "either --request or --contract is required")
	}

	req := pipeline.NewRequest(f.Contracts...)
	if f.Lookback > 0 {
		req = req.WithLookback(f.Lookback)
	} else {
		req = req.WithDates(f.Start, f.End)
	}

	if f.Coefficients != "" {
		coefficients, err := parseCoefficients(f.Coefficients)
		if err != nil {
			return pipeline.Request{}, err
		}

		req.Coefficients = coefficients
	}

	req.TransitionDays = f.TransitionDays

	req.Options.IncludePrimary = !f.NoPrimary
	req.Options.IncludeSynthetic = !f.NoSynthetic
	req.Options.IncludeIndividualLegs = f.Legs

	return req, nil
}

func parseCoefficients(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	out := make([]float64, len(parts))

	for i, part := range parts {
		c, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidCoefficients, err, "invalid coefficient %q", part)
		}

		out[i] = c
	}

	return out, nil
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Debug("Configuration loaded", zap.Stringer("config", cfg))

	req, err := fetchFlagsFrom(cmd).request()
	if err != nil {
		return err
	}

	if dir := cmd.String("output"); dir != "" {
		cfg.Export.Dir = dir
	}

	if formats := cmd.StringSlice("format"); len(formats) > 0 {
		cfg.Export.Formats = formats
	}

	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("Fetching %s", strings.Join(req.Contracts, "/"))),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	pipelineConfig := cfg.Pipeline()
	pipelineConfig.Fetch.Progress = func(done, total int) {
		_ = bar.Add(1)
	}

	result, err := pipeline.New(db, db, pipelineConfig, log).Run(ctx, req)
	_ = bar.Finish()

	if err != nil {
		return err
	}

	summary, err := export.NewExporter(cfg.Export.Dir, cfg.ExportFormats(), log).Export(result)
	if err != nil {
		return err
	}

	log.Info("Fetch completed",
		zap.String("run_id", result.Metadata.RunID),
		zap.String("branch", summary.Branch),
		zap.Strings("files", summary.Files),
	)

	fmt.Printf("run %s: %s\n", result.Metadata.RunID, summary.Branch)
	for _, f := range summary.Files {
		fmt.Println(f)
	}

	fmt.Println(summary.Metadata)

	return nil
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Run the pipeline for one contract or a two-leg spread and export the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "request",
				Aliases: []string{"r"},
				Usage:   "JSON request `FILE`; overrides the request flags below",
			},
			&cli.StringSliceFlag{
				Name:  "contract",
				Usage: "Contract code, e.g. debm08_25. Repeat for a spread",
			},
			&cli.StringFlag{
				Name:  "coefficients",
				Usage: "Comma separated leg weights of a spread",
				Value: "1,-1",
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "First day in `YYYY-MM-DD` format",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Last day in `YYYY-MM-DD` format",
			},
			&cli.IntFlag{
				Name:  "lookback",
				Usage: "Business days before delivery; replaces --start and --end",
			},
			&cli.IntFlag{
				Name:  "transition-days",
				Usage: "Business days before a unit ends in which the next unit becomes the reference",
				Value: 3,
			},
			&cli.BoolFlag{
				Name:  "no-primary",
				Usage: "Skip the primary source",
			},
			&cli.BoolFlag{
				Name:  "no-synthetic",
				Usage: "Skip the synthetic source",
			},
			&cli.BoolFlag{
				Name:  "legs",
				Usage: "Also fetch each leg of a spread on its own",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export directory; overrides the configuration",
			},
			&cli.StringSliceFlag{
				Name:  "format",
				Usage: fmt.Sprintf("Export format (%s, %s); overrides the configuration", export.FormatParquet, export.FormatCSV),
			},
		},
		Action: fetchAction,
	}
}
