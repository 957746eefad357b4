package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-spreadfetch/internal/config"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/store"
	"github.com/rxtech-lab/argo-spreadfetch/internal/version"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the --config file, or the defaults when none is given,
// and applies the --log-level override.
func loadConfig(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.LoadAndValidate(path)
		if err != nil {
			return nil, nil, err
		}

		cfg = loaded
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	appLogger, err := logger.NewLoggerWithLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	return cfg, appLogger, nil
}

// openStore opens the configured tick store once the configured schema
// version is known to be readable by this build.
func openStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*store.Store, error) {
	if err := version.CheckSchemaCompatibility(cfg.Store.SchemaVersion, version.SchemaVersion); err != nil {
		return nil, err
	}

	return store.Open(ctx, cfg.Store.Path, appLogger)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "spreadfetch",
		Usage:   "Fetch, clean and merge energy contract spread data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration `FILE`",
				Sources: cli.EnvVars("SPREADFETCH_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			fetchCommand(),
			resolveCommand(),
			importCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
