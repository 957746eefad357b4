// Package config loads the spreadfetch YAML configuration.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-spreadfetch/internal/export"
	"github.com/rxtech-lab/argo-spreadfetch/internal/outlier"
	"github.com/rxtech-lab/argo-spreadfetch/internal/pipeline"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/version"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// Config is the root configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Session    SessionConfig    `yaml:"session"`
	Outlier    OutlierConfig    `yaml:"outlier"`
	Validation ValidationConfig `yaml:"validation"`
	Export     ExportConfig     `yaml:"export"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// StoreConfig locates the DuckDB tick store.
type StoreConfig struct {
	Path          string `yaml:"path" validate:"required"`
	SchemaVersion string `yaml:"schema_version" validate:"required,semver"`
}

// FetchConfig bounds and retries engine calls.
type FetchConfig struct {
	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxAttempts     int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialInterval time.Duration `yaml:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `yaml:"max_interval" validate:"gtefield=InitialInterval"`
	Parallel        *bool         `yaml:"parallel"`
	AdjustTrades    *bool         `yaml:"adjust_trades"`
}

// SessionConfig restricts fetched rows to a time-of-day band, e.g. 09:00 to 17:25.
type SessionConfig struct {
	Start string `yaml:"start" validate:"omitempty,datetime=15:04"`
	End   string `yaml:"end" validate:"omitempty,datetime=15:04"`
}

// OutlierConfig tunes the per-source rolling filter and the merged z-score filter.
type OutlierConfig struct {
	ZThreshold         float64 `yaml:"z_threshold" validate:"gt=0"`
	Window             int     `yaml:"window" validate:"gte=2"`
	MinPeriods         int     `yaml:"min_periods" validate:"gte=2"`
	GapBaselineMinutes int     `yaml:"gap_baseline_minutes" validate:"gt=0"`
	MaxReturnPercent   float64 `yaml:"max_return_percent" validate:"gt=0"`
	MergedZThreshold   float64 `yaml:"merged_z_threshold" validate:"gt=0"`
	// MergedMaxReturnPercent caps price moves of the unified trades.
	MergedMaxReturnPercent float64 `yaml:"merged_max_return_percent" validate:"gt=0"`
}

// ValidationConfig selects strict or flag-only bid/ask validation.
type ValidationConfig struct {
	Strict *bool `yaml:"strict"`
}

// ExportConfig selects where and how results are written.
type ExportConfig struct {
	Dir     string   `yaml:"dir" validate:"required"`
	Formats []string `yaml:"formats" validate:"dive,oneof=parquet csv"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

func boolPtr(v bool) *bool {
	return &v
}

func (c *Config) applyDefaults() {
	fetch := source.DefaultOptions()
	rolling := outlier.NewRollingPolicy()

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Store.Path == "" {
		c.Store.Path = "ticks.duckdb"
	}

	if c.Store.SchemaVersion == "" {
		c.Store.SchemaVersion = version.SchemaVersion
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = fetch.Timeout
	}

	if c.Fetch.MaxAttempts == 0 {
		c.Fetch.MaxAttempts = fetch.Retry.MaxAttempts
	}

	if c.Fetch.InitialInterval == 0 {
		c.Fetch.InitialInterval = fetch.Retry.InitialInterval
	}

	if c.Fetch.MaxInterval == 0 {
		c.Fetch.MaxInterval = fetch.Retry.MaxInterval
	}

	if c.Fetch.Parallel == nil {
		c.Fetch.Parallel = boolPtr(true)
	}

	if c.Fetch.AdjustTrades == nil {
		c.Fetch.AdjustTrades = boolPtr(fetch.AdjustTrades)
	}

	if c.Outlier.ZThreshold == 0 {
		c.Outlier.ZThreshold = rolling.Threshold
	}

	if c.Outlier.Window == 0 {
		c.Outlier.Window = rolling.Window
	}

	if c.Outlier.MinPeriods == 0 {
		c.Outlier.MinPeriods = rolling.MinPeriods
	}

	if c.Outlier.GapBaselineMinutes == 0 {
		c.Outlier.GapBaselineMinutes = int(rolling.GapBaseline / time.Minute)
	}

	if c.Outlier.MaxReturnPercent == 0 {
		c.Outlier.MaxReturnPercent = rolling.MaxReturnPercent
	}

	if c.Outlier.MergedZThreshold == 0 {
		c.Outlier.MergedZThreshold = outlier.DefaultZThreshold
	}

	if c.Outlier.MergedMaxReturnPercent == 0 {
		c.Outlier.MergedMaxReturnPercent = outlier.DefaultMergedMaxReturnPercent
	}

	if c.Validation.Strict == nil {
		c.Validation.Strict = boolPtr(true)
	}

	if c.Export.Dir == "" {
		c.Export.Dir = "output"
	}

	if len(c.Export.Formats) == 0 {
		c.Export.Formats = []string{string(export.FormatParquet)}
	}
}

// Validate checks field constraints and the session band.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if c.Outlier.MinPeriods > c.Outlier.Window {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"outlier.min_periods (%d) exceeds outlier.window (%d)", c.Outlier.MinPeriods, c.Outlier.Window)
	}

	session, err := c.Session.Session()
	if err != nil {
		return err
	}

	if !session.IsZero() && session.End <= session.Start {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "session end %s is not after start %s", c.Session.End, c.Session.Start)
	}

	return nil
}

// Session converts the band to offsets from midnight.
func (s SessionConfig) Session() (source.Session, error) {
	if s.Start == "" && s.End == "" {
		return source.Session{}, nil
	}

	if s.Start == "" || s.End == "" {
		return source.Session{}, errors.New(errors.ErrCodeInvalidConfiguration, "session needs both start and end")
	}

	start, err := clock(s.Start)
	if err != nil {
		return source.Session{}, err
	}

	end, err := clock(s.End)
	if err != nil {
		return source.Session{}, err
	}

	return source.Session{Start: start, End: end}, nil
}

func clock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid time of day %q", value)
	}

	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Pipeline builds the pipeline configuration. Call it on a validated config.
func (c *Config) Pipeline() pipeline.Config {
	session, _ := c.Session.Session()

	return pipeline.Config{
		Fetch: source.Options{
			Timeout: c.Fetch.Timeout,
			Retry: source.RetryPolicy{
				MaxAttempts:     c.Fetch.MaxAttempts,
				InitialInterval: c.Fetch.InitialInterval,
				MaxInterval:     c.Fetch.MaxInterval,
			},
			Session:      session,
			AdjustTrades: *c.Fetch.AdjustTrades,
		},
		ParallelFetch:    *c.Fetch.Parallel,
		StrictValidation: *c.Validation.Strict,
		SourcePolicy: outlier.RollingPolicy{
			Threshold:        c.Outlier.ZThreshold,
			Window:           c.Outlier.Window,
			MinPeriods:       c.Outlier.MinPeriods,
			GapBaseline:      time.Duration(c.Outlier.GapBaselineMinutes) * time.Minute,
			MaxReturnPercent: c.Outlier.MaxReturnPercent,
		},
		MergePolicy: outlier.ZScorePolicy{
			Threshold:        c.Outlier.MergedZThreshold,
			MaxReturnPercent: c.Outlier.MergedMaxReturnPercent,
		},
	}
}

// ExportFormats returns the configured export formats.
func (c *Config) ExportFormats() []export.Format {
	formats := make([]export.Format, len(c.Export.Formats))
	for i, f := range c.Export.Formats {
		formats[i] = export.Format(f)
	}

	return formats
}

func (c *Config) String() string {
	return fmt.Sprintf("store=%s export=%s formats=%v", c.Store.Path, c.Export.Dir, c.Export.Formats)
}
