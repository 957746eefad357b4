// Package pipeline runs one request through fetch, normalization, validation,
// outlier cleaning and merge, and collects the result of every branch.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/contract"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/merge"
	"github.com/rxtech-lab/argo-spreadfetch/internal/normalize"
	"github.com/rxtech-lab/argo-spreadfetch/internal/outlier"
	"github.com/rxtech-lab/argo-spreadfetch/internal/period"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/internal/validate"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds everything a run needs besides the request.
type Config struct {
	Fetch source.Options
	// ParallelFetch runs the primary and synthetic fetch of a spread concurrently.
	ParallelFetch bool
	// StrictValidation removes crossed quotes instead of flagging them.
	StrictValidation bool
	// SourcePolicy cleans each source before unification.
	SourcePolicy outlier.RollingPolicy
	// MergePolicy cleans the unified trades.
	MergePolicy outlier.ZScorePolicy
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Fetch:            source.DefaultOptions(),
		ParallelFetch:    true,
		StrictValidation: true,
		SourcePolicy:     outlier.NewRollingPolicy(),
		MergePolicy:      outlier.NewMergedZScorePolicy(),
	}
}

// Pipeline runs requests against a primary and a synthetic engine.
type Pipeline struct {
	primary   source.PrimaryEngine
	synthetic source.SyntheticEngine
	config    Config
	logger    *logger.Logger
	now       func() time.Time
}

// New creates a Pipeline.
func New(primary source.PrimaryEngine, synthetic source.SyntheticEngine, config Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		primary:   primary,
		synthetic: synthetic,
		config:    config,
		logger:    log.Named("pipeline"),
		now:       time.Now,
	}
}

// WithClock replaces the clock used to resolve lookback windows.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now

	return p
}

// run holds the per-request state. Every run gets its own validator.
type run struct {
	*Pipeline
	validator   *validate.BidAskValidator
	sourceClean *outlier.Filter
	merger      *merge.Engine
}

// Run executes one request. Request and parse errors abort the run; fetch
// errors are recorded on their branch and never returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	startedAt := p.now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(req.Contracts) > 2 {
		return nil, errors.Newf(errors.ErrCodeUnsupportedContractCount,
			"expected 1 or 2 contracts, got %d", len(req.Contracts))
	}

	legs, err := contract.ParseAll(req.Contracts)
	if err != nil {
		return nil, err
	}

	window, err := req.Window(legs, startedAt)
	if err != nil {
		return nil, err
	}

	validator := validate.NewBidAskValidator(p.config.StrictValidation, p.logger)
	r := &run{
		Pipeline:    p,
		validator:   validator,
		sourceClean: outlier.NewFilter(p.config.SourcePolicy, outlier.ModeRemove, p.logger),
		merger: merge.NewEngine(validator,
			outlier.NewFilter(p.config.MergePolicy, outlier.ModeRemove, p.logger), p.logger),
	}

	result := &Result{
		Metadata: Metadata{
			RunID:     uuid.New().String(),
			Request:   req,
			Contracts: legs,
			Window:    window,
			StartedAt: startedAt,
		},
	}

	p.logger.Info("Run started",
		zap.String("run_id", result.Metadata.RunID),
		zap.Strings("contracts", req.Contracts),
		zap.Stringer("window", window),
	)

	if len(legs) == 1 {
		result.SingleLeg = optional.Some(r.legBranch(ctx, BranchSingleLeg, legs[0], window))
	} else {
		r.spread(ctx, req, legs, window, result)
	}

	result.Metadata.FinishedAt = p.now()
	result.Metadata.Validation = validator.Stats()

	for _, b := range result.Branches() {
		if b.Err != nil {
			p.logger.Warn("Branch failed", zap.String("branch", b.Name), zap.Error(b.Err))
		}
	}

	p.logger.Info("Run finished",
		zap.String("run_id", result.Metadata.RunID),
		zap.Int("branches", len(result.Branches())),
		zap.Duration("elapsed", result.Metadata.FinishedAt.Sub(startedAt)),
	)

	return result, nil
}

// prepared is a normalized, validated and cleaned source.
type prepared struct {
	dataset  types.Dataset
	report   source.FetchReport
	cleaning outlier.Report
}

func (r *run) spread(ctx context.Context, req Request, legs []types.ContractSpec, window types.DateRange, result *Result) {
	var (
		primary, synthetic       prepared
		primaryErr, syntheticErr error
	)

	fetchPrimary := func(ctx context.Context) {
		primary, primaryErr = r.fetchPrimary(ctx, legs, window)
	}

	fetchSynthetic := func(ctx context.Context) {
		resolver := period.NewResolver(req.TransitionDays)
		synthetic, syntheticErr = r.fetchSynthetic(ctx, resolver, legs, req.Coefficients, window)
	}

	if r.config.ParallelFetch && req.Options.IncludePrimary && req.Options.IncludeSynthetic {
		// Branch errors are kept on the branch so neither fetch cancels the other.
		var g errgroup.Group
		g.Go(func() error { fetchPrimary(ctx); return nil })
		g.Go(func() error { fetchSynthetic(ctx); return nil })
		_ = g.Wait()
	} else {
		if req.Options.IncludePrimary {
			fetchPrimary(ctx)
		}

		if req.Options.IncludeSynthetic {
			fetchSynthetic(ctx)
		}
	}

	if req.Options.IncludePrimary {
		if primaryErr != nil {
			result.Primary = optional.Some(failedBranch(BranchPrimary, primaryErr))
		} else {
			result.Primary = optional.Some(r.unify(BranchPrimary, primary, prepared{}))
		}
	}

	if req.Options.IncludeSynthetic {
		if syntheticErr != nil {
			result.Synthetic = optional.Some(failedBranch(BranchSynthetic, syntheticErr))
		} else {
			result.Synthetic = optional.Some(r.unify(BranchSynthetic, prepared{}, synthetic))
		}
	}

	switch {
	case !req.Options.IncludePrimary || !req.Options.IncludeSynthetic:
		result.MergeSkipped = optional.Some("merge needs both the primary and the synthetic branch")
	case primaryErr != nil || syntheticErr != nil:
		result.MergeSkipped = optional.Some("an upstream branch failed")
	default:
		result.Merged = optional.Some(r.unify(BranchMerged, primary, synthetic))
	}

	if result.MergeSkipped.IsSome() {
		r.logger.Info("Merge skipped", zap.String("reason", result.MergeSkipped.Unwrap()))
	}

	if req.Options.IncludeIndividualLegs {
		for i, leg := range legs {
			result.Legs = append(result.Legs, r.legBranch(ctx, legName(i), leg, window))
		}
	}
}

// legBranch fetches one leg from the primary source. It never merges.
func (r *run) legBranch(ctx context.Context, name string, leg types.ContractSpec, window types.DateRange) BranchResult {
	p, err := r.fetchPrimary(ctx, []types.ContractSpec{leg}, window)
	if err != nil {
		return failedBranch(name, err)
	}

	trades, quotes := p.dataset.Trades(), p.dataset.Quotes()
	data := BranchData{
		Dataset: p.dataset,
		Counts: merge.Counts{
			PrimaryTrades: len(trades),
			PrimaryQuotes: len(quotes),
			UnifiedTotal:  p.dataset.Len(),
		},
		Outliers: p.cleaning,
	}

	if p.report.SubWindows > 0 {
		data.Fetch = []source.FetchReport{p.report}
	}

	return okBranch(name, data)
}

func (r *run) fetchPrimary(ctx context.Context, legs []types.ContractSpec, window types.DateRange) (prepared, error) {
	adapter := source.NewPrimaryAdapter(r.primary, r.config.Fetch, r.logger)

	table, report, err := adapter.Fetch(ctx, legs, window)
	if err != nil {
		return prepared{report: report}, err
	}

	return r.prepare("primary", normalize.Primary(table), report), nil
}

func (r *run) fetchSynthetic(ctx context.Context, resolver *period.Resolver, legs []types.ContractSpec, coefficients []float64, window types.DateRange) (prepared, error) {
	adapter := source.NewSyntheticAdapter(r.synthetic, resolver, r.config.Fetch, r.logger)

	table, report, err := adapter.Fetch(ctx, legs, coefficients, window)
	if err != nil {
		return prepared{report: report}, err
	}

	return r.prepare("synthetic", normalize.Synthetic(table), report), nil
}

func (r *run) prepare(name string, ds types.Dataset, report source.FetchReport) prepared {
	validated := r.validator.Validate(name, ds)
	cleaned, cleaning := r.sourceClean.Apply(name, validated)

	return prepared{dataset: cleaned, report: report, cleaning: cleaning}
}

// unify merges the prepared sources; a zero prepared acts as an empty source.
func (r *run) unify(name string, primary, synthetic prepared) BranchResult {
	merged := r.merger.Merge(primary.dataset, synthetic.dataset)

	data := BranchData{
		Dataset:  merged.Dataset,
		Counts:   merged.Counts,
		Outliers: merged.Outliers,
	}

	for _, p := range []prepared{primary, synthetic} {
		if p.report.SubWindows > 0 {
			data.Fetch = append(data.Fetch, p.report)
			data.Cleaning = append(data.Cleaning, p.cleaning)
		}
	}

	return okBranch(name, data)
}
