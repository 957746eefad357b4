package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/merge"
	"github.com/rxtech-lab/argo-spreadfetch/internal/outlier"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/internal/validate"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// Branch names, also the prefix of their result keys.
const (
	BranchSingleLeg = "single_leg"
	BranchPrimary   = "primary_spread"
	BranchSynthetic = "synthetic_spread"
	BranchMerged    = "merged_spread"
)

// BranchData is the unified output of one branch.
type BranchData struct {
	Dataset types.Dataset `json:"dataset"`
	Counts  merge.Counts  `json:"counts"`
	// Fetch holds the adapter reports that fed the branch; empty for the merged branch.
	Fetch []source.FetchReport `json:"fetch,omitempty"`
	// Cleaning holds the per-source outlier reports applied before unification.
	Cleaning []outlier.Report `json:"cleaning,omitempty"`
	Outliers outlier.Report   `json:"outliers"`
}

// BranchResult is either the branch's data or the error that stopped it.
type BranchResult struct {
	Name string
	Data optional.Option[BranchData]
	Err  error
}

func okBranch(name string, data BranchData) BranchResult {
	return BranchResult{Name: name, Data: optional.Some(data)}
}

func failedBranch(name string, err error) BranchResult {
	return BranchResult{Name: name, Err: err}
}

// Ok reports whether the branch produced data.
func (b BranchResult) Ok() bool {
	return b.Err == nil && b.Data.IsSome()
}

// Metadata echoes the request and records how it was resolved.
type Metadata struct {
	RunID      string               `json:"run_id"`
	Request    Request              `json:"request"`
	Contracts  []types.ContractSpec `json:"contracts"`
	Window     types.DateRange      `json:"window"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Validation validate.Stats       `json:"validation"`
}

// Result is the outcome of one Run. Only the branches that were taken are set.
type Result struct {
	Metadata  Metadata
	SingleLeg optional.Option[BranchResult]
	Primary   optional.Option[BranchResult]
	Synthetic optional.Option[BranchResult]
	Merged    optional.Option[BranchResult]
	Legs      []BranchResult
	// MergeSkipped explains why a spread request produced no merged branch.
	MergeSkipped optional.Option[string]
}

// IsSpread reports whether the request had two legs.
func (r *Result) IsSpread() bool {
	return len(r.Metadata.Contracts) == 2
}

// Branches returns every branch that was taken, in a stable order.
func (r *Result) Branches() []BranchResult {
	var out []BranchResult
	for _, b := range []optional.Option[BranchResult]{r.SingleLeg, r.Primary, r.Synthetic, r.Merged} {
		if b.IsSome() {
			out = append(out, b.Unwrap())
		}
	}

	return append(out, r.Legs...)
}

// Final returns the most complete dataset: merged, else synthetic, else
// primary, else single leg.
func (r *Result) Final() (string, types.Dataset, bool) {
	for _, b := range []optional.Option[BranchResult]{r.Merged, r.Synthetic, r.Primary, r.SingleLeg} {
		if b.IsSome() && b.Unwrap().Ok() {
			return b.Unwrap().Name, b.Unwrap().Data.Unwrap().Dataset, true
		}
	}

	return "", types.Dataset{}, false
}

// MarshalJSON writes the result as a flat object keyed "<branch>_data" and
// "<branch>_error", next to "metadata".
func (r *Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"metadata": r.Metadata}

	for _, b := range r.Branches() {
		if b.Err != nil {
			out[b.Name+"_error"] = errors.ToInfo(b.Err)

			continue
		}

		if b.Data.IsSome() {
			out[b.Name+"_data"] = b.Data.Unwrap()
		}
	}

	if r.MergeSkipped.IsSome() {
		out["merge_skipped"] = errors.Info{
			Code:    errors.ErrCodeMergeSkipped,
			Name:    errors.ErrCodeMergeSkipped.String(),
			Message: r.MergeSkipped.Unwrap(),
		}
	}

	return json.Marshal(out)
}

func legName(i int) string {
	return fmt.Sprintf("leg_%d", i+1)
}
