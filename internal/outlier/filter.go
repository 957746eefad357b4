package outlier

import (
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"go.uber.org/zap"
)

// Mode selects what happens to flagged trades.
type Mode int

const (
	// ModeRemove drops flagged trades.
	ModeRemove Mode = iota
	// ModeMark keeps flagged trades with Outlier set.
	ModeMark
)

// Report counts the trades a filter looked at and what it did with them.
type Report struct {
	Policy   string `json:"policy"`
	Examined int    `json:"examined"`
	Flagged  int    `json:"flagged"`
	Removed  int    `json:"removed"`
}

// Filter applies a Policy to the trades of a dataset.
type Filter struct {
	policy Policy
	mode   Mode
	logger *logger.Logger
}

// NewFilter creates a Filter.
func NewFilter(policy Policy, mode Mode, log *logger.Logger) *Filter {
	return &Filter{policy: policy, mode: mode, logger: log.Named("outlier")}
}

// Apply returns a new dataset in which flagged trades are removed or marked.
// Quotes pass through in place.
func (f *Filter) Apply(name string, ds types.Dataset) (types.Dataset, Report) {
	report := Report{Policy: f.policy.Name()}

	var trades []types.MarketRecord
	var positions []int
	for i, r := range ds.Records {
		if r.IsTrade() {
			trades = append(trades, r)
			positions = append(positions, i)
		}
	}

	// Detect expects time order; records of a Dataset already are.
	flags := f.policy.Detect(trades)

	flagged := make(map[int]bool, len(flags))
	for k, flag := range flags {
		if flag {
			flagged[positions[k]] = true
			report.Flagged++
		}
	}

	report.Examined = len(trades)

	out := make([]types.MarketRecord, 0, len(ds.Records))
	for i, r := range ds.Records {
		if flagged[i] {
			if f.mode == ModeRemove {
				report.Removed++

				continue
			}

			r.Outlier = true
		}

		out = append(out, r)
	}

	if report.Flagged > 0 {
		f.logger.Info("Price outliers detected",
			zap.String("dataset", name),
			zap.String("policy", report.Policy),
			zap.Int("examined", report.Examined),
			zap.Int("flagged", report.Flagged),
			zap.Int("removed", report.Removed),
		)
	}

	return types.Dataset{Records: out}, report
}
