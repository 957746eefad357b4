package source

import (
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// SubWindowFailure records a sub-window that produced no rows because its query failed.
type SubWindowFailure struct {
	Window  types.DateRange `json:"window"`
	Offsets []int           `json:"offsets,omitempty"`
	Error   string          `json:"error"`
}

// FetchReport summarises one adapter call.
type FetchReport struct {
	SubWindows     int                `json:"sub_windows"`
	Succeeded      int                `json:"succeeded"`
	Skipped        int                `json:"skipped"`
	Failures       []SubWindowFailure `json:"failures,omitempty"`
	Orders         int                `json:"orders"`
	Trades         int                `json:"trades"`
	TradesAdjusted int                `json:"trades_adjusted"`
}

// Failed reports whether every attempted sub-window failed or was skipped.
func (r FetchReport) Failed() bool {
	return r.SubWindows > 0 && r.Succeeded == 0
}
