package source

import "time"

// RetryPolicy configures retries of a single engine call.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ProgressFunc is notified after every sub-window query.
type ProgressFunc func(done, total int)

// Options configures both adapters.
type Options struct {
	// Timeout bounds every engine call; zero disables it.
	Timeout time.Duration
	Retry   RetryPolicy
	Session Session
	// AdjustTrades drops synthetic fills that sit inside the synthetic quote.
	AdjustTrades bool
	Progress     ProgressFunc
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Timeout: 30 * time.Second,
		Retry: RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		},
		AdjustTrades: true,
	}
}
