// Package session runs the periodic timers of an interactive session: the
// usage ticker that feeds analytics and the view refresh ticker.
package session

import (
	"context"
	"time"
)

// Default intervals.
const (
	DefaultUsageInterval   = time.Minute
	DefaultRefreshInterval = 30 * time.Second
)

// Options configures Run. Nil callbacks are skipped.
type Options struct {
	UsageInterval   time.Duration
	RefreshInterval time.Duration

	// Visible reports whether the session is in the foreground. Usage is only
	// counted while it returns true. Nil means always visible.
	Visible func() bool

	OnUsage   func()
	OnRefresh func()
}

// Run drives both tickers until ctx is done and returns ctx.Err().
// Callbacks run on Run's goroutine, one at a time.
func Run(ctx context.Context, opts Options) error {
	usageEvery := opts.UsageInterval
	if usageEvery <= 0 {
		usageEvery = DefaultUsageInterval
	}
	refreshEvery := opts.RefreshInterval
	if refreshEvery <= 0 {
		refreshEvery = DefaultRefreshInterval
	}

	usage := time.NewTicker(usageEvery)
	defer usage.Stop()
	refresh := time.NewTicker(refreshEvery)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-usage.C:
			if opts.OnUsage != nil && (opts.Visible == nil || opts.Visible()) {
				opts.OnUsage()
			}
		case <-refresh.C:
			if opts.OnRefresh != nil {
				opts.OnRefresh()
			}
		}
	}
}
