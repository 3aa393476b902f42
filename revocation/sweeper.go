package revocation

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// SweepFunc runs one garbage-collection pass.
type SweepFunc func(ctx context.Context) (int64, error)

// Sweeper calls a SweepFunc on a fixed interval until its context ends.
type Sweeper struct {
	sweep    SweepFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper returns a sweeper. A nil logger discards output.
func NewSweeper(sweep SweepFunc, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{sweep: sweep, interval: interval, logger: logger}
}

// Run blocks, sweeping once per interval, and returns when ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs the result.
func (s *Sweeper) RunOnce(ctx context.Context) {
	removed, err := s.sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.WarnContext(ctx, "revocation sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "revocation sweep", "removed", removed)
	}
}
