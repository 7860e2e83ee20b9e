package sync

import (
	"context"
	"time"
)

// Pacer enforces the fixed delay awaited after every remote write so batches
// do not overwhelm the site. Read-only lookups are not paced.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a Pacer with the given inter-write delay.
// A zero or negative delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait sleeps for the configured delay, returning early if ctx is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
