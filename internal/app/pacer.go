package app

import (
	"context"
	"time"
)

// Pacer spaces out requests to the source.
type Pacer interface {
	// Pause waits before the next request. It returns early with the
	// context's error if ctx ends first.
	Pause(ctx context.Context) error
}

// DelayPacer pauses for a fixed delay.
type DelayPacer struct {
	Delay time.Duration
}

// NewDelayPacer returns a pacer that waits d after every request.
func NewDelayPacer(d time.Duration) *DelayPacer {
	return &DelayPacer{Delay: d}
}

// Pause implements Pacer.
func (p *DelayPacer) Pause(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
