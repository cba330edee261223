package session

import (
	"context"
	"os"
	"time"
)

// AwaitPlaylist polls for the playlist file at a fixed interval, up to
// attempts checks. It returns nil as soon as the file exists, without waiting
// out the remaining budget. Exhausting the budget returns ErrReadinessTimeout;
// a canceled context returns ctx.Err().
//
// Existence is a weak readiness proxy (the muxer could still be mid-write),
// but the first playlist write already references a complete first segment,
// which is enough for players to start.
func AwaitPlaylist(ctx context.Context, path string, attempts int, interval time.Duration) error {
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for i := 0; i < attempts; i++ {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return ErrReadinessTimeout
}

const (
	// DefaultPollAttempts and DefaultPollInterval give a 10s readiness budget,
	// tolerant of slow remote fetches. A tighter 10 × 200ms configuration
	// favors responsiveness instead; both are legitimate.
	DefaultPollAttempts = 20
	DefaultPollInterval = 500 * time.Millisecond
)
