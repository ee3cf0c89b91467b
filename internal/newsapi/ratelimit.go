package newsapi

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// window is the rolling period over which requests are counted.
const window = time.Hour

// sleepFunc is injectable so tests can observe waits instead of serving them.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Snapshot is the limiter state mirrored into the aggregate summary document.
type Snapshot struct {
	RequestCount int       `bson:"requestCount" json:"requestCount"`
	WindowStart  time.Time `bson:"lastReset" json:"lastReset"`
	MaxPerHour   int       `bson:"maxPerHour" json:"maxPerHour"`
}

// Limiter tracks the request budget for the current rolling hour and gates
// upstream calls. When the count approaches the ceiling (ceiling minus a
// reserve that guards against overshoot) the caller is paused until the
// window naturally expires. State is not persisted: a restart grants a fresh
// window, a known and accepted staleness.
type Limiter struct {
	mu           sync.Mutex
	ceiling      int
	reserve      int
	requestCount int
	windowStart  time.Time

	now    func() time.Time
	sleep  sleepFunc
	logger zerolog.Logger
}

func NewLimiter(ceiling, reserve int, logger zerolog.Logger) *Limiter {
	l := &Limiter{
		ceiling: ceiling,
		reserve: reserve,
		now:     time.Now,
		sleep:   sleepContext,
		logger:  logger,
	}
	l.windowStart = l.now()
	return l
}

// Wait blocks until a request may proceed. It rolls the window over when an
// hour has elapsed, and pauses for the remainder of the window when the
// budget is spent. The pause is a cooperative sleep cancelled by ctx.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()

	now := l.now()
	if now.Sub(l.windowStart) > window {
		l.requestCount = 0
		l.windowStart = now
		l.logger.Info().Msg("hourly request count reset")
	}

	if l.requestCount >= l.ceiling-l.reserve {
		remaining := window - now.Sub(l.windowStart)
		l.mu.Unlock()

		l.logger.Warn().
			Dur("pause", remaining).
			Msg("approaching rate limit, pausing execution")

		if err := l.sleep(ctx, remaining); err != nil {
			return err
		}

		l.mu.Lock()
		l.requestCount = 0
		l.windowStart = l.now()
	}

	l.mu.Unlock()
	return nil
}

// Record counts one successful request against the current window.
func (l *Limiter) Record() {
	l.mu.Lock()
	l.requestCount++
	l.mu.Unlock()
}

// Snapshot returns a copy of the limiter state for observability.
func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		RequestCount: l.requestCount,
		WindowStart:  l.windowStart,
		MaxPerHour:   l.ceiling,
	}
}
