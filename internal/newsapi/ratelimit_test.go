package newsapi

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLimiter returns a limiter on a fake clock whose sleeps are recorded and
// immediately "served" by advancing the clock.
func testLimiter(ceiling, reserve int) (*Limiter, *time.Time, *[]time.Duration) {
	current := time.Unix(1700000000, 0)
	var slept []time.Duration

	l := NewLimiter(ceiling, reserve, zerolog.Nop())
	l.now = func() time.Time { return current }
	l.windowStart = current
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		current = current.Add(d)
		return nil
	}
	return l, &current, &slept
}

func TestLimiter_AllowsUpToCeilingMinusReserve(t *testing.T) {
	l, _, slept := testLimiter(200, 10)

	for i := 0; i < 189; i++ {
		require.NoError(t, l.Wait(context.Background()))
		l.Record()
	}

	assert.Empty(t, *slept)
	assert.Equal(t, 189, l.Snapshot().RequestCount)
}

func TestLimiter_PausesUntilWindowExpiresThenResets(t *testing.T) {
	l, current, slept := testLimiter(200, 10)

	for i := 0; i < 190; i++ {
		require.NoError(t, l.Wait(context.Background()))
		l.Record()
	}
	start := *current
	*current = start.Add(20 * time.Minute)

	// Budget is spent: the next attempt must wait out the remaining 40
	// minutes of the window and come back with a fresh count.
	require.NoError(t, l.Wait(context.Background()))

	require.Len(t, *slept, 1)
	assert.Equal(t, 40*time.Minute, (*slept)[0])
	assert.Equal(t, 0, l.Snapshot().RequestCount)
	assert.Equal(t, start.Add(time.Hour), l.Snapshot().WindowStart)
}

func TestLimiter_WindowRollResetsWithoutPausing(t *testing.T) {
	l, current, slept := testLimiter(200, 10)

	for i := 0; i < 190; i++ {
		require.NoError(t, l.Wait(context.Background()))
		l.Record()
	}
	*current = current.Add(61 * time.Minute)

	require.NoError(t, l.Wait(context.Background()))

	assert.Empty(t, *slept)
	assert.Equal(t, 0, l.Snapshot().RequestCount)
}

func TestLimiter_PauseIsCancellable(t *testing.T) {
	l, _, _ := testLimiter(100, 10)
	l.sleep = sleepContext
	for i := 0; i < 90; i++ {
		l.Record()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLimiter_Snapshot(t *testing.T) {
	l, current, _ := testLimiter(200, 10)
	require.NoError(t, l.Wait(context.Background()))
	l.Record()

	snap := l.Snapshot()
	assert.Equal(t, 1, snap.RequestCount)
	assert.Equal(t, 200, snap.MaxPerHour)
	assert.Equal(t, *current, snap.WindowStart)
}
