package ingest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsflow/internal/dedup"
	"newsflow/internal/newsapi"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("not a cron spec", &Service{}, zerolog.Nop())
	require.Error(t, err)
}

// TestSchedulerSkipsOverlappingRun a trigger firing while a pass is still
// executing must not start a second pass.
func TestSchedulerSkipsOverlappingRun(t *testing.T) {
	fetcher := &mockFetcher{}
	store := &mockStore{}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	store.On("InitSummary", mock.Anything, mock.Anything).Return(nil).Once()
	fetcher.On("Fetch", mock.Anything, "business").
		Return(noRaw(), nil).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Once()
	fetcher.On("Fetch", mock.Anything, "world").
		Return(noRaw(), nil).
		Run(func(mock.Arguments) { close(done) }).Once()

	logBuf := &bytes.Buffer{}
	logger := zerolog.New(zerolog.SyncWriter(logBuf))

	svc := NewService(
		fetcher,
		store,
		dedup.NewFilter(&mockIndex{}, logger),
		&mockPublisher{},
		newsapi.NewLimiter(200, 10, zerolog.Nop()),
		[]string{"business", "world"},
		0,
		20,
		logger,
	)
	svc.sleep = func(context.Context, time.Duration) error { return nil }

	sched, err := NewScheduler("@every 1h", svc, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)

	// Wait until the initial pass is mid-flight, then fire the job again the
	// way a cron trigger would.
	<-started
	sched.job.Run()
	assert.Contains(t, logBuf.String(), "skip")

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("initial pass did not finish")
	}

	sched.Stop()
	fetcher.AssertExpectations(t)
	store.AssertExpectations(t)
}
