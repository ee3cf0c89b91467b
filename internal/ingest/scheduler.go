package ingest

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler drives the recurring ingestion schedule: one pass immediately at
// start, then one per cron trigger. A trigger that fires while a pass is
// still executing is skipped, so passes never overlap.
type Scheduler struct {
	cron   *cron.Cron
	job    cron.Job
	base   context.Context
	logger zerolog.Logger
}

func NewScheduler(spec string, service *Service, logger zerolog.Logger) (*Scheduler, error) {
	cronLog := cron.VerbosePrintfLogger(&logger)

	s := &Scheduler{base: context.Background(), logger: logger}

	run := cron.FuncJob(func() {
		if err := service.RunPass(s.base); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("scheduled pass failed")
		}
	})
	s.job = cron.NewChain(cron.SkipIfStillRunning(cronLog)).Then(run)

	s.cron = cron.New(cron.WithLogger(cronLog))
	if _, err := s.cron.AddJob(spec, s.job); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the cron schedule and kicks off the initial pass. Passes run
// under ctx, so cancelling it interrupts an in-flight pass cooperatively.
// The initial pass goes through the same non-overlap wrapper as scheduled
// ones.
func (s *Scheduler) Start(ctx context.Context) {
	s.base = ctx
	s.cron.Start()
	go s.job.Run()
	s.logger.Info().Msg("scheduler started")
}

// Stop halts the schedule and blocks until any cron-started pass completes.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}
