package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"newsflow/internal/article"
	"newsflow/internal/dedup"
	"newsflow/internal/event"
	"newsflow/internal/newsapi"
)

// Fetcher performs a single category fetch against the upstream provider.
type Fetcher interface {
	Fetch(ctx context.Context, category string) ([]newsapi.RawArticle, error)
}

// Store is the storage access one ingestion pass needs.
type Store interface {
	SaveArticle(ctx context.Context, category string, a *article.Article) error
	InitSummary(ctx context.Context, categories []string) error
	RecordCycle(ctx context.Context, category string, added int, snap newsapi.Snapshot) error
}

// Service orchestrates one full ingestion pass: every category in fixed
// order, throttled by an inter-request delay, fetched, filtered, persisted
// and folded into the summary document.
type Service struct {
	fetcher   Fetcher
	store     Store
	filter    *dedup.Filter
	publisher event.Publisher
	limiter   *newsapi.Limiter

	categories     []string
	delay          time.Duration
	maxPerCategory int

	logger zerolog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewService(
	fetcher Fetcher,
	store Store,
	filter *dedup.Filter,
	publisher event.Publisher,
	limiter *newsapi.Limiter,
	categories []string,
	delay time.Duration,
	maxPerCategory int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		fetcher:        fetcher,
		store:          store,
		filter:         filter,
		publisher:      publisher,
		limiter:        limiter,
		categories:     categories,
		delay:          delay,
		maxPerCategory: maxPerCategory,
		logger:         logger,
		now:            time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
}

// RunPass executes one full ingestion cycle. Article-level failures never
// escalate past their article and category-level failures abort only their
// category. An exhausted rate-limit retry budget stops the pass; remaining
// categories are deferred to the next scheduled run. The returned error is
// non-nil only when the context is cancelled.
func (s *Service) RunPass(ctx context.Context) error {
	s.logger.Info().Msg("starting ingestion pass")

	if err := s.store.InitSummary(ctx, s.categories); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error().Err(err).Msg("summary init failed, deferring pass")
		return nil
	}

	totalAdded := 0
	successful := 0

	for i, cat := range s.categories {
		// Inter-request delay, skipped before the first category.
		if i > 0 {
			s.logger.Debug().Dur("delay", s.delay).Msg("waiting before next request")
			if err := s.sleep(ctx, s.delay); err != nil {
				return err
			}
		}

		added, err := s.runCategory(ctx, cat)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, newsapi.ErrRateLimitExceeded) {
				s.logger.Warn().
					Str("category", cat).
					Msg("rate limit exhausted, stopping pass; remaining categories deferred to next run")
				break
			}
			s.logger.Error().Err(err).Str("category", cat).Msg("category failed, continuing with next")
			continue
		}

		totalAdded += added
		successful++
	}

	s.logger.Info().
		Int("articlesAdded", totalAdded).
		Int("successfulCategories", successful).
		Int("totalCategories", len(s.categories)).
		Int("requestsUsed", s.limiter.Snapshot().RequestCount).
		Msg("ingestion pass finished")

	return nil
}

// runCategory fetches, filters and persists one category. The returned count
// is the number of newly stored articles.
func (s *Service) runCategory(ctx context.Context, category string) (int, error) {
	s.logger.Info().Str("category", category).Msg("fetching category")

	raw, err := s.fetcher.Fetch(ctx, category)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		s.logger.Info().Str("category", category).Msg("no articles returned")
		return 0, nil
	}

	if len(raw) > s.maxPerCategory {
		raw = raw[:s.maxPerCategory]
	}

	candidates := make([]*article.Article, 0, len(raw))
	for _, r := range raw {
		candidates = append(candidates, FromRaw(r, category, s.now()))
	}

	accepted, skipped := s.filter.Apply(ctx, category, candidates)

	added := 0
	for _, a := range accepted {
		if err := s.store.SaveArticle(ctx, category, a); err != nil {
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			// Article-local: log with enough context to replay by hand.
			s.logger.Error().Err(err).
				Str("category", category).
				Str("id", a.ID).
				Str("title", a.Title).
				Str("link", a.Link).
				Msg("storage write failed, skipping article")
			continue
		}
		added++

		if err := s.publisher.PublishArticleIngested(ctx, a); err != nil {
			s.logger.Error().Err(err).
				Str("id", a.ID).
				Msg("event publish failed")
		}
	}

	if err := s.store.RecordCycle(ctx, category, added, s.limiter.Snapshot()); err != nil {
		s.logger.Error().Err(err).
			Str("category", category).
			Msg("summary update failed")
	}

	s.logger.Info().
		Str("category", category).
		Int("fetched", len(raw)).
		Int("added", added).
		Int("skipped", len(skipped)).
		Msg("category finished")

	return added, nil
}
