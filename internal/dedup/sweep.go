package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"newsflow/internal/article"
)

// SweepStore is the storage access the near-duplicate sweep needs.
type SweepStore interface {
	ListArticles(ctx context.Context, category string) ([]article.Article, error)
	DeleteArticles(ctx context.Context, category string, ids []string) (int64, error)
}

// Sweeper runs the maintenance-time near-duplicate pass: articles whose
// titles score above the similarity threshold are presumed retellings of the
// same story, and the later-published one is deleted.
type Sweeper struct {
	store     SweepStore
	threshold float64
	logger    zerolog.Logger
}

func NewSweeper(store SweepStore, threshold float64, logger zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, threshold: threshold, logger: logger}
}

// SweepCategory compares every unordered pair of stored articles in the
// category and deletes near-duplicates in one batched call. Once an article
// is marked for deletion it is excluded from further comparisons, so each
// article participates in at most one deletion decision per sweep. The pass
// is O(n^2) over the category; categories are maintenance-swept, not sized
// for per-request use.
func (s *Sweeper) SweepCategory(ctx context.Context, category string) (int64, error) {
	docs, err := s.store.ListArticles(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", category, err)
	}

	marked := make(map[string]struct{})
	var toDelete []string

	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			if _, ok := marked[docs[i].ID]; ok {
				break
			}
			if _, ok := marked[docs[j].ID]; ok {
				continue
			}

			score := Similarity(docs[i].Title, docs[j].Title)
			if score <= s.threshold {
				continue
			}

			// Keep the earlier-published article; on equal pubDate the
			// second of the pair is deleted.
			kept, loser := &docs[i], &docs[j]
			if docs[i].PubDate > docs[j].PubDate {
				kept, loser = &docs[j], &docs[i]
			}

			marked[loser.ID] = struct{}{}
			toDelete = append(toDelete, loser.ID)

			s.logger.Info().
				Str("category", category).
				Float64("similarity", score).
				Str("kept", kept.Title).
				Str("deleted", loser.Title).
				Msg("near-duplicate titles found")
		}
	}

	if len(toDelete) == 0 {
		return 0, nil
	}

	deleted, err := s.store.DeleteArticles(ctx, category, toDelete)
	if err != nil {
		return 0, fmt.Errorf("delete near-duplicates in %s: %w", category, err)
	}
	return deleted, nil
}

// Sweep runs SweepCategory over each category in order. A failing category is
// logged and skipped; the sweep continues.
func (s *Sweeper) Sweep(ctx context.Context, categories []string) int64 {
	var total int64
	for _, cat := range categories {
		n, err := s.SweepCategory(ctx, cat)
		if err != nil {
			s.logger.Error().Err(err).Str("category", cat).Msg("near-duplicate sweep failed")
			continue
		}
		total += n
	}
	s.logger.Info().Int64("deleted", total).Msg("near-duplicate sweep finished")
	return total
}
