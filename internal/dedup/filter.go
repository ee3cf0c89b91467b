package dedup

import (
	"context"

	"github.com/rs/zerolog"

	"newsflow/internal/article"
)

// SkipReason explains why a candidate was rejected from a batch. Rejections
// are expected filtering outcomes, not errors.
type SkipReason string

const (
	// SkipIncomplete marks a candidate missing a mandatory field.
	SkipIncomplete SkipReason = "incomplete"
	// SkipDuplicateFingerprint marks a candidate whose fingerprint is already
	// stored for the category, or already seen earlier in the same batch.
	SkipDuplicateFingerprint SkipReason = "duplicate_fingerprint"
)

// Skip pairs a rejected candidate with its reason.
type Skip struct {
	Article *article.Article
	Reason  SkipReason
}

// FingerprintIndex is the lookup the filter needs from storage: whether a
// fingerprint is already present in a category collection.
type FingerprintIndex interface {
	FingerprintExists(ctx context.Context, category, fingerprint string) (bool, error)
}

// Filter applies exact-fingerprint and completeness checks to a candidate
// batch for one category.
type Filter struct {
	index  FingerprintIndex
	logger zerolog.Logger
}

func NewFilter(index FingerprintIndex, logger zerolog.Logger) *Filter {
	return &Filter{index: index, logger: logger}
}

// Apply returns the accepted subset of candidates plus the rejected ones with
// reasons. Candidates are checked in order: completeness first, then the
// batch-local seen set, then the stored fingerprint index. A failed index
// lookup skips only that candidate.
func (f *Filter) Apply(ctx context.Context, category string, candidates []*article.Article) ([]*article.Article, []Skip) {
	accepted := make([]*article.Article, 0, len(candidates))
	var skipped []Skip
	seen := make(map[string]struct{}, len(candidates))

	for _, cand := range candidates {
		if !cand.Complete() {
			f.logger.Info().
				Str("category", category).
				Str("title", cand.Title).
				Msg("skipping article: missing mandatory fields")
			skipped = append(skipped, Skip{Article: cand, Reason: SkipIncomplete})
			continue
		}

		if _, dup := seen[cand.Fingerprint]; dup {
			f.logger.Info().
				Str("category", category).
				Str("title", cand.Title).
				Msg("skipping duplicate within batch")
			skipped = append(skipped, Skip{Article: cand, Reason: SkipDuplicateFingerprint})
			continue
		}
		seen[cand.Fingerprint] = struct{}{}

		exists, err := f.index.FingerprintExists(ctx, category, cand.Fingerprint)
		if err != nil {
			// Article-local failure: drop the candidate, keep the batch going.
			f.logger.Error().Err(err).
				Str("category", category).
				Str("title", cand.Title).
				Msg("fingerprint lookup failed, skipping article")
			continue
		}
		if exists {
			f.logger.Info().
				Str("category", category).
				Str("title", cand.Title).
				Msg("skipping duplicate: fingerprint already stored")
			skipped = append(skipped, Skip{Article: cand, Reason: SkipDuplicateFingerprint})
			continue
		}

		accepted = append(accepted, cand)
	}

	return accepted, skipped
}
