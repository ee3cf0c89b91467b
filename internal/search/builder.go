package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"newsflow/internal/article"
	"newsflow/internal/store"
)

// Store is the storage access the builder needs.
type Store interface {
	SearchTitlePrefix(ctx context.Context, category, prefix string, limit int64) ([]article.Article, error)
	SearchKeyword(ctx context.Context, category, keyword string, limit int64) ([]article.Article, error)
	ReplaceSearchResults(ctx context.Context, name string, results []store.SearchResult) error
	RegisterSearch(ctx context.Context, entry store.SearchEntry) error
}

// Result is the outcome of one search build. An empty keyword or zero matches
// is a valid empty Result, not an error.
type Result struct {
	CollectionName string               `json:"collectionName,omitempty"`
	Count          int                  `json:"count"`
	Results        []store.SearchResult `json:"results"`
}

// Builder derives a keyword-indexed result set across all categories and
// persists it as a named search collection.
type Builder struct {
	store      Store
	categories []string
	limit      int64
	logger     zerolog.Logger
}

func NewBuilder(st Store, categories []string, limit int64, logger zerolog.Logger) *Builder {
	return &Builder{store: st, categories: categories, limit: limit, logger: logger}
}

// CollectionName normalizes a keyword into its search collection namespace:
// lowercased, whitespace replaced with underscores.
func CollectionName(keyword string) string {
	norm := strings.ToLower(strings.TrimSpace(keyword))
	return "search_" + strings.Join(strings.Fields(norm), "_")
}

// Search queries every category for title-prefix and keyword matches, merges
// them deduplicating by document identity then by title, scores each result,
// and fully replaces the keyword's search collection. Re-running a search for
// the same keyword overwrites the prior collection and its registry entry.
func (b *Builder) Search(ctx context.Context, keyword string) (Result, error) {
	trimmed := strings.TrimSpace(keyword)
	normalized := strings.ToLower(trimmed)
	if normalized == "" {
		return Result{}, nil
	}

	b.logger.Info().Str("keyword", trimmed).Msg("searching across categories")

	var merged []article.Article
	seenID := make(map[string]struct{})

	for _, cat := range b.categories {
		byTitle, err := b.store.SearchTitlePrefix(ctx, cat, trimmed, b.limit)
		if err != nil {
			b.logger.Error().Err(err).Str("category", cat).Msg("title search failed")
			continue
		}
		byKeyword, err := b.store.SearchKeyword(ctx, cat, normalized, b.limit)
		if err != nil {
			b.logger.Error().Err(err).Str("category", cat).Msg("keyword search failed")
			continue
		}

		for _, doc := range append(byTitle, byKeyword...) {
			if _, ok := seenID[doc.ID]; ok {
				continue
			}
			seenID[doc.ID] = struct{}{}
			merged = append(merged, doc)
		}
	}

	// Cross-category retellings share a title; keep the first occurrence.
	seenTitle := make(map[string]struct{}, len(merged))
	unique := merged[:0]
	for _, doc := range merged {
		if _, ok := seenTitle[doc.Title]; ok {
			continue
		}
		seenTitle[doc.Title] = struct{}{}
		unique = append(unique, doc)
	}

	b.logger.Info().
		Str("keyword", trimmed).
		Int("results", len(unique)).
		Msg("search finished")

	if len(unique) == 0 {
		return Result{Count: 0, Results: []store.SearchResult{}}, nil
	}

	name := CollectionName(keyword)
	now := time.Now().UTC()

	results := make([]store.SearchResult, 0, len(unique))
	for _, doc := range unique {
		results = append(results, store.SearchResult{
			Article:         doc,
			SearchKeyword:   trimmed,
			RelevanceScore:  relevance(&doc, normalized),
			SearchCreatedAt: now,
		})
	}

	if err := b.store.ReplaceSearchResults(ctx, name, results); err != nil {
		return Result{}, fmt.Errorf("persist search collection %s: %w", name, err)
	}

	if err := b.store.RegisterSearch(ctx, store.SearchEntry{
		Keyword:        trimmed,
		ResultCount:    len(results),
		CollectionName: name,
		CreatedAt:      now,
	}); err != nil {
		return Result{}, fmt.Errorf("register search collection %s: %w", name, err)
	}

	return Result{CollectionName: name, Count: len(results), Results: results}, nil
}

// relevance is a weighted sum: title containment, content occurrence count,
// keyword-list membership.
func relevance(doc *article.Article, keyword string) int {
	score := 0

	if strings.Contains(strings.ToLower(doc.Title), keyword) {
		score += 10
	}

	score += 2 * strings.Count(strings.ToLower(doc.Content), keyword)

	for _, kw := range doc.Keywords {
		if kw == keyword {
			score += 5
			break
		}
	}

	return score
}
