package store

import (
	"context"
	"strings"
	"time"

	"newsflow/internal/article"
	"newsflow/internal/newsapi"
)

// Store is the document-store boundary the pipeline writes through. One
// collection per category, one singleton summary document, and one collection
// per executed search keyword.
type Store interface {
	FingerprintExists(ctx context.Context, category, fingerprint string) (bool, error)
	SaveArticle(ctx context.Context, category string, a *article.Article) error
	ListArticles(ctx context.Context, category string) ([]article.Article, error)
	DeleteArticles(ctx context.Context, category string, ids []string) (int64, error)
	DeleteAllArticles(ctx context.Context, category string) (int64, error)
	ArticlesWithoutImage(ctx context.Context, category string) ([]article.Article, error)

	SearchTitlePrefix(ctx context.Context, category, prefix string, limit int64) ([]article.Article, error)
	SearchKeyword(ctx context.Context, category, keyword string, limit int64) ([]article.Article, error)
	ReplaceSearchResults(ctx context.Context, name string, results []SearchResult) error

	InitSummary(ctx context.Context, categories []string) error
	RecordCycle(ctx context.Context, category string, added int, snap newsapi.Snapshot) error
	RegisterSearch(ctx context.Context, entry SearchEntry) error
}

// SearchResult is an article enriched with the search metadata persisted in a
// search collection.
type SearchResult struct {
	article.Article `bson:",inline"`

	SearchKeyword   string    `bson:"searchKeyword" json:"searchKeyword"`
	RelevanceScore  int       `bson:"relevanceScore" json:"relevanceScore"`
	SearchCreatedAt time.Time `bson:"searchCreatedAt" json:"searchCreatedAt"`
}

// SearchEntry is a search collection's registry record in the summary
// document.
type SearchEntry struct {
	Keyword        string    `bson:"keyword" json:"keyword"`
	ResultCount    int       `bson:"resultCount" json:"resultCount"`
	CollectionName string    `bson:"collectionName" json:"collectionName"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// Summary is the process-wide singleton bookkeeping document.
type Summary struct {
	ID                string                     `bson:"_id"`
	LastUpdated       time.Time                  `bson:"lastUpdated"`
	TotalCategories   int                        `bson:"totalCategories"`
	Categories        map[string]CategorySummary `bson:"categories"`
	SearchCollections map[string]SearchEntry     `bson:"searchCollections"`
	RateLimit         newsapi.Snapshot           `bson:"rateLimit"`
	LastSearchUpdate  time.Time                  `bson:"lastSearchUpdate,omitempty"`
}

// CategorySummary tracks one category's ingestion bookkeeping.
type CategorySummary struct {
	Name         string    `bson:"name"`
	ArticleCount int       `bson:"articleCount"`
	LastUpdated  time.Time `bson:"lastUpdated"`
}

// CategoryCollection returns the storage namespace for a category.
func CategoryCollection(category string) string {
	return "news_" + strings.ToLower(category)
}
