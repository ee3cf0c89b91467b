package ingest

import (
	"time"

	"newsflow/internal/article"
	"newsflow/internal/newsapi"
)

// FromRaw builds a pipeline Article from a provider record: derived id and
// fingerprint, extracted keywords, ingestion timestamp.
func FromRaw(raw newsapi.RawArticle, category string, now time.Time) *article.Article {
	content := raw.Content
	if content == "" {
		content = raw.Description
	}

	source := raw.SourceID
	if source == "" {
		source = "unknown"
	}

	return &article.Article{
		ID:          article.NewID(raw.Title, now),
		Title:       raw.Title,
		Content:     content,
		Description: raw.Description,
		ImageURL:    raw.ImageURL,
		Link:        raw.Link,
		PubDate:     raw.PubDate,
		Source:      source,
		Category:    category,
		Keywords:    article.ExtractKeywords(raw.Title + " " + content),
		Fingerprint: article.Fingerprint(raw.Title, raw.Link, raw.PubDate),
		Searchable:  true,
		CreatedAt:   now,
	}
}
