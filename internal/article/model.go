package article

import (
	"time"
)

// Article is the unit of content flowing through the pipeline. Articles are
// written once at ingestion time and never updated in place; they only leave
// storage through maintenance purges.
type Article struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	Description string    `bson:"description" json:"description"`
	ImageURL    string    `bson:"imageUrl" json:"imageUrl"`
	Link        string    `bson:"link" json:"link"`
	PubDate     string    `bson:"pubDate" json:"pubDate"`
	Source      string    `bson:"source" json:"source"`
	Category    string    `bson:"category" json:"category"`
	Keywords    []string  `bson:"keywords" json:"keywords"`
	Fingerprint string    `bson:"fingerprint" json:"fingerprint"`
	Searchable  bool      `bson:"searchable" json:"searchable"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// Complete reports whether the article carries the fields mandatory for
// acceptance: a title and an image reference.
func (a *Article) Complete() bool {
	return a.Title != "" && a.ImageURL != ""
}
