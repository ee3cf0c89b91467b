package newsapi

// Response is the upstream provider's envelope for a category fetch.
type Response struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Results      []RawArticle `json:"results"`
}

// RawArticle is an article record exactly as the provider returns it.
type RawArticle struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Content     string `json:"content"`
	PubDate     string `json:"pubDate"`
	ImageURL    string `json:"image_url"`
	SourceID    string `json:"source_id"`
}
