package knowledge

import "time"

// Entry is one curated aftercare article.
type Entry struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Keywords  string    `json:"keywords,omitempty"`
	Source    string    `json:"source,omitempty"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResponse is returned by the knowledge preview endpoint.
type SearchResponse struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit"`
	Snippets []string `json:"snippets"`
}
