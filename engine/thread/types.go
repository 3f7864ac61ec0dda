// Package thread extracts a discussion thread from a Reddit-style JSON
// listing and flattens it into a single export document.
package thread

// Post is the normalized root post of a thread.
type Post struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Author      string  `json:"author"`
	Timestamp   string  `json:"timestamp"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
}

// Comment is one entry of the flattened comment tree.
type Comment struct {
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Score     int    `json:"score"`
	ID        string `json:"id"`
	ParentID  string `json:"parent_id"`
	Depth     int    `json:"depth"`
}

// Metadata describes where and when a document was produced.
type Metadata struct {
	URL           string `json:"url"`
	ScrapedAt     string `json:"scraped_at"`
	TotalComments int    `json:"total_comments"`
}

// Document is the exported thread.
type Document struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
	Metadata Metadata  `json:"metadata"`
}

// MimeType is the content type handed to savers.
const MimeType = "application/json"
