package dataset

import (
	"time"
)

// Record is one collected unit of content, the durable output of the
// collector and the input to the classification stage
type Record struct {
	Kind      string // "Post" or "Comment"
	ID        string // provider-assigned, unique within the store
	Author    string // anonymized identifier, never the raw handle
	Title     string // present only for posts
	Body      string // normalized text
	Subreddit string
	Score     int
	URL       string
	CreatedAt time.Time
}
