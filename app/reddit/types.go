package reddit

import (
	"time"
)

type Kind string

const (
	KindPost    Kind = "Post"
	KindComment Kind = "Comment"
)

// Item is a single post or comment returned by the per-author provider
type Item struct {
	Kind      Kind
	ID        string
	Author    string
	Title     string
	Body      string
	Subreddit string
	Score     int
	URL       string
	CreatedAt time.Time
}

// listing mirrors the Reddit API listing envelope
type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string      `json:"kind"` // "t1" comment, "t3" post
			Data listingItem `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingItem struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Body       string  `json:"body"`
	Subreddit  string  `json:"subreddit"`
	Score      int     `json:"score"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}
