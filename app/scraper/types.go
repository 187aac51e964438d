package scraper

import (
	"context"
	"time"

	"github.com/lysyi3m/risk-comb/app/reddit"
)

// ListingProvider enumerates authors of a subreddit's newest posts.
// The enumeration is a single pass from "now"; a re-run starts over
// and relies on the existing-record index for deduplication.
type ListingProvider interface {
	NewAuthors(ctx context.Context, subreddit string, limit int) ([]string, error)
}

// ItemProvider fetches an author's most-recent posts and comments
type ItemProvider interface {
	NewSubmissions(ctx context.Context, author string, limit int) ([]reddit.Item, error)
	NewComments(ctx context.Context, author string, limit int) ([]reddit.Item, error)
}

var _ ListingProvider = (*reddit.AuthorListing)(nil)
var _ ItemProvider = (*reddit.Client)(nil)

// Options is the explicit collector configuration, fixed at
// construction time
type Options struct {
	Subreddit    string
	AuthorsLimit int
	PostLimit    int
	MinChars     int
	Cooldown     time.Duration
	MaxRetries   int // retries per phase, 0 means retry until it works
}

// Counters holds the per-run tallies reported at the end of a scrape
type Counters struct {
	AuthorsScanned    int
	PostsSaved        int
	CommentsSaved     int
	DuplicatesSkipped int
	TooShortSkipped   int
}

// Saved is the combined number of written posts and comments
func (c Counters) Saved() int {
	return c.PostsSaved + c.CommentsSaved
}
