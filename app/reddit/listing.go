package reddit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// feedPageLimit is the largest page Reddit serves for a subreddit feed
const feedPageLimit = 100

// AuthorListing enumerates the authors of a subreddit's newest posts
// through the public Atom feed. The feed needs no credentials, so the
// enumeration does not spend API quota.
type AuthorListing struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	baseURL      string
}

func NewAuthorListing(userAgent string) *AuthorListing {
	return &AuthorListing{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		baseURL:      "https://www.reddit.com",
	}
}

// NewAuthors returns up to limit author handles from the subreddit's
// new listing, newest first. Deleted entries are dropped. Pages past
// the first are fetched with the after cursor (the fullname of the
// last entry) until limit authors or the listing is exhausted; a
// fresh call re-enumerates from now.
func (l *AuthorListing) NewAuthors(ctx context.Context, subreddit string, limit int) ([]string, error) {
	pageSize := limit
	if pageSize > feedPageLimit {
		pageSize = feedPageLimit
	}

	authors := make([]string, 0, limit)
	after := ""
	for len(authors) < limit {
		feed, err := l.fetchPage(ctx, subreddit, pageSize, after)
		if err != nil {
			return nil, err
		}
		if len(feed.Items) == 0 {
			break
		}

		for _, item := range feed.Items {
			author := extractAuthor(item)
			if author == "" {
				continue
			}
			authors = append(authors, author)
			if len(authors) >= limit {
				return authors, nil
			}
		}

		// Atom entry ids are the fullnames the listing pages by
		next := feed.Items[len(feed.Items)-1].GUID
		if next == "" || next == after {
			break
		}
		after = next
	}

	return authors, nil
}

func (l *AuthorListing) fetchPage(ctx context.Context, subreddit string, pageSize int, after string) (*gofeed.Feed, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new/.rss?limit=%s", l.baseURL, subreddit, strconv.Itoa(pageSize))
	if after != "" {
		endpoint += "&after=" + url.QueryEscape(after)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Op: "fetch subreddit feed", Err: err}
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "fetch subreddit feed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("fetch subreddit feed: %w", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, &ProviderError{Op: "fetch subreddit feed", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Op: "read subreddit feed", Err: err}
	}

	feed, err := l.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ProviderError{Op: "parse subreddit feed", Err: err}
	}

	return feed, nil
}

// extractAuthor pulls the account handle from a feed entry. Reddit
// names atom authors "/u/<handle>".
func extractAuthor(item *gofeed.Item) string {
	var name string

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		name = item.Authors[0].Name
	} else if item.Author != nil {
		name = item.Author.Name
	}

	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/u/")
	name = strings.TrimPrefix(name, "u/")

	if name == "" || name == "[deleted]" {
		return ""
	}

	return name
}
