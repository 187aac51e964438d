package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Credentials holds Reddit script-app credentials. All fields empty
// means the public JSON endpoints are used without authentication.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client fetches a user's recent submissions and comments through the
// Reddit JSON API
type Client struct {
	httpClient *http.Client
	userAgent  string
	creds      Credentials

	publicURL string
	oauthURL  string
	tokenURL  string

	token       string
	tokenExpiry time.Time
}

func NewClient(creds Credentials, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		creds:      creds,
		publicURL:  "https://www.reddit.com",
		oauthURL:   "https://oauth.reddit.com",
		tokenURL:   "https://www.reddit.com/api/v1/access_token",
	}
}

// NewSubmissions fetches up to limit most-recent posts for an author
func (c *Client) NewSubmissions(ctx context.Context, author string, limit int) ([]Item, error) {
	return c.fetchListing(ctx, fmt.Sprintf("/user/%s/submitted", url.PathEscape(author)), limit)
}

// NewComments fetches up to limit most-recent comments for an author
func (c *Client) NewComments(ctx context.Context, author string, limit int) ([]Item, error) {
	return c.fetchListing(ctx, fmt.Sprintf("/user/%s/comments", url.PathEscape(author)), limit)
}

func (c *Client) fetchListing(ctx context.Context, path string, limit int) ([]Item, error) {
	endpoint := c.publicURL + path + ".json"
	authed := c.creds.ClientID != ""
	if authed {
		if err := c.ensureToken(ctx); err != nil {
			return nil, err
		}
		endpoint = c.oauthURL + path
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Op: "fetch listing", Err: err}
	}

	q := req.URL.Query()
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", c.userAgent)
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "fetch listing", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("fetch listing %s: %w", path, ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, &ProviderError{Op: "fetch listing " + path, StatusCode: resp.StatusCode}
	}

	var body listing
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Op: "decode listing " + path, Err: err}
	}

	items := make([]Item, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		items = append(items, c.toItem(child.Kind, child.Data))
	}

	return items, nil
}

// toItem converts a raw listing entry into an Item. Posts carry their
// selftext and outbound URL; comments carry the body and a permalink.
func (c *Client) toItem(kind string, raw listingItem) Item {
	item := Item{
		ID:        raw.ID,
		Author:    raw.Author,
		Subreddit: raw.Subreddit,
		Score:     raw.Score,
		CreatedAt: time.Unix(int64(raw.CreatedUTC), 0).UTC(),
	}

	if kind == "t1" {
		item.Kind = KindComment
		item.Body = raw.Body
		item.URL = c.publicURL + raw.Permalink
	} else {
		item.Kind = KindPost
		item.Title = raw.Title
		item.Body = raw.Selftext
		item.URL = raw.URL
	}

	return item
}

// ensureToken obtains an OAuth2 token via the password grant, reusing
// the cached token until shortly before it expires.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &ProviderError{Op: "request token", Err: err}
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Op: "request token", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("request token: %w", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return &ProviderError{Op: "request token", StatusCode: resp.StatusCode}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return &ProviderError{Op: "decode token", Err: err}
	}
	if token.AccessToken == "" {
		return &ProviderError{Op: "request token", Err: fmt.Errorf("empty access token in response")}
	}

	lifetime := time.Duration(token.ExpiresIn) * time.Second
	margin := time.Minute
	if margin > lifetime/4 {
		// short-lived tokens keep most of their lifetime usable
		margin = lifetime / 4
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(lifetime - margin)

	return nil
}
