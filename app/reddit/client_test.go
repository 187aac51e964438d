package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const listingBody = `{
	"kind": "Listing",
	"data": {
		"after": null,
		"children": [
			{"kind": "t3", "data": {
				"id": "p1", "author": "alice", "title": "First post",
				"selftext": "Some self text", "subreddit": "SuicideWatch",
				"score": 12, "url": "https://example.com/p1",
				"permalink": "/r/SuicideWatch/comments/p1/", "created_utc": 1700000000
			}},
			{"kind": "t1", "data": {
				"id": "c1", "author": "alice", "body": "A comment body",
				"subreddit": "offmychest", "score": 3,
				"permalink": "/r/offmychest/comments/x/c1/", "created_utc": 1700000100
			}}
		]
	}
}`

func newTestClient(serverURL string) *Client {
	c := NewClient(Credentials{}, "test-agent")
	c.publicURL = serverURL
	return c
}

func TestClient_NewSubmissions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/alice/submitted.json" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("sort") != "new" {
			t.Errorf("Expected sort=new, got '%s'", r.URL.Query().Get("sort"))
		}
		if r.URL.Query().Get("limit") != "10" {
			t.Errorf("Expected limit=10, got '%s'", r.URL.Query().Get("limit"))
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Expected user agent 'test-agent', got '%s'", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).NewSubmissions(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("NewSubmissions failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	post := items[0]
	if post.Kind != KindPost {
		t.Errorf("Expected first item to be a post, got %s", post.Kind)
	}
	if post.ID != "p1" {
		t.Errorf("Expected post id 'p1', got '%s'", post.ID)
	}
	if post.Title != "First post" {
		t.Errorf("Expected post title 'First post', got '%s'", post.Title)
	}
	if post.Body != "Some self text" {
		t.Errorf("Expected post body from selftext, got '%s'", post.Body)
	}
	if post.URL != "https://example.com/p1" {
		t.Errorf("Expected post URL from url field, got '%s'", post.URL)
	}
	if post.Score != 12 {
		t.Errorf("Expected post score 12, got %d", post.Score)
	}
	if post.CreatedAt.Unix() != 1700000000 {
		t.Errorf("Expected created_utc 1700000000, got %d", post.CreatedAt.Unix())
	}

	comment := items[1]
	if comment.Kind != KindComment {
		t.Errorf("Expected second item to be a comment, got %s", comment.Kind)
	}
	if comment.Title != "" {
		t.Errorf("Expected empty comment title, got '%s'", comment.Title)
	}
	if comment.Body != "A comment body" {
		t.Errorf("Expected comment body, got '%s'", comment.Body)
	}
	if comment.URL == "" || comment.URL[len(comment.URL)-len("/r/offmychest/comments/x/c1/"):] != "/r/offmychest/comments/x/c1/" {
		t.Errorf("Expected comment URL built from permalink, got '%s'", comment.URL)
	}
}

func TestClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).NewComments(context.Background(), "alice", 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestClient_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).NewSubmissions(context.Background(), "alice", 10)

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if providerErr.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", providerErr.StatusCode)
	}
}

func TestClient_ReusesShortLivedToken(t *testing.T) {
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		w.Write([]byte(`{"access_token": "tok", "expires_in": 40}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Expected bearer token header, got %q", auth)
		}
		w.Write([]byte(`{"kind": "Listing", "data": {"after": null, "children": []}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		Username:     "alice",
		Password:     "hunter2",
	}, "test-agent")
	c.oauthURL = server.URL
	c.tokenURL = server.URL + "/api/v1/access_token"

	for i := 0; i < 2; i++ {
		if _, err := c.NewSubmissions(context.Background(), "alice", 10); err != nil {
			t.Fatalf("NewSubmissions failed: %v", err)
		}
	}

	// a 40s token keeps most of its lifetime usable, so the second
	// fetch must not request a new one
	if tokenRequests != 1 {
		t.Errorf("Expected 1 token request, got %d", tokenRequests)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).NewSubmissions(context.Background(), "alice", 10)

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Errorf("Expected ProviderError for malformed body, got %v", err)
	}
}
