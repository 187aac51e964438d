package scraper

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/risk-comb/app/dataset"
	"github.com/lysyi3m/risk-comb/app/reddit"
)

type fakeListing struct {
	authors []string
	calls   int
}

func (f *fakeListing) NewAuthors(ctx context.Context, subreddit string, limit int) ([]string, error) {
	f.calls++
	return f.authors, nil
}

type fakeItems struct {
	posts    map[string][]reddit.Item
	comments map[string][]reddit.Item

	// pending errors are consumed before items are returned
	postErrs    map[string][]error
	commentErrs map[string][]error

	postCalls    map[string]int
	commentCalls map[string]int
}

func newFakeItems() *fakeItems {
	return &fakeItems{
		posts:        make(map[string][]reddit.Item),
		comments:     make(map[string][]reddit.Item),
		postErrs:     make(map[string][]error),
		commentErrs:  make(map[string][]error),
		postCalls:    make(map[string]int),
		commentCalls: make(map[string]int),
	}
}

func (f *fakeItems) NewSubmissions(ctx context.Context, author string, limit int) ([]reddit.Item, error) {
	f.postCalls[author]++
	if errs := f.postErrs[author]; len(errs) > 0 {
		f.postErrs[author] = errs[1:]
		return nil, errs[0]
	}
	return f.posts[author], nil
}

func (f *fakeItems) NewComments(ctx context.Context, author string, limit int) ([]reddit.Item, error) {
	f.commentCalls[author]++
	if errs := f.commentErrs[author]; len(errs) > 0 {
		f.commentErrs[author] = errs[1:]
		return nil, errs[0]
	}
	return f.comments[author], nil
}

func longBody(n int) string {
	return strings.Repeat("a", n)
}

func testItem(kind reddit.Kind, id, author string, bodyLen int) reddit.Item {
	item := reddit.Item{
		Kind:      kind,
		ID:        id,
		Author:    author,
		Body:      longBody(bodyLen),
		Subreddit: "SuicideWatch",
		Score:     1,
		URL:       "https://example.com/" + id,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
	if kind == reddit.KindPost {
		item.Title = "A title"
	}
	return item
}

func testOptions() Options {
	return Options{
		Subreddit:    "SuicideWatch",
		AuthorsLimit: 1000,
		PostLimit:    10,
		MinChars:     100,
		Cooldown:     0, // no waiting in tests
	}
}

func newTestCollector(t *testing.T, listing *fakeListing, items *fakeItems, opts Options) (*Collector, *dataset.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := dataset.Open(filepath.Join(dir, "records.csv"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	existing, err := store.ExistingIDs()
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	identities := NewIdentityStore(filepath.Join(dir, "authors.tsv"))

	return NewCollector(listing, items, identities, store, existing, opts), store
}

func TestCollector_SavesPostsAndComments(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}
	items.comments["alice"] = []reddit.Item{testItem(reddit.KindComment, "c1", "alice", 150)}

	collector, store := newTestCollector(t, listing, items, testOptions())

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counters.AuthorsScanned != 1 {
		t.Errorf("Expected 1 author scanned, got %d", counters.AuthorsScanned)
	}
	if counters.PostsSaved != 1 {
		t.Errorf("Expected 1 post saved, got %d", counters.PostsSaved)
	}
	if counters.CommentsSaved != 1 {
		t.Errorf("Expected 1 comment saved, got %d", counters.CommentsSaved)
	}

	records, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	post := records[0]
	if post.Kind != "Post" {
		t.Errorf("Expected first record to be a post, got %s", post.Kind)
	}
	if post.Title == "" {
		t.Error("Expected post title to be stored")
	}
	if len(post.Author) != 8 {
		t.Errorf("Expected anonymized author id, got %q", post.Author)
	}
	if post.Author == "alice" {
		t.Error("Raw handle must never reach the record store")
	}

	comment := records[1]
	if comment.Kind != "Comment" {
		t.Errorf("Expected second record to be a comment, got %s", comment.Kind)
	}
	if comment.Title != "" {
		t.Errorf("Expected empty title for comment, got %q", comment.Title)
	}
}

func TestCollector_MinCharsBoundary(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{
		testItem(reddit.KindPost, "exact", "alice", 100), // exactly min_chars: rejected
		testItem(reddit.KindPost, "above", "alice", 101), // one more: accepted
	}

	collector, store := newTestCollector(t, listing, items, testOptions())

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counters.PostsSaved != 1 {
		t.Errorf("Expected 1 post saved, got %d", counters.PostsSaved)
	}
	if counters.TooShortSkipped != 1 {
		t.Errorf("Expected 1 too-short skip, got %d", counters.TooShortSkipped)
	}

	records, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "above" {
		t.Errorf("Expected only the longer post to be stored, got %+v", records)
	}
}

func TestCollector_SkipsExistingIDs(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}

	collector, store := newTestCollector(t, listing, items, testOptions())
	collector.existing["p1"] = struct{}{}

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counters.PostsSaved != 0 {
		t.Errorf("Expected no posts saved, got %d", counters.PostsSaved)
	}
	if counters.DuplicatesSkipped != 1 {
		t.Errorf("Expected 1 duplicate skip, got %d", counters.DuplicatesSkipped)
	}

	records, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty store, got %d records", len(records))
	}
}

func TestCollector_SecondRunIsIdempotent(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}
	items.comments["alice"] = []reddit.Item{testItem(reddit.KindComment, "c1", "alice", 150)}

	dir := t.TempDir()
	store, err := dataset.Open(filepath.Join(dir, "records.csv"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	identityPath := filepath.Join(dir, "authors.tsv")

	run := func() Counters {
		existing, err := store.ExistingIDs()
		if err != nil {
			t.Fatalf("Failed to build index: %v", err)
		}
		identities := NewIdentityStore(identityPath)
		if err := identities.Load(); err != nil {
			t.Fatalf("Failed to load identities: %v", err)
		}
		collector := NewCollector(listing, items, identities, store, existing, testOptions())
		counters, err := collector.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return counters
	}

	first := run()
	if first.Saved() != 2 {
		t.Fatalf("Expected 2 records from first run, got %d", first.Saved())
	}

	second := run()
	if second.Saved() != 0 {
		t.Errorf("Expected zero new records from second run, got %d", second.Saved())
	}
	if second.DuplicatesSkipped != 2 {
		t.Errorf("Expected 2 duplicate skips on second run, got %d", second.DuplicatesSkipped)
	}

	records, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records after both runs, got %d", len(records))
	}
}

func TestCollector_RateLimitRetriesSamePhase(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice", "bob"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}
	items.comments["alice"] = []reddit.Item{testItem(reddit.KindComment, "c1", "alice", 150)}
	items.commentErrs["alice"] = []error{reddit.ErrRateLimited}
	items.posts["bob"] = []reddit.Item{testItem(reddit.KindPost, "p2", "bob", 150)}

	collector, store := newTestCollector(t, listing, items, testOptions())

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Exactly one additional attempt for the same comments phase
	if items.commentCalls["alice"] != 2 {
		t.Errorf("Expected 2 comment fetches for alice, got %d", items.commentCalls["alice"])
	}
	// Posts collected before the rate limit are not lost
	if counters.PostsSaved != 2 {
		t.Errorf("Expected 2 posts saved, got %d", counters.PostsSaved)
	}
	if counters.CommentsSaved != 1 {
		t.Errorf("Expected 1 comment saved, got %d", counters.CommentsSaved)
	}

	records, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
	// The retry must finish alice before bob is touched
	if records[1].ID != "c1" {
		t.Errorf("Expected alice's comment before bob's post, got record order %v", records)
	}
}

func TestCollector_ProviderErrorRetries(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}
	items.postErrs["alice"] = []error{&reddit.ProviderError{Op: "fetch listing", StatusCode: 500}}

	collector, _ := newTestCollector(t, listing, items, testOptions())

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if items.postCalls["alice"] != 2 {
		t.Errorf("Expected 2 post fetches, got %d", items.postCalls["alice"])
	}
	if counters.PostsSaved != 1 {
		t.Errorf("Expected 1 post saved after retry, got %d", counters.PostsSaved)
	}
}

func TestCollector_MaxRetriesGivesUpOnPhase(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.postErrs["alice"] = []error{
		&reddit.ProviderError{StatusCode: 500},
		&reddit.ProviderError{StatusCode: 500},
		&reddit.ProviderError{StatusCode: 500},
	}
	items.comments["alice"] = []reddit.Item{testItem(reddit.KindComment, "c1", "alice", 150)}

	opts := testOptions()
	opts.MaxRetries = 2

	collector, _ := newTestCollector(t, listing, items, opts)

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// initial attempt plus two retries
	if items.postCalls["alice"] != 3 {
		t.Errorf("Expected 3 post fetches, got %d", items.postCalls["alice"])
	}
	// giving up on posts must not skip the comments phase
	if counters.CommentsSaved != 1 {
		t.Errorf("Expected 1 comment saved, got %d", counters.CommentsSaved)
	}
}

func TestCollector_AuthorListedTwiceDoesNotDuplicate(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice", "alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}

	collector, store := newTestCollector(t, listing, items, testOptions())

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counters.PostsSaved != 1 {
		t.Errorf("Expected 1 post saved, got %d", counters.PostsSaved)
	}

	records, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record despite repeated author, got %d", len(records))
	}
}

func TestCollector_EarlyStopOnRecordLimit(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice", "bob"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}
	items.posts["bob"] = []reddit.Item{testItem(reddit.KindPost, "p2", "bob", 150)}

	opts := testOptions()
	opts.AuthorsLimit = 1

	collector, _ := newTestCollector(t, listing, items, opts)

	counters, err := collector.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counters.AuthorsScanned != 1 {
		t.Errorf("Expected 1 author scanned before early stop, got %d", counters.AuthorsScanned)
	}
	if items.postCalls["bob"] != 0 {
		t.Errorf("Expected bob never fetched after early stop, got %d calls", items.postCalls["bob"])
	}
}

func TestCollector_PersistsIdentitiesAtRunEnd(t *testing.T) {
	listing := &fakeListing{authors: []string{"alice"}}
	items := newFakeItems()
	items.posts["alice"] = []reddit.Item{testItem(reddit.KindPost, "p1", "alice", 150)}

	dir := t.TempDir()
	store, err := dataset.Open(filepath.Join(dir, "records.csv"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	identityPath := filepath.Join(dir, "authors.tsv")
	identities := NewIdentityStore(identityPath)
	collector := NewCollector(listing, items, identities, store, map[string]struct{}{}, testOptions())

	if _, err := collector.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	reloaded := NewIdentityStore(identityPath)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Errorf("Expected 1 persisted identity, got %d", reloaded.Len())
	}
}
