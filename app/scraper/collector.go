package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/risk-comb/app/dataset"
	"github.com/lysyi3m/risk-comb/app/reddit"
)

// Collector drives one end-to-end scrape: enumerate authors of the
// target subreddit, fetch each author's recent posts and comments,
// normalize, filter, anonymize and append accepted records to the
// store. Single worker, sequential, blocking I/O; the only suspension
// points are the cool-down sleeps after provider failures.
type Collector struct {
	listing    ListingProvider
	items      ItemProvider
	identities *IdentityStore
	store      *dataset.Store
	existing   map[string]struct{}
	seen       map[string]struct{}
	opts       Options
	counters   Counters
}

func NewCollector(listing ListingProvider, items ItemProvider, identities *IdentityStore,
	store *dataset.Store, existing map[string]struct{}, opts Options) *Collector {
	return &Collector{
		listing:    listing,
		items:      items,
		identities: identities,
		store:      store,
		existing:   existing,
		seen:       make(map[string]struct{}),
		opts:       opts,
	}
}

// Run executes the scrape. The identity store is saved before Run
// returns, whatever the outcome; a save failure is fatal. The
// counters are valid even when an error is returned.
func (c *Collector) Run(ctx context.Context) (Counters, error) {
	runErr := c.run(ctx)

	if err := c.identities.Save(); err != nil {
		return c.counters, fmt.Errorf("failed to persist author identities: %w", err)
	}

	return c.counters, runErr
}

func (c *Collector) run(ctx context.Context) error {
	slog.Info("Fetching authors", "subreddit", c.opts.Subreddit, "limit", c.opts.AuthorsLimit)

	var authors []string
	err := c.withRetry(ctx, "authors", c.opts.Subreddit, func() error {
		var err error
		authors, err = c.listing.NewAuthors(ctx, c.opts.Subreddit, c.opts.AuthorsLimit)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to enumerate authors: %w", err)
	}

	slog.Info("Authors enumerated", "count", len(authors))

	for _, author := range authors {
		if ctx.Err() != nil {
			slog.Info("Scrape interrupted, stopping", "authors_scanned", c.counters.AuthorsScanned)
			return nil
		}

		c.counters.AuthorsScanned++
		anonID := c.identities.Resolve(author)

		slog.Debug("Fetching posts and comments", "author", author)

		if err := c.collectPhase(ctx, author, anonID, reddit.KindPost); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("Giving up on posts for author", "author", author, "error", err)
		}

		if err := c.collectPhase(ctx, author, anonID, reddit.KindComment); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("Giving up on comments for author", "author", author, "error", err)
		}

		if c.counters.Saved() >= c.opts.AuthorsLimit {
			slog.Info("Reached the record limit, stopping early",
				"posts", c.counters.PostsSaved, "comments", c.counters.CommentsSaved)
			return nil
		}
	}

	return nil
}

// collectPhase fetches one phase (posts or comments) for an author
// and appends the accepted items. Provider failures pause the whole
// run for the cool-down and retry the same phase.
func (c *Collector) collectPhase(ctx context.Context, author, anonID string, kind reddit.Kind) error {
	var items []reddit.Item

	phase := "posts"
	fetch := c.items.NewSubmissions
	if kind == reddit.KindComment {
		phase = "comments"
		fetch = c.items.NewComments
	}

	err := c.withRetry(ctx, phase, author, func() error {
		var err error
		items, err = fetch(ctx, author, c.opts.PostLimit)
		return err
	})
	if err != nil {
		return err
	}

	for _, item := range items {
		c.processItem(item, anonID)
	}

	return nil
}

// processItem applies the duplicate and length filters and appends
// the record immediately on acceptance
func (c *Collector) processItem(item reddit.Item, anonID string) {
	if _, ok := c.existing[item.ID]; ok {
		c.counters.DuplicatesSkipped++
		slog.Debug("Item already collected, skipping", "id", item.ID)
		return
	}
	// A run-local set catches authors who appear more than once in
	// the listing; the frozen index stays untouched.
	if _, ok := c.seen[item.ID]; ok {
		c.counters.DuplicatesSkipped++
		return
	}

	body := Normalize(item.Body)
	if len(body) <= c.opts.MinChars {
		c.counters.TooShortSkipped++
		slog.Debug("Item too short, skipping", "id", item.ID, "length", len(body))
		return
	}

	title := ""
	if item.Kind == reddit.KindPost {
		title = Normalize(item.Title)
	}

	rec := dataset.Record{
		Kind:      string(item.Kind),
		ID:        item.ID,
		Author:    anonID,
		Title:     title,
		Body:      body,
		Subreddit: item.Subreddit,
		Score:     item.Score,
		URL:       item.URL,
		CreatedAt: item.CreatedAt,
	}

	if err := c.store.Append(rec); err != nil {
		// Losing the append means the store itself is broken; there
		// is no point retrying against the same file.
		slog.Error("Failed to append record", "id", item.ID, "error", err)
		return
	}

	c.seen[item.ID] = struct{}{}
	if item.Kind == reddit.KindPost {
		c.counters.PostsSaved++
	} else {
		c.counters.CommentsSaved++
	}
}

// withRetry runs op, pausing the whole run for the cool-down on rate
// limits and provider errors, then retrying the same operation.
// MaxRetries of 0 retries until the operation succeeds or the context
// is cancelled.
func (c *Collector) withRetry(ctx context.Context, phase, subject string, op func() error) error {
	attempt := 0
	for {
		err := op()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt++
		if c.opts.MaxRetries > 0 && attempt > c.opts.MaxRetries {
			return err
		}

		if errors.Is(err, reddit.ErrRateLimited) {
			slog.Warn("Too many requests, cooling down",
				"phase", phase, "subject", subject, "cooldown", c.opts.Cooldown.String(),
				"posts", c.counters.PostsSaved, "comments", c.counters.CommentsSaved)
		} else {
			slog.Warn("Provider error, cooling down",
				"phase", phase, "subject", subject, "cooldown", c.opts.Cooldown.String(),
				"error", err,
				"posts", c.counters.PostsSaved, "comments", c.counters.CommentsSaved)
		}

		if err := sleep(ctx, c.opts.Cooldown); err != nil {
			return err
		}
	}
}

// sleep blocks for d or until the context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
