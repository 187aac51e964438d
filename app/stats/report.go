package stats

import (
	"fmt"
	"io"

	"github.com/lysyi3m/risk-comb/app/database"
)

const topSubreddits = 20

// Report writes a plain-text summary of the classified sentence store:
// overall totals, the label distribution and the most frequent
// subreddits
func Report(w io.Writer, repo database.SentenceRepository) error {
	total, err := repo.TotalSentences()
	if err != nil {
		return fmt.Errorf("failed to count sentences: %w", err)
	}
	records, err := repo.UniqueRecords()
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	authors, err := repo.UniqueAuthors()
	if err != nil {
		return fmt.Errorf("failed to count authors: %w", err)
	}

	fmt.Fprintf(w, "Sentences:  %d\n", total)
	fmt.Fprintf(w, "Records:    %d\n", records)
	fmt.Fprintf(w, "Authors:    %d\n", authors)

	if total == 0 {
		return nil
	}

	labels, err := repo.CountByLabel()
	if err != nil {
		return fmt.Errorf("failed to count labels: %w", err)
	}

	fmt.Fprintf(w, "\nLabel distribution:\n")
	for _, l := range labels {
		share := float64(l.Count) / float64(total) * 100
		fmt.Fprintf(w, "  %d  %-30s %6d  %5.1f%%\n", l.Label, l.LabelText, l.Count, share)
	}

	subreddits, err := repo.CountBySubreddit(topSubreddits)
	if err != nil {
		return fmt.Errorf("failed to count subreddits: %w", err)
	}

	fmt.Fprintf(w, "\nTop subreddits:\n")
	for _, s := range subreddits {
		fmt.Fprintf(w, "  %-30s %6d\n", s.Subreddit, s.Count)
	}

	return nil
}
