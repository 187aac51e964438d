package database

import (
	"fmt"
)

// SentenceDBRepository handles database operations for classified sentences
type SentenceDBRepository struct {
	db *DB
}

func NewSentenceRepository(db *DB) *SentenceDBRepository {
	return &SentenceDBRepository{db: db}
}

// InsertBatch stores a batch of classified sentences in a single
// transaction, so a record is either fully classified or not at all
func (r *SentenceDBRepository) InsertBatch(sentences []Sentence) error {
	if len(sentences) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO sentences (
			record_id, record_kind, author, subreddit, sentence,
			label, label_text, score, record_created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sentences {
		_, err := stmt.Exec(s.RecordID, s.RecordKind, s.Author, s.Subreddit,
			s.Sentence, s.Label, s.LabelText, s.Score, s.RecordCreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert sentence for record %s: %w", s.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// ClassifiedRecordIDs returns the ids of records that already have at
// least one classified sentence stored
func (r *SentenceDBRepository) ClassifiedRecordIDs() (map[string]struct{}, error) {
	rows, err := r.db.Query(`SELECT DISTINCT record_id FROM sentences`)
	if err != nil {
		return nil, fmt.Errorf("failed to query classified records: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan record id: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

func (r *SentenceDBRepository) TotalSentences() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sentences`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sentences: %w", err)
	}
	return count, nil
}

func (r *SentenceDBRepository) UniqueAuthors() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(DISTINCT author) FROM sentences`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count authors: %w", err)
	}
	return count, nil
}

func (r *SentenceDBRepository) UniqueRecords() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(DISTINCT record_id) FROM sentences`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// CountByLabel returns sentence counts per label, most frequent first
func (r *SentenceDBRepository) CountByLabel() ([]LabelCount, error) {
	rows, err := r.db.Query(`
		SELECT label, label_text, COUNT(*) AS cnt
		FROM sentences
		GROUP BY label, label_text
		ORDER BY cnt DESC, label ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query label counts: %w", err)
	}
	defer rows.Close()

	var counts []LabelCount
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.Label, &c.LabelText, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// CountBySubreddit returns sentence counts for the top subreddits
func (r *SentenceDBRepository) CountBySubreddit(limit int) ([]SubredditCount, error) {
	rows, err := r.db.Query(`
		SELECT subreddit, COUNT(*) AS cnt
		FROM sentences
		GROUP BY subreddit
		ORDER BY cnt DESC, subreddit ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query subreddit counts: %w", err)
	}
	defer rows.Close()

	var counts []SubredditCount
	for rows.Next() {
		var c SubredditCount
		if err := rows.Scan(&c.Subreddit, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan subreddit count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
