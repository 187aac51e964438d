package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// csvHeader is the fixed column layout of the record store file
var csvHeader = []string{
	"Type", "ID", "Author", "Title", "Body or Selftext",
	"Subreddit", "Score", "URL", "Created Date",
}

// idColumn is the index of the record ID within a row
const idColumn = 1

// Store is the append-only CSV file holding all collected records.
// Appends open the file, write one flushed row and close it again, so
// the store is crash-safe up to the last flushed row. Concurrent runs
// against the same store are unsafe.
type Store struct {
	path string
}

// Open returns a store for path, initializing a missing or empty file
// with the header row. An empty file happens when a previous create
// was interrupted before the header reached disk.
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create record store directory: %w", err)
		}
		if err := writeHeader(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat record store: %w", err)
	case info.Size() == 0:
		if err := writeHeader(path); err != nil {
			return nil, err
		}
	}

	return &Store{path: path}, nil
}

func writeHeader(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create record store: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return fmt.Errorf("failed to write record store header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush record store header: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close record store: %w", err)
	}

	return nil
}

// ExistingIDs builds the set of record IDs already present in the
// store. The set is a frozen snapshot, rebuilt at the start of every
// run and never persisted separately.
func (s *Store) ExistingIDs() (map[string]struct{}, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	ids := make(map[string]struct{})
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record store: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) <= idColumn {
			return nil, fmt.Errorf("record store row has %d columns, expected at least %d", len(row), idColumn+1)
		}
		ids[row[idColumn]] = struct{}{}
	}

	return ids, nil
}

// Append writes one record and flushes it before closing the file
func (s *Store) Append(rec Record) error {
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open record store for append: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	row := []string{
		rec.Kind,
		rec.ID,
		rec.Author,
		rec.Title,
		rec.Body,
		rec.Subreddit,
		strconv.Itoa(rec.Score),
		rec.URL,
		rec.CreatedAt.Format(time.RFC3339),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}

	return nil
}

// ReadAll loads every record from the store, skipping the header row
func (s *Store) ReadAll() ([]Record, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(csvHeader)

	records := []Record{}
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record store: %w", err)
		}
		if header {
			header = false
			continue
		}

		score, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, fmt.Errorf("record %s has invalid score %q: %w", row[idColumn], row[6], err)
		}

		createdAt, err := time.Parse(time.RFC3339, row[8])
		if err != nil {
			return nil, fmt.Errorf("record %s has invalid created date %q: %w", row[idColumn], row[8], err)
		}

		records = append(records, Record{
			Kind:      row[0],
			ID:        row[1],
			Author:    row[2],
			Title:     row[3],
			Body:      row[4],
			Subreddit: row[5],
			Score:     score,
			URL:       row[7],
			CreatedAt: createdAt,
		})
	}

	return records, nil
}
