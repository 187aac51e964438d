package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/risk-comb/app/config"
	"github.com/lysyi3m/risk-comb/app/database"
	"github.com/lysyi3m/risk-comb/app/dataset"
)

// unavailableCooldown is the pause before retrying a batch after the
// endpoint reported itself unavailable
const unavailableCooldown = 30 * time.Second

type Predictor interface {
	Predict(ctx context.Context, inputs []string) ([]Prediction, error)
}

var _ Predictor = (*Client)(nil)

type Stats struct {
	RecordsProcessed int
	RecordsSkipped   int
	SentencesStored  int
}

// Runner classifies every unclassified record in the dataset. Records
// are committed one at a time, so an interrupted run resumes at the
// first record without stored sentences.
type Runner struct {
	store     *dataset.Store
	repo      database.SentenceRepository
	predictor Predictor
	job       *config.Job
}

func NewRunner(store *dataset.Store, repo database.SentenceRepository, predictor Predictor, job *config.Job) *Runner {
	return &Runner{
		store:     store,
		repo:      repo,
		predictor: predictor,
		job:       job,
	}
}

func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	records, err := r.store.ReadAll()
	if err != nil {
		return stats, fmt.Errorf("failed to read dataset: %w", err)
	}

	classified, err := r.repo.ClassifiedRecordIDs()
	if err != nil {
		return stats, fmt.Errorf("failed to load classified record ids: %w", err)
	}

	slog.Info("Classifying records", "total", len(records), "already_classified", len(classified))

	for _, rec := range records {
		if ctx.Err() != nil {
			slog.Info("Classification interrupted, stopping", "processed", stats.RecordsProcessed)
			return stats, nil
		}

		if _, ok := classified[rec.ID]; ok {
			stats.RecordsSkipped++
			continue
		}

		stored, err := r.classifyRecord(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return stats, nil
			}
			return stats, fmt.Errorf("failed to classify record %s: %w", rec.ID, err)
		}

		stats.RecordsProcessed++
		stats.SentencesStored += stored

		if stats.RecordsProcessed%100 == 0 {
			slog.Info("Classification progress",
				"processed", stats.RecordsProcessed, "sentences", stats.SentencesStored)
		}
	}

	return stats, nil
}

// classifyRecord splits one record into sentences, runs the model over
// them in batches and stores the results as a single unit
func (r *Runner) classifyRecord(ctx context.Context, rec dataset.Record) (int, error) {
	sentences := SplitSentences(rec.Body, r.job.Model.MinSentenceChars)
	if len(sentences) == 0 {
		slog.Debug("No classifiable sentences in record", "id", rec.ID)
		return 0, nil
	}

	rows := make([]database.Sentence, 0, len(sentences))
	for start := 0; start < len(sentences); start += r.job.Model.BatchSize {
		end := min(start+r.job.Model.BatchSize, len(sentences))
		batch := sentences[start:end]

		predictions, err := r.predictBatch(ctx, batch)
		if err != nil {
			return 0, err
		}

		for i, pred := range predictions {
			rows = append(rows, database.Sentence{
				RecordID:        rec.ID,
				RecordKind:      rec.Kind,
				Author:          rec.Author,
				Subreddit:       rec.Subreddit,
				Sentence:        batch[i],
				Label:           pred.Label,
				LabelText:       r.job.LabelText(pred.Label),
				Score:           pred.Score,
				RecordCreatedAt: rec.CreatedAt,
			})
		}
	}

	if err := r.repo.InsertBatch(rows); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// predictBatch retries the same batch while the endpoint reports
// itself unavailable
func (r *Runner) predictBatch(ctx context.Context, batch []string) ([]Prediction, error) {
	for {
		predictions, err := r.predictor.Predict(ctx, batch)
		if err == nil {
			return predictions, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, ErrModelUnavailable) {
			return nil, err
		}

		slog.Warn("Model unavailable, cooling down",
			"cooldown", unavailableCooldown.String(), "batch_size", len(batch))

		timer := time.NewTimer(unavailableCooldown)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
