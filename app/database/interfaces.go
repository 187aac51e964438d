package database

type SentenceRepository interface {
	InsertBatch(sentences []Sentence) error
	ClassifiedRecordIDs() (map[string]struct{}, error)

	TotalSentences() (int, error)
	UniqueAuthors() (int, error)
	UniqueRecords() (int, error)
	CountByLabel() ([]LabelCount, error)
	CountBySubreddit(limit int) ([]SubredditCount, error)
}
