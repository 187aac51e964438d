package database

import (
	"time"
)

// Sentence is one classified sentence extracted from a collected record
type Sentence struct {
	ID              int64
	RecordID        string
	RecordKind      string
	Author          string
	Subreddit       string
	Sentence        string
	Label           int
	LabelText       string
	Score           float64
	RecordCreatedAt time.Time
	ClassifiedAt    time.Time
}

type LabelCount struct {
	Label     int
	LabelText string
	Count     int
}

type SubredditCount struct {
	Subreddit string
	Count     int
}
