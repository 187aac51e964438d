package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of job configurations
type Loader struct {
	path string
}

// NewLoader creates a new job configuration loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and validates the YAML job configuration file
func (l *Loader) Load() (*Job, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&job)

	if err := l.validate(&job); err != nil {
		return nil, fmt.Errorf("invalid job config %s: %w", l.path, err)
	}

	return &job, nil
}

// setDefaults applies default values to the job configuration
func (l *Loader) setDefaults(job *Job) {
	if job.Source.Subreddit == "" {
		job.Source.Subreddit = "SuicideWatch"
	}
	if job.Source.AuthorsLimit == 0 {
		job.Source.AuthorsLimit = 1000
	}
	if job.Source.PostLimit == 0 {
		job.Source.PostLimit = 10
	}
	if job.Source.MinChars == 0 {
		job.Source.MinChars = 100
	}
	if job.Source.Cooldown == 0 {
		job.Source.Cooldown = 90 // seconds
	}
	if job.Model.BatchSize == 0 {
		job.Model.BatchSize = 32
	}
	if job.Model.MinSentenceChars == 0 {
		job.Model.MinSentenceChars = 50
	}
	if job.Model.Timeout == 0 {
		job.Model.Timeout = 60 // seconds
	}
}

// validate validates the job configuration
func (l *Loader) validate(job *Job) error {
	if job.Source.AuthorsLimit < 0 {
		return fmt.Errorf("authors limit must be non-negative")
	}
	if job.Source.PostLimit < 0 {
		return fmt.Errorf("post limit must be non-negative")
	}
	if job.Source.MinChars < 0 {
		return fmt.Errorf("minimum character count must be non-negative")
	}
	if job.Source.Cooldown < 0 {
		return fmt.Errorf("cooldown must be non-negative")
	}
	if job.Source.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}
	if job.Model.BatchSize < 0 {
		return fmt.Errorf("batch size must be non-negative")
	}

	for index, text := range job.Labels {
		if index < 0 {
			return fmt.Errorf("label index %d must be non-negative", index)
		}
		if text == "" {
			return fmt.Errorf("label %d must have a non-empty text", index)
		}
	}

	return nil
}
