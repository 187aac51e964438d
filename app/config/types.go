package config

// Job represents a complete scraping and classification job configuration
type Job struct {
	Source SourceSettings `yaml:"source"`
	Model  ModelSettings  `yaml:"model"`
	Labels map[int]string `yaml:"labels"`
}

// SourceSettings controls the collection stage
type SourceSettings struct {
	Subreddit    string `yaml:"subreddit"`
	AuthorsLimit int    `yaml:"authors_limit"`
	PostLimit    int    `yaml:"post_limit"`
	MinChars     int    `yaml:"min_chars"`
	Cooldown     int    `yaml:"cooldown"` // seconds
	MaxRetries   int    `yaml:"max_retries"`
}

// ModelSettings controls the classification stage
type ModelSettings struct {
	Endpoint         string `yaml:"endpoint"`
	BatchSize        int    `yaml:"batch_size"`
	MinSentenceChars int    `yaml:"min_sentence_chars"`
	Timeout          int    `yaml:"timeout"` // seconds
}
