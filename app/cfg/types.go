package cfg

type Cfg struct {
	// Job configuration
	JobFile string

	// Data files
	DataFile      string
	AuthorMapFile string
	DBPath        string

	// Reddit API credentials (optional, public endpoints are used without them)
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string

	// Inference endpoint credentials
	ModelToken string

	// HTTP API configuration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
