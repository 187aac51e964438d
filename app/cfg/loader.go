package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Job configuration
	JobFile string `long:"job-file" env:"JOB_FILE" default:"./job.yml" description:"Path to the YAML job configuration file"`

	// Data files
	DataFile      string `long:"data-file" env:"DATA_FILE" default:"./data/reddit_data.csv" description:"Path to the collected records CSV file"`
	AuthorMapFile string `long:"author-map-file" env:"AUTHOR_MAP_FILE" default:"./data/author_map.tsv" description:"Path to the persisted author pseudonym map"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./data/sentences.db" description:"Path to the SQLite database holding classified sentences"`

	// Reddit API credentials
	RedditClientID     string `long:"reddit-client-id" env:"REDDIT_CLIENT_ID" description:"Reddit API client ID (optional)"`
	RedditClientSecret string `long:"reddit-client-secret" env:"REDDIT_CLIENT_SECRET" description:"Reddit API client secret (optional)"`
	RedditUsername     string `long:"reddit-username" env:"REDDIT_USERNAME" description:"Reddit account username (optional)"`
	RedditPassword     string `long:"reddit-password" env:"REDDIT_PASSWORD" description:"Reddit account password (optional)"`

	// Inference endpoint credentials
	ModelToken string `long:"model-token" env:"MODEL_TOKEN" description:"Bearer token for the classification endpoint (optional)"`

	// HTTP API configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port for the serve command"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"risk-comb/1.0 (research scraper)" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses configuration from environment variables and command-line
// flags. The returned slice holds the remaining positional arguments
// (the subcommand). A nil Cfg with a nil error means help was shown.
func Load() (*Cfg, []string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Usage = "[OPTIONS] scrape|classify|stats|serve"

	args, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		JobFile:            raw.JobFile,
		DataFile:           raw.DataFile,
		AuthorMapFile:      raw.AuthorMapFile,
		DBPath:             raw.DBPath,
		RedditClientID:     raw.RedditClientID,
		RedditClientSecret: raw.RedditClientSecret,
		RedditUsername:     raw.RedditUsername,
		RedditPassword:     raw.RedditPassword,
		ModelToken:         raw.ModelToken,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	globalCfg = cfg

	return cfg, args, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
