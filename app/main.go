package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/risk-comb/app/api"
	"github.com/lysyi3m/risk-comb/app/cfg"
	"github.com/lysyi3m/risk-comb/app/classify"
	"github.com/lysyi3m/risk-comb/app/config"
	"github.com/lysyi3m/risk-comb/app/database"
	"github.com/lysyi3m/risk-comb/app/dataset"
	"github.com/lysyi3m/risk-comb/app/reddit"
	"github.com/lysyi3m/risk-comb/app/scraper"
	"github.com/lysyi3m/risk-comb/app/stats"
)

func main() {
	appCfg, args, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: risk-comb [OPTIONS] scrape|classify|stats|serve")
		os.Exit(2)
	}
	command := args[0]

	slog.Info("Starting Risk Comb", "command", command, "version", appCfg.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "scrape":
		err = runScrape(ctx, appCfg)
	case "classify":
		err = runClassify(ctx, appCfg)
	case "stats":
		err = runStats(appCfg)
	case "serve":
		err = runServe(ctx, appCfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\nUsage: risk-comb [OPTIONS] scrape|classify|stats|serve\n", command)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadJob(appCfg *cfg.Cfg) (*config.Job, error) {
	loader := config.NewLoader(appCfg.JobFile)
	job, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load job configuration: %w", err)
	}
	return job, nil
}

func runScrape(ctx context.Context, appCfg *cfg.Cfg) error {
	job, err := loadJob(appCfg)
	if err != nil {
		return err
	}

	store, err := dataset.Open(appCfg.DataFile)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}

	existing, err := store.ExistingIDs()
	if err != nil {
		return fmt.Errorf("failed to index dataset: %w", err)
	}
	slog.Info("Dataset indexed", "file", appCfg.DataFile, "existing_records", len(existing))

	identities := scraper.NewIdentityStore(appCfg.AuthorMapFile)
	if err := identities.Load(); err != nil {
		return fmt.Errorf("failed to load author map: %w", err)
	}
	slog.Info("Author map loaded", "file", appCfg.AuthorMapFile, "known_authors", identities.Len())

	listing := reddit.NewAuthorListing(appCfg.UserAgent)
	client := reddit.NewClient(reddit.Credentials{
		ClientID:     appCfg.RedditClientID,
		ClientSecret: appCfg.RedditClientSecret,
		Username:     appCfg.RedditUsername,
		Password:     appCfg.RedditPassword,
	}, appCfg.UserAgent)

	collector := scraper.NewCollector(listing, client, identities, store, existing, scraper.Options{
		Subreddit:    job.Source.Subreddit,
		AuthorsLimit: job.Source.AuthorsLimit,
		PostLimit:    job.Source.PostLimit,
		MinChars:     job.Source.MinChars,
		Cooldown:     job.Source.GetCooldown(),
		MaxRetries:   job.Source.MaxRetries,
	})

	counters, err := collector.Run(ctx)
	slog.Info("Scrape finished",
		"authors_scanned", counters.AuthorsScanned,
		"posts_saved", counters.PostsSaved,
		"comments_saved", counters.CommentsSaved,
		"duplicates_skipped", counters.DuplicatesSkipped,
		"too_short_skipped", counters.TooShortSkipped)

	return err
}

func openRepository(appCfg *cfg.Cfg) (database.SentenceRepository, *database.DB, error) {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	return database.NewSentenceRepository(db), db, nil
}

func runClassify(ctx context.Context, appCfg *cfg.Cfg) error {
	job, err := loadJob(appCfg)
	if err != nil {
		return err
	}
	if job.Model.Endpoint == "" {
		return fmt.Errorf("model endpoint is not configured")
	}

	store, err := dataset.Open(appCfg.DataFile)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}

	repo, db, err := openRepository(appCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	client := classify.NewClient(job.Model.Endpoint, appCfg.ModelToken, job.Model.GetTimeout())
	runner := classify.NewRunner(store, repo, client, job)

	result, err := runner.Run(ctx)
	slog.Info("Classification finished",
		"records_processed", result.RecordsProcessed,
		"records_skipped", result.RecordsSkipped,
		"sentences_stored", result.SentencesStored)

	return err
}

func runStats(appCfg *cfg.Cfg) error {
	repo, db, err := openRepository(appCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return stats.Report(os.Stdout, repo)
}

func runServe(ctx context.Context, appCfg *cfg.Cfg) error {
	repo, db, err := openRepository(appCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	handler := api.NewHandler(repo)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	slog.Info("HTTP server stopped")

	return nil
}
