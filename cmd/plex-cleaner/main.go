package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/EINDEX/plex-cleaner/internal/cleaner"
	"github.com/EINDEX/plex-cleaner/internal/config"
	"github.com/EINDEX/plex-cleaner/internal/domain"
	"github.com/EINDEX/plex-cleaner/internal/journal"
	"github.com/EINDEX/plex-cleaner/internal/log"
	"github.com/EINDEX/plex-cleaner/internal/mediaserver/plex"
	"github.com/EINDEX/plex-cleaner/internal/rating"
	"github.com/EINDEX/plex-cleaner/internal/report"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var dryRun bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&dryRun, "dry-run", false, "evaluate and report without deleting")
	flag.Parse()

	if showVersion {
		fmt.Printf("plex-cleaner %s\n", Version)
		return
	}

	if err := run(dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dryRun bool) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting plex-cleaner", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("no server configured: set server.url and server.token in config.yaml or PLEXCLEANER_SERVER_URL / PLEXCLEANER_SERVER_TOKEN")
	}

	if dryRun {
		cfg.Cleaner.DryRun = true
	}

	ctx := context.Background()

	// Authenticate the owner and derive one connection per viewer
	owner := plex.NewClient(cfg.Server.URL, cfg.Server.Token, logger)
	account := plex.NewAccountClient(cfg.Server.Token, logger)

	viewers, err := plex.ViewerConnections(ctx, owner, account)
	if err != nil {
		return err
	}
	logger.Info("resolved viewer connections", "count", len(viewers))

	// Run-scoped rating cache and resolver; ratings always come from the
	// owner's connection
	cache := rating.NewCache()
	resolver := rating.NewResolver(owner, cache, logger)

	agg := cleaner.NewAggregator(resolver, logger)

	rules := cleaner.Rules{
		MusicDeleteBelow: cfg.Rules.MusicDeleteBelow,
		VideoKeepAbove:   cfg.Rules.VideoKeepAbove,
		AnyWatchedDays:   cfg.Rules.AnyWatchedDays,
		AllWatchedDays:   cfg.Rules.AllWatchedDays,
	}
	engine := cleaner.NewEngine(rules, resolver, len(viewers), logger)

	var sink cleaner.DecisionSink
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, time.Now())
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()
		sink = j
	}

	browsers := make([]domain.LibraryBrowser, len(viewers))
	for i, v := range viewers {
		browsers[i] = v
	}

	runner := cleaner.NewRunner(browsers, owner, agg, engine, sink, cleaner.Options{
		LibraryTypes: cfg.Cleaner.LibraryTypes,
		Protected:    cfg.Cleaner.Protected,
		DryRun:       cfg.Cleaner.DryRun,
	}, logger)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Print(report.Render(summary))
	logger.Info("run complete",
		"deleted", summary.Deleted,
		"kept", summary.Kept,
		"deferred", summary.Deferred,
		"held", summary.Held,
		"warned", summary.Warned,
	)

	return nil
}
