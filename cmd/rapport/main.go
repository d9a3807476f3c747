package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rapport/internal/analyzer"
	"github.com/MikeSquared-Agency/rapport/internal/anthropic"
	"github.com/MikeSquared-Agency/rapport/internal/api"
	"github.com/MikeSquared-Agency/rapport/internal/config"
	"github.com/MikeSquared-Agency/rapport/internal/hermes"
	"github.com/MikeSquared-Agency/rapport/internal/ingest"
	"github.com/MikeSquared-Agency/rapport/internal/processor"
	"github.com/MikeSquared-Agency/rapport/internal/slack"
	"github.com/MikeSquared-Agency/rapport/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "ingest" {
		runIngest(cfg, os.Args[2:])
		return
	}

	slog.Info("rapport starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// Analyzer
	an := analyzer.New(llm, slog.Default())

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Slack poster (optional — Rapport works without Slack, just no review loop)
	var slackPoster *slack.Poster
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		slackPoster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured — running without review loop")
	}

	// Processor — the main pipeline
	proc := processor.New(db, an, hermesClient, slackPoster, cfg.ChronicleURL, slog.Default())

	// Subscribe to conversation events
	if err := hermesClient.Subscribe("swarm.chronicle.chat.stored", proc.HandleChatStored); err != nil {
		slog.Error("failed to subscribe to chat events", "error", err)
		os.Exit(1)
	}

	// Subscribe to Slack reactions for the review loop
	if err := hermesClient.Subscribe("swarm.slack.reaction", proc.HandleReaction); err != nil {
		slog.Error("failed to subscribe to slack reactions", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewInsightServer(cfg.Port, cfg.APIToken, db, hermesClient)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish("swarm.agent.rapport.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("rapport ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("rapport stopped")
}

// runIngest runs the one-shot chat export ingest instead of the service loop.
func runIngest(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	jsonlDir := fs.String("jsonl-dir", "~/exports/jsonl", "directory of JSONL chat exports")
	textDir := fs.String("text-dir", "~/exports/text", "directory of plain text chat exports")
	singleFile := fs.String("file", "", "process a single export file")
	owner := fs.String("owner", "", "owner UUID for persisted records")
	since := fs.String("since", "", "only ingest conversations after this date (YYYY-MM-DD)")
	until := fs.String("until", "", "only ingest conversations before this date (YYYY-MM-DD)")
	dryRun := fs.Bool("dry-run", false, "segment without writing to the database")
	batchSize := fs.Int("batch-size", 20, "annotations per batch before pausing")
	minMessages := fs.Int("min-messages", 4, "skip exports with fewer messages")
	_ = fs.Parse(args)

	ingestCfg := ingest.Config{
		JSONLDir:     *jsonlDir,
		TextDir:      *textDir,
		SingleFile:   *singleFile,
		DryRun:       *dryRun,
		BatchSize:    *batchSize,
		MinMessages:  *minMessages,
		SlackToken:   cfg.SlackBotToken,
		SlackChannel: cfg.SlackChannel,
	}

	if *owner != "" {
		ownerUUID, err := uuid.Parse(*owner)
		if err != nil {
			slog.Error("invalid owner UUID", "owner", *owner, "error", err)
			os.Exit(1)
		}
		ingestCfg.OwnerUUID = ownerUUID
	}
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			slog.Error("invalid since date", "since", *since, "error", err)
			os.Exit(1)
		}
		ingestCfg.Since = t
	}
	if *until != "" {
		t, err := time.Parse("2006-01-02", *until)
		if err != nil {
			slog.Error("invalid until date", "until", *until, "error", err)
			os.Exit(1)
		}
		ingestCfg.Until = t
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	an := analyzer.New(llm, slog.Default())

	runner := ingest.NewRunner(ingestCfg, db, an, slog.Default())
	if err := runner.Run(ctx); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
