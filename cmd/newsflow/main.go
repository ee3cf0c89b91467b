package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsflow/internal/admin"
	"newsflow/internal/config"
	"newsflow/internal/dedup"
	"newsflow/internal/event"
	"newsflow/internal/ingest"
	"newsflow/internal/logging"
	"newsflow/internal/newsapi"
	"newsflow/internal/search"
	"newsflow/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "newsflow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Best effort; all settings can come from the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	categories := cfg.CategoryList()

	// Mongo
	mongoClient, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	st := store.NewMongo(mongoClient.Database(cfg.MongoDBName), logger)
	if err := st.EnsureIndexes(ctx, categories); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info().Int("categories", len(categories)).Msg("storage initialised")

	// Upstream client, shared hourly budget
	limiter := newsapi.NewLimiter(cfg.MaxRequestsPerHour, cfg.RateReserve, logger)
	client := newsapi.NewClient(newsapi.ClientOptions{
		BaseURL:    cfg.APIBaseURL,
		APIKey:     cfg.APIKey,
		Language:   cfg.Language,
		Country:    cfg.Country,
		Timeout:    cfg.FetchTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		BackoffCap: cfg.BackoffCap,
	}, limiter, logger)

	// Event publisher (RabbitMQ), optional
	var publisher event.Publisher = event.NopPublisher{}
	if strings.TrimSpace(cfg.RabbitURI) != "" {
		rabbit, err := event.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitExchange, cfg.RabbitRoutingKey, logger)
		if err != nil {
			return fmt.Errorf("init rabbit publisher: %w", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	// Ingestion pipeline
	svc := ingest.NewService(
		client,
		st,
		dedup.NewFilter(st, logger),
		publisher,
		limiter,
		categories,
		cfg.RequestDelay,
		cfg.MaxPerCategory,
		logger,
	)

	scheduler, err := ingest.NewScheduler(cfg.CronSpec, svc, logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Operator surface
	sweeper := dedup.NewSweeper(st, cfg.SimilarityThreshold, logger)
	builder := search.NewBuilder(st, categories, int64(cfg.SearchLimit), logger)
	srv := admin.NewServer(cfg.HTTPAddr, st, builder, sweeper, categories, logger)
	srv.Start()

	scheduler.Start(ctx)
	logger.Info().Str("cron", cfg.CronSpec).Msg("service started")

	// Block until we receive a signal / ctx cancelled
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	scheduler.Stop()

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("mongo disconnect error")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
