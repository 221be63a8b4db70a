package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/joao-fontenele/sokonova-analytics/internal/campaigns"
	"github.com/joao-fontenele/sokonova-analytics/internal/config"
	"github.com/joao-fontenele/sokonova-analytics/internal/messaging"
	"github.com/joao-fontenele/sokonova-analytics/internal/telemetry"
)

const expirySweepInterval = time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "campaign-worker", "0.1.0", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.CampaignTopic, cfg.CampaignConsumerGroup)
	defer func() { _ = consumer.Close() }()

	repo := campaigns.NewRepository(db)
	ledger := campaigns.NewLedgerHandler(repo, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	go sweepExpired(ctx, repo, logger)

	logger.Info("starting campaign worker", "brokers", cfg.KafkaBrokers, "topic", cfg.CampaignTopic)

	if err := consumer.Consume(ctx, ledger.Handle); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}

func sweepExpired(ctx context.Context, repo *campaigns.Repository, logger *slog.Logger) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.ExpireDue(ctx, now)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("failed to expire campaigns", "error", err)
				}
				continue
			}
			if n > 0 {
				logger.Info("campaigns expired", "count", n)
			}
		}
	}
}
