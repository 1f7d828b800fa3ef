package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"pickmarket/config"
	"pickmarket/database"
	"pickmarket/events"
	"pickmarket/metrics"
	"pickmarket/oddsfeed"
	"pickmarket/repository"
	"pickmarket/service"
)

// Run initializes and starts the settlement engine
func Run(ctx context.Context) error {
	log.Info("Starting pick settlement engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Forward settlement events to Kafka when brokers are configured
	var forwarder *events.KafkaForwarder
	if cfg.KafkaBrokers != "" {
		forwarder = events.NewKafkaForwarder(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		forwarder.Register(eventBus)
		log.WithField("topic", cfg.KafkaTopic).Info("Kafka event forwarding enabled")
	}

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize odds feed with Redis snapshot cache
	feedClient := oddsfeed.NewClient(cfg.OddsAPIKey,
		oddsfeed.WithBaseURL(cfg.OddsAPIBaseURL),
		oddsfeed.WithTimeout(cfg.FeedTimeout),
	)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	feed := oddsfeed.NewCachedFeed(feedClient, redisClient, cfg.SnapshotTTL)

	// Initialize services
	log.Info("Initializing services...")
	payout := service.NewPayoutPolicy(cfg)
	evaluator := service.NewOutcomeEvaluator()
	packageService := service.NewPackageService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory, feed, evaluator, packageService, payout)
	syncService := service.NewSyncService(uowFactory, feed, eventBus)

	// Start metrics server
	settlementMetrics := metrics.NewSettlementMetrics()
	metricsServer := metrics.StartMetricsServer(cfg.MetricsPort, settlementMetrics.Registry(), func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server started")

	// Run an initial sync so settlement has data to work with
	if _, err := syncService.SyncSportsData(ctx); err != nil {
		log.WithField("error", err).Warn("Initial sports data sync failed")
	}

	// Start the settlement and sync loops
	go runSettlementLoop(ctx, settlementService, settlementMetrics, cfg.SettlementInterval)
	go runSyncLoop(ctx, syncService, settlementMetrics, cfg.SyncInterval)

	log.WithField("environment", cfg.Environment).Info("Settlement engine is running")
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down settlement engine...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Warn("Error shutting down metrics server")
	}
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			log.WithField("error", err).Warn("Error closing Kafka forwarder")
		}
	}
	if err := redisClient.Close(); err != nil {
		log.WithField("error", err).Warn("Error closing Redis client")
	}
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

func runSettlementLoop(ctx context.Context, settlement service.SettlementService, m *metrics.SettlementMetrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := settlement.RunSettlementPass(ctx)
			m.ObservePass(summary, err)
			if err != nil {
				log.WithField("error", err).Error("Settlement pass failed")
			}
		}
	}
}

func runSyncLoop(ctx context.Context, sync service.SyncService, m *metrics.SettlementMetrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := sync.SyncSportsData(ctx)
			if err != nil {
				log.WithField("error", err).Error("Sports data sync failed")
				continue
			}
			m.SyncMatches.Add(float64(result.MatchesCreated))
			m.SyncErrors.Add(float64(result.LeagueErrors))
		}
	}
}
