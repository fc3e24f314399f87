package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/config"
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/internal/verification"
)

const (
	drainSchedule  = "@every 30s"
	drainBatchSize = 100
	drainTimeout   = 25 * time.Second
)

// The outbox worker retries audit entries the API could not deliver to
// the activity store at decision time. Delivery is idempotent, so
// overlapping runs after a crash are harmless.
func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	mongoCtx, mongoCancel := context.WithTimeout(ctx, 10*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	activityRepo := activity.NewRepository(mongoClient.Database(cfg.Mongo.Database))

	settingsService, err := settings.NewService(ctx, settings.NewRepository(db), activityRepo, logger)
	if err != nil {
		logger.Fatal("Failed to load platform settings", zap.Error(err))
	}

	// The worker only drains the outbox; the registry stays empty and
	// neither account sync nor notifier is wired.
	registry := congregations.NewRegistry(congregations.NewRepository(db))
	engine := verification.NewEngine(verification.NewRepository(db), registry,
		settingsService, activityRepo, nil, nil, logger)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(drainSchedule, func() {
		runCtx, runCancel := context.WithTimeout(ctx, drainTimeout)
		defer runCancel()

		delivered, err := engine.DrainOutbox(runCtx, drainBatchSize)
		if err != nil {
			logger.Warn("Outbox drain failed", zap.Error(err))
			return
		}
		if delivered > 0 {
			logger.Info("Outbox drained", zap.Int("delivered", delivered))
		}
	})
	if err != nil {
		logger.Fatal("Failed to schedule drain job", zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Outbox worker started", zap.String("schedule", drainSchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down outbox worker...")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("Outbox worker exiting")
}
