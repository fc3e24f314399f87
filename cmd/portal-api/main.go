package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/config"
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/events"
	"faith-connect/congregation-portal/portal-backend/internal/migrate"
	"faith-connect/congregation-portal/portal-backend/internal/moderation"
	"faith-connect/congregation-portal/portal-backend/internal/notifications"
	"faith-connect/congregation-portal/portal-backend/internal/reports"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/internal/users"
	"faith-connect/congregation-portal/portal-backend/internal/verification"
	"faith-connect/congregation-portal/portal-backend/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres, shared by the sqlx and GORM layers
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open GORM connection", zap.Error(err))
	}

	if err := migrate.NewManager(db, logger).Up(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := gdb.AutoMigrate(&users.User{}, &events.Event{}); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Mongo holds the activity log
	mongoCtx, mongoCancel := context.WithTimeout(ctx, 10*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	activityRepo := activity.NewRepository(mongoClient.Database(cfg.Mongo.Database))

	// Accounts and sessions
	usersRepo := users.NewRepository(gdb)
	authService := auth.NewService(usersRepo, cfg.Security.JWTSecret, cfg.Security.TokenTTL, logger)

	// Platform settings, cached in memory
	settingsService, err := settings.NewService(ctx, settings.NewRepository(db), activityRepo, logger)
	if err != nil {
		logger.Fatal("Failed to load platform settings", zap.Error(err))
	}

	// Congregations and the in-memory moderation snapshot
	congRepo := congregations.NewRepository(db)
	registry := congregations.NewRegistry(congRepo)
	if err := registry.Load(ctx); err != nil {
		logger.Warn("Initial registry load failed, starting empty", zap.Error(err))
	}

	media, err := storage.NewS3Client(ctx, cfg.Storage.Region, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("Failed to initialize media storage", zap.Error(err))
	}
	congService := congregations.NewService(congRepo, registry, settingsService, media, logger)

	// Decision push + email
	hub := notifications.NewHub(logger)
	var mailer notifications.Mailer = notifications.NopMailer{}
	if cfg.Email.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
		if err != nil {
			logger.Fatal("Failed to load AWS configuration", zap.Error(err))
		}
		mailer = notifications.NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.Email.Sender, logger)
	}
	notifService := notifications.NewService(hub, mailer, congRepo, logger)

	usersService := users.NewService(usersRepo, activityRepo, logger)

	// Verification engine and moderation console
	engine := verification.NewEngine(verification.NewRepository(db), registry,
		settingsService, activityRepo, usersService, notifService, logger)
	consoles := moderation.NewManager(registry, engine)
	eventsRepo := events.NewRepository(gdb)
	eventsService := events.NewService(eventsRepo, settingsService, activityRepo, logger)
	reportsService := reports.NewService(registry, usersRepo, eventsRepo, logger)

	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(auth.Middleware(authService))

	api := router.Group("/api/v1")
	{
		auth.NewHandler(authService, logger).RegisterRoutes(api)
		users.NewHandler(usersService, logger).RegisterRoutes(api)
		settings.NewHandler(settingsService, logger).RegisterRoutes(api)
		congregations.NewHandler(congService, registry, logger).RegisterRoutes(api)
		verification.NewHandler(engine, logger).RegisterRoutes(api)
		moderation.NewHandler(consoles, logger).RegisterRoutes(api)
		events.NewHandler(eventsService, logger).RegisterRoutes(api)
		reports.NewHandler(reportsService, logger).RegisterRoutes(api)
		activity.NewHandler(activityRepo, logger).RegisterRoutes(api)
		notifications.NewHandler(hub, logger).RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	logger.Info("Server started", zap.String("addr", cfg.Server.GetServerAddr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
