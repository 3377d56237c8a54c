package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/sjperalta/ordino-api/internal/cache"
	"github.com/sjperalta/ordino-api/internal/config"
	"github.com/sjperalta/ordino-api/internal/database"
	"github.com/sjperalta/ordino-api/internal/handlers"
	"github.com/sjperalta/ordino-api/internal/jobs"
	"github.com/sjperalta/ordino-api/internal/middleware"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/sjperalta/ordino-api/internal/services"
	"github.com/sjperalta/ordino-api/internal/storage"
	"github.com/sjperalta/ordino-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	idem := newIdempotencyStore(cfg)

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, store, cfg)

	scheduleJobs(worker, svcs, cfg)

	h := handlers.NewHandlers(svcs, idem, time.Duration(cfg.IdempotencyTTLMinutes)*time.Minute)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// newIdempotencyStore uses Redis when REDIS_URL is set so every API instance
// shares the keys. Without it keys only hold within this process.
func newIdempotencyStore(cfg *config.Config) cache.IdempotencyStore {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, idempotency keys are kept in memory")
		return cache.NewMemoryStore()
	}

	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Redis")
	return cache.NewRedisStore(client)
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Index)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		protected.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator))
		{
			// Shipments and manifest lines
			protected.GET("/shipments", h.Shipment.Index)
			protected.POST("/shipments", h.Shipment.Create)
			protected.GET("/shipments/:shipment_id", h.Shipment.Show)
			protected.GET("/shipments/:shipment_id/export", h.Shipment.Export)
			protected.POST("/shipments/:shipment_id/import", h.Import.Rows)
			protected.POST("/shipments/:shipment_id/import/xlsx", h.Import.Upload)

			line := protected.Group("/shipments/:shipment_id/lines/:line_id")
			{
				line.GET("/balance", h.Shipment.LineBalance)
				line.PUT("/saved_fees", h.Shipment.UpdateSavedFees)
				line.PUT("/official_fees", h.Shipment.UpdateOfficialFees)
				line.POST("/payments", h.Payment.Record)
				line.POST("/payments/:payment_id/reverse", h.Payment.Reverse)
			}

			// Payment intents
			protected.GET("/intents", h.Intent.Index)
			protected.GET("/intents/:intent_id", h.Intent.Show)
			protected.POST("/intents/:intent_id/retry", h.Intent.Retry)

			// Check registry (static route before :check_id)
			protected.GET("/checks", h.Check.Index)
			protected.GET("/checks/due", h.Check.Due)
			protected.GET("/checks/:check_id", h.Check.Show)
			protected.POST("/checks/:check_id/clear", h.Check.Clear)
			protected.POST("/checks/:check_id/bounce", h.Check.Bounce)

			// Finance ledger
			protected.GET("/finance/entries", h.Finance.Index)
			protected.GET("/finance/entries/:entry_id", h.Finance.Show)
			protected.GET("/finance/totals", h.Finance.Totals)

			protected.GET("/customers", h.Customer.Index)

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/intents/:intent_id/abandon", h.Intent.Abandon)
				admin.GET("/audits", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Flag intents left pending by a crash so operators can retry them
	worker.ScheduleEveryImmediate("intent_sweep", time.Duration(cfg.IntentSweepIntervalMinutes)*time.Minute, func(ctx context.Context) error {
		_, err := svcs.Ordino.SweepStaleIntents(ctx)
		return err
	})

	// Daily digest of checks falling due in the next three days
	worker.ScheduleEveryImmediate("checks_due", 24*time.Hour, func(ctx context.Context) error {
		checks, err := svcs.Check.DueWithin(ctx, 3)
		if err != nil {
			return err
		}
		for i := range checks {
			c := &checks[i]
			logger.Info("[Job] Check falling due",
				"check_id", c.ID,
				"reference_no", c.ReferenceNo,
				"due_date", c.DueDate.Format("2006-01-02"),
				"amount", c.Amount,
				"currency", c.Currency,
				"overdue", c.IsOverdue(),
			)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
