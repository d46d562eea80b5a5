package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-ea-automation/internal/orchestrator/config"
	delivery "golang-ea-automation/internal/orchestrator/delivery/http"
	_ "golang-ea-automation/internal/orchestrator/docs"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/internal/orchestrator/strategy"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/common"
	"golang-ea-automation/pkg/lock"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/postgres"
	"golang-ea-automation/pkg/redis"
	"golang-ea-automation/pkg/secret"
	"golang-ea-automation/pkg/telegram"
	"golang-ea-automation/pkg/utils"
	"golang-ea-automation/pkg/vultr"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the orchestrator API and background sweeps",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Orchestrator Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		appLogger.Fatal("Failed to get database handle", logger.ErrorField(err))
	}
	defer sqlDB.Close()

	if cfg.Orchestrator.AutoMigrate {
		if err := repository.AutoMigrate(db.DB); err != nil {
			appLogger.Fatal("Failed to migrate database", logger.ErrorField(err))
		}
	}

	// Locks are process-local unless several replicas share Redis
	var locker lock.Locker = lock.NewLocal()
	if cfg.Orchestrator.LockBackend == "redis" {
		redisClient, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient.Client, common.LockKeyPrefix, cfg.Orchestrator.LockTTL)
	}

	sealer, err := secret.NewAESGCM(cfg.Orchestrator.EncryptionKey)
	if err != nil {
		appLogger.Fatal("Invalid encryption key", logger.ErrorField(err))
	}

	var alerter telegram.Notifier
	if cfg.Telegram.Enabled {
		alerter, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Telegram alerts disabled", logger.ErrorField(err))
			alerter = nil
		}
	}

	vultrClient := vultr.New(cfg.Vultr.APIKey,
		vultr.WithBaseURL(cfg.Vultr.BaseURL),
		vultr.WithTimeout(cfg.Vultr.Timeout),
		vultr.WithRateLimit(cfg.Vultr.RateLimit, cfg.Vultr.RateBurst),
		vultr.WithRetry(cfg.Vultr.MaxRetries, 0),
	)
	bridgeClient := bridge.New(cfg.Bridge.BaseURL, cfg.Bridge.APIKey, bridge.WithTimeout(cfg.Bridge.Timeout))

	// Initialize repositories
	tx := repository.NewTransactor(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	accountRepo := repository.NewTradingAccountRepository(db.DB)
	vpsRepo := repository.NewVPSInstanceRepository(db.DB)
	jobRepo := repository.NewAutomationJobRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	// Initialize services
	opts := service.Options{
		LockWait:               cfg.Orchestrator.LockWait,
		MaxRetries:             cfg.Orchestrator.MaxRetries,
		JobTimeout:             cfg.Orchestrator.JobTimeout,
		StatusTimeout:          cfg.Bridge.StatusTimeout,
		RefreshTimeout:         cfg.Bridge.RefreshTimeout,
		BulkRefreshConcurrency: cfg.Orchestrator.BulkRefreshConcurrency,
		CatalogTTL:             cfg.Vultr.CatalogTTL,
	}
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, alerter, appLogger)
	vpsSvc := service.NewVPSService(tx, vpsRepo, accountRepo, vultrClient, sealer, locker, notificationSvc, opts, appLogger)
	accountSvc := service.NewAccountService(accountRepo, vpsRepo, userRepo, bridgeClient, sealer, locker, notificationSvc, opts, appLogger)
	deploymentSvc := service.NewDeploymentService(tx, jobRepo, accountRepo, vpsRepo, locker, notificationSvc, opts, appLogger)
	strategies := []strategy.JobExecutionStrategy{
		strategy.NewStatusCheckStrategy(bridgeClient, accountRepo, appLogger),
		strategy.NewVPSHealthCheckStrategy(vpsSvc, vpsRepo, appLogger),
	}
	jobSvc := service.NewJobService(tx, jobRepo, accountRepo, vpsRepo, locker, notificationSvc, strategies, opts, appLogger)

	if cfg.Sweep.Enabled {
		sweepSvc := service.NewSweepService(accountSvc, vpsSvc, alerter, cfg.Sweep, appLogger)
		utils.GoSafe(func() {
			if err := sweepSvc.Start(ctx); err != nil {
				appLogger.Error("Sweep scheduler stopped", logger.ErrorField(err))
			}
		})
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))

	e.GET("/health", func(c echo.Context) error {
		pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/swagger/*", swagger.WrapHandler)

	verifier := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	admin := delivery.RequireAdmin(appLogger)
	apiV1 := e.Group("/api/v1", delivery.Authenticate(verifier, appLogger))

	delivery.NewAccountHandler(accountSvc, appLogger).RegisterRoutes(apiV1.Group("/accounts"), admin)
	delivery.NewJobHandler(jobSvc, appLogger).RegisterRoutes(apiV1.Group("/jobs"), admin)
	delivery.NewNotificationHandler(notificationSvc, appLogger).RegisterRoutes(apiV1.Group("/notifications"))
	delivery.NewVPSHandler(vpsSvc, appLogger).RegisterRoutes(apiV1.Group("/vps", admin))
	delivery.NewDeploymentHandler(deploymentSvc, appLogger).RegisterRoutes(apiV1.Group("/deployments", admin))
	delivery.NewBridgeHandler(bridgeClient, appLogger).RegisterRoutes(apiV1.Group("/bridge", admin))

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title EA Automation Orchestrator API
// @version 1.0
// @description Provisions trading VPS instances, deploys expert advisors and tracks automation jobs.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{Use: "orchestrator-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-orchestrator.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing orchestrator-service CLI: %s\n", err)
		os.Exit(1)
	}
}
