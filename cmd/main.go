package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hazard-service/internal/cache"
	"hazard-service/internal/config"
	"hazard-service/internal/events"
	"hazard-service/internal/handlers"
	"hazard-service/internal/jobs"
	"hazard-service/internal/middleware"
	"hazard-service/internal/repository"
	"hazard-service/internal/seeders"
	"hazard-service/internal/services"
	"hazard-service/internal/store"
)

// @title Hazard Reporting API
// @version 1.0.0
// @description Workplace hazard reporting, approval and notification service

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Container health check
	if len(os.Args) > 1 && os.Args[1] == "health" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get("http://localhost:" + port + "/health")
		if err != nil {
			os.Exit(1)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
	}

	recordStore, err := config.OpenStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to open record store: %v", err)
	}
	logger.WithField("driver", cfg.StoreDriver).Info("Record store opened")

	// One-off import of a JSON file store into the configured store
	if len(os.Args) > 2 && os.Args[1] == "import-files" {
		src, err := store.NewFileStore(os.Args[2])
		if err != nil {
			logger.Fatalf("Failed to open source directory: %v", err)
		}
		if err := store.Copy(context.Background(), src, recordStore); err != nil {
			logger.Fatalf("Import failed: %v", err)
		}
		logger.WithField("source", os.Args[2]).Info("Import completed")
		return
	}

	// Initialize repositories
	hazardRepo := repository.NewHazardRepository(recordStore)
	userRepo := repository.NewUserRepository(recordStore)
	groupRepo := repository.NewGroupRepository(recordStore)
	notificationRepo := repository.NewNotificationRepository(recordStore)

	bus := events.NewBus(logger)

	// Forward signals to NATS (optional - service works without NATS)
	if cfg.NATSURL != "" {
		forwarder, err := events.NewNATSForwarder(cfg.NATSURL, logger)
		if err != nil {
			logger.Warnf("Failed to connect to NATS: %v. Signals stay in-process.", err)
		} else {
			detach := forwarder.Attach(bus)
			defer forwarder.Close()
			defer detach()
			logger.Info("NATS signal forwarder attached")
		}
	} else {
		logger.Info("NATS_URL not configured, signal forwarding disabled")
	}

	// Capability cache (optional - falls back to resolving on every request)
	var capCache services.CapabilityCache
	if cfg.RedisHost != "" {
		redisCache, err := cache.NewCapabilityCache(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			logger.Warnf("Failed to initialize capability cache: %v. Continuing without caching.", err)
		} else if redisCache.IsAvailable() {
			capCache = redisCache
			defer redisCache.Close()
			logger.Info("Capability cache initialized")
		} else {
			logger.Info("Capability cache unavailable (Redis not connected). Continuing without caching.")
		}
	}

	// Initialize services
	dispatcher := services.NewNotificationDispatcher(notificationRepo, bus, logger)
	userService := services.NewUserService(userRepo, dispatcher, bus, logger)
	groupService := services.NewGroupService(groupRepo, userRepo, dispatcher, bus, logger)
	hazardService := services.NewHazardService(hazardRepo, userRepo, dispatcher, bus, logger)
	notificationService := services.NewNotificationService(notificationRepo, bus, logger)
	permissionService := services.NewPermissionService(groupRepo, capCache, logger)
	unwatch := permissionService.Watch(bus)
	defer unwatch()

	// Seed data
	seed := seeders.DefaultSeed(cfg.AdminPassword)
	if cfg.SeedFile != "" {
		seed, err = seeders.LoadFile(cfg.SeedFile)
		if err != nil {
			logger.Fatalf("Failed to load seed file: %v", err)
		}
	}
	if _, err := seeders.Seed(context.Background(), seed, userRepo, groupRepo, logger); err != nil {
		logger.Fatalf("Failed to seed data: %v", err)
	}

	// Start retention job
	retentionJob := jobs.NewRetentionJob(notificationService, cfg.RetentionInterval, cfg.RetentionMaxAge, cfg.RetentionMaxCount, logger)
	jobCtx, jobCancel := context.WithCancel(context.Background())
	go retentionJob.Start(jobCtx)
	logger.Info("Retention job started")

	// Login and registration are limited per client IP
	var authLimiter *middleware.RateLimiter
	if cfg.AuthRatePerMinute > 0 {
		authLimiter = middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	}

	router := handlers.SetupRouter(handlers.RouterConfig{
		Environment:   cfg.Environment,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
		Store:         recordStore,
		Tokens:        middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		AuthLimiter:   authLimiter,
		Users:         userService,
		Groups:        groupService,
		Hazards:       hazardService,
		Notifications: notificationService,
		Dispatcher:    dispatcher,
		Permissions:   permissionService,
		Bus:           bus,
	})

	// Cancelled on shutdown so open event streams end
	baseCtx, baseCancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		logger.Infof("Hazard service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	jobCancel()
	retentionJob.Stop()
	logger.Info("Retention job stopped")

	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server shutdown complete")
}
