package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"atrium/internal/api"
	"atrium/internal/config"
	"atrium/internal/db"
	"atrium/internal/models"
	"atrium/internal/services"
	"atrium/internal/tasks"
	"atrium/internal/utils"
	"atrium/internal/utils/logger"
)

func main() {
	logger := logger.New("atrium")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection: %v", err)
		}
	}()

	dbInstance := db.GetDB()

	// Seed roles, default templates and the bootstrap admin. None of these are
	// fatal: the API can serve with whatever already exists.
	if err := models.SeedRoles(dbInstance); err != nil {
		logger.Warn("Failed to seed roles: %v", err)
	}
	if err := models.SeedTemplates(dbInstance); err != nil {
		logger.Warn("Failed to seed email templates: %v", err)
	}
	if err := models.CreateAdminFromEnv(dbInstance); err != nil {
		logger.Warn("Failed to create bootstrap admin: %v", err)
	} else {
		logger.Success("Seed data verified")
	}

	// Redis is optional: without it the rate limiter degrades to its
	// in-process fallback and periodic maintenance is skipped.
	rdb, err := utils.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without it: %v", err)
		rdb = nil
	}

	// Wire up services
	store := services.NewGormStore(dbInstance)
	sender := utils.NewSMTPSender()
	dispatcher := services.NewDispatcher(store, sender)
	mailer := services.NewMailer(store, dispatcher, cfg.Mailer)
	authService := services.NewAuthService(store, cfg.Auth)

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	var taskServer *tasks.Server
	var taskScheduler *tasks.Scheduler
	if rdb != nil {
		taskHandler := tasks.NewTaskHandler(dbInstance, &cfg.Mailer)
		taskServer = tasks.NewServer(
			cfg.Redis.Addr,
			cfg.Redis.Username,
			cfg.Redis.Password,
			cfg.Redis.DB,
			taskHandler,
			logger,
		)
		go func() {
			if err := taskServer.Start(serverCtx); err != nil {
				logger.Error("Task server error", err)
			}
		}()

		taskScheduler = tasks.NewScheduler(
			cfg.Redis.Addr,
			cfg.Redis.Username,
			cfg.Redis.Password,
			cfg.Redis.DB,
			logger,
		)
		go func() {
			if err := taskScheduler.Start(); err != nil {
				logger.Error("Task scheduler error", err)
			}
		}()
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, dbInstance, mailer, dispatcher, authService, rdb)
	go func() {
		logger.Success("API server started")
		if err := apiServer.Start(); err != nil {
			logger.Error("API server error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if taskScheduler != nil {
		taskScheduler.Stop()
	}
	if taskServer != nil {
		taskServer.Shutdown()
	}
	serverCancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close redis client: %v", err)
		}
	}

	logger.Info("Servers shutdown gracefully")
}
