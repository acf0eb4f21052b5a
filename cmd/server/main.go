package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/dongnetalk-backend/config"
	"github.com/ikkim/dongnetalk-backend/internal/app/controller"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/internal/app/service"
	"github.com/ikkim/dongnetalk-backend/internal/db"
	"github.com/ikkim/dongnetalk-backend/internal/middleware"
	"github.com/ikkim/dongnetalk-backend/internal/router"
	"github.com/ikkim/dongnetalk-backend/internal/scheduler"
	ws "github.com/ikkim/dongnetalk-backend/internal/websocket"
	"github.com/ikkim/dongnetalk-backend/pkg/logger"
	"github.com/ikkim/dongnetalk-backend/pkg/mailer"
	"github.com/ikkim/dongnetalk-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting DONGNETALK Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis (session revocation store)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	// Start the websocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize mailer
	mail := mailer.NewMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Email:    cfg.SMTP.Email,
		Password: cfg.SMTP.Password,
		BaseURL:  cfg.App.BaseURL,
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	tokenRepo := repository.NewMailTokenRepository(db.GetDB())
	messageRepo := repository.NewMessageRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		tokenRepo,
		mail,
		cfg.Session.Secret,
		cfg.Session.Expiry,
	)
	messageService := service.NewMessageService(messageRepo, userRepo, hub)

	// Initialize controllers
	authController := controller.NewAuthController(authService, cfg.Session.Expiry)
	messageController := controller.NewMessageController(messageService, hub)
	adminController := controller.NewAdminController(authService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Session.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		messageController,
		adminController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start the expired token cleanup scheduler
	tokenCleanup := scheduler.NewTokenCleanupScheduler(tokenRepo)
	if err := tokenCleanup.Start(); err != nil {
		logger.Error("Failed to start token cleanup scheduler", err)
	}
	defer tokenCleanup.Stop()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
