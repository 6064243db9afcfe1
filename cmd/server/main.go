package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bennyh960/stupid-chat-app/internal/config"
	"github.com/bennyh960/stupid-chat-app/internal/handlers"
	"github.com/bennyh960/stupid-chat-app/internal/middleware"
	"github.com/bennyh960/stupid-chat-app/internal/routes"
	"github.com/bennyh960/stupid-chat-app/internal/storage"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()

	// Environment-based logger initialization (production = JSON, development = pretty)
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting stupid-chat-app backend...")

	// Set Gin mode based on environment
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Initialize Storage (data dir, message log document, blob dir)
	store, err := storage.Init(storage.Options{
		DataDir:     config.AppConfig.DataDir,
		FilesDir:    config.AppConfig.FilesDir,
		GracePeriod: config.AppConfig.DownloadGracePeriod,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	handlers.UseStore(store)

	// 2. Setup Router
	r := gin.Default()

	// Middlewares
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityHeaders())

	// Exempt /socket.io from rate limiting
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	// 3. Register Routes
	api := r.Group("/api")
	{
		routes.RegisterChatRoutes(api)
	}

	// Health check with storage status
	r.GET("/health", func(c *gin.Context) {
		storageStatus := "ok"
		if _, err := store.ListMessages(); err != nil {
			storageStatus = "error"
		}

		status := "ok"
		if storageStatus != "ok" {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status":  status,
			"message": "stupid-chat-app backend is running",
			"checks": gin.H{
				"storage": storageStatus,
			},
		})
	})

	// 4. Init Socket.io (best-effort broadcast channel)
	socketServer := handlers.InitSocketServer()
	defer socketServer.Close()

	store.SetNotifier(handlers.BroadcastMessageSent)

	// Register Socket.io Routes
	r.GET("/socket.io/*any", handlers.SocketHandler(socketServer))
	r.POST("/socket.io/*any", handlers.SocketHandler(socketServer))

	// 5. Start Server with graceful shutdown
	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
