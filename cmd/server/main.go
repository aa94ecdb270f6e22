package main

import (
	"context"
	"correspondence-tracker/internal/blob"
	"correspondence-tracker/internal/config"
	"correspondence-tracker/internal/db"
	"correspondence-tracker/internal/directory"
	"correspondence-tracker/internal/document"
	"correspondence-tracker/internal/logger"
	"correspondence-tracker/internal/middleware"
	"correspondence-tracker/internal/notify"
	"correspondence-tracker/internal/transfer"
	"correspondence-tracker/internal/user"
	"correspondence-tracker/internal/view"
	"correspondence-tracker/internal/worker"
	"correspondence-tracker/redis"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	config.LoadConfig()

	appLogger, err := logger.NewLogger(config.AppConfig.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	db.SeedData()

	// Initialize Redis
	redis.InitRedis()

	blobStore, err := blob.NewFSStore(config.AppConfig.BlobDir)
	if err != nil {
		appLogger.Fatal("failed to initialize blob store", zap.Error(err))
	}

	// Background notification dispatch
	pool := worker.NewWorkerPool(4, appLogger)
	defer pool.Shutdown()

	var notifier notify.Notifier
	if config.AppConfig.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(config.AppConfig.NotifyWebhookURL)
	} else {
		notifier = notify.NewLogNotifier(appLogger)
	}

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	serviceRepo := directory.NewRepository(db.AppDb)
	docRepo := document.NewRepository(db.AppDb)
	transferRepo := transfer.NewRepository(db.AppDb)

	// Initialize services
	userService := user.NewService(userRepo)
	directoryService := directory.NewService(serviceRepo)
	transferService := transfer.NewService(transferRepo, docRepo, pool, notifier, config.AppConfig.RequireAckToClose)
	docService := document.NewService(docRepo, transferRepo, transferService, blobStore, appLogger)
	projector := view.NewProjector(transferRepo, docRepo)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	directoryHandler := directory.NewHandler(directoryService)
	docHandler := document.NewHandler(docService, blobStore)
	transferHandler := transfer.NewHandler(transferService)
	viewHandler := view.NewHandler(projector)

	authMiddleware := middleware.Auth{UserService: userService}
	requireAuth := authMiddleware.AuthMiddleWare()

	// Initialize Gin router
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", requireAuth, userHandler.Logout)
	router.GET("/profile", requireAuth, userHandler.GetProfile)
	router.GET("/users", requireAuth, userHandler.ListUsers)
	router.POST("/admin/users", requireAuth, userHandler.AdminCreate)
	router.PUT("/admin/users/:id", requireAuth, userHandler.AdminUpdate)
	router.DELETE("/admin/users/:id", requireAuth, userHandler.AdminDelete)

	// Service directory routes
	router.GET("/services", directoryHandler.List)
	router.GET("/services/:id/users", requireAuth, directoryHandler.ListMembers)
	router.POST("/services", requireAuth, directoryHandler.Create)
	router.PUT("/services/:id", requireAuth, directoryHandler.Rename)
	router.DELETE("/services/:id", requireAuth, directoryHandler.Delete)

	// Document routes
	router.POST("/documents", requireAuth, docHandler.Create)
	router.GET("/documents/:id", requireAuth, docHandler.Show)
	router.PUT("/documents/:id", requireAuth, docHandler.Update)
	router.DELETE("/documents/:id", requireAuth, docHandler.Delete)
	router.GET("/documents/:id/download", requireAuth, docHandler.Download)
	router.POST("/documents/:id/route", requireAuth, transferHandler.RouteDocument)

	// Transfer routes
	router.POST("/transfers/:id/acknowledge", requireAuth, transferHandler.Acknowledge)
	router.POST("/transfers/:id/close", requireAuth, transferHandler.Close)
	router.DELETE("/transfers/:id", requireAuth, transferHandler.Delete)

	// Read-model routes
	router.GET("/transfers/inbox", requireAuth, viewHandler.Inbox)
	router.GET("/transfers/outbox", requireAuth, viewHandler.Outbox)
	router.GET("/transfers/drafts", requireAuth, viewHandler.Drafts)
	router.GET("/transfers/acknowledged", requireAuth, viewHandler.AcknowledgedByService)
	router.GET("/transfers/acknowledged/mine", requireAuth, viewHandler.AcknowledgedBySender)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		appLogger.Info("Server listening", zap.String("port", serverPort))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}

	<-ctx.Done()
	appLogger.Info("Server shutdown complete")
}
