package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"handyconnect-server/config"
	"handyconnect-server/database"
	"handyconnect-server/jobs"
	"handyconnect-server/logger"
	"handyconnect-server/middleware"
	"handyconnect-server/repository"
	"handyconnect-server/routes"
	"handyconnect-server/services"
	ws "handyconnect-server/websocket"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet.
		_ = logger.InitLogger(os.Getenv("ENVIRONMENT"))
		logger.Fatal("❌ Invalid configuration", zap.Error(err))
	}

	if err := logger.InitLogger(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logger.Fatal("❌ Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	customers := repository.NewCustomerRepository(db)
	workers := repository.NewWorkerRepository(db)
	admins := repository.NewAdminRepository(db)
	bookings := repository.NewBookingRepository(db)

	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	var uploader services.ImageUploader
	cloudinary, err := services.NewCloudinaryUploader(cfg.Cloudinary)
	switch {
	case err != nil:
		logger.Fatal("❌ Failed to configure Cloudinary", zap.Error(err))
	case cloudinary == nil:
		logger.Warn("⚠️ Cloudinary not configured, worker signup uploads are disabled")
	default:
		uploader = cloudinary
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	go hub.Run(ctx)

	admin := services.NewAdminService(admins, workers, tokens)
	if err := admin.SeedAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal("❌ Failed to seed admin", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	cleanup := jobs.NewCleanupJob(limiter, 10*time.Minute)
	cleanup.Start()
	defer cleanup.Stop()

	router := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		DB:       db,
		Tokens:   tokens,
		Auth:     services.NewAuthService(customers, workers, tokens, uploader),
		Admin:    admin,
		Bookings: services.NewBookingService(bookings, workers, hub, cfg.Workers.RequireApproval),
		Queries:  services.NewBookingQueryService(bookings, workers, cfg.Workers.RequireApproval),
		Hub:      hub,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.Bool("worker_approval_required", cfg.Workers.RequireApproval))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("🛑 Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("👋 Server stopped")
}
