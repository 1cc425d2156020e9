package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/mobirepair/mobirepair-api/services"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := utils.InitLogger(cfg.GoEnv, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.GetLogger().Sync()
	logger := utils.GetLogger()
	logger.Info("Starting Mobile Repair API server", zap.String("env", cfg.GoEnv))

	utils.SetExposeErrorDetails(cfg.IsDevelopment())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.JaegerEndpoint != "" {
		tp, err := utils.InitTracer(cfg.JaegerEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := config.GetDB()
	if err := config.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migration completed successfully")

	events := services.InitEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopicEvents)
	defer events.Close()

	var images services.ImageService
	if cfg.AWSS3Bucket != "" {
		store, err := services.InitS3Service(context.Background(), cfg)
		if err != nil {
			logger.Fatal("Failed to initialize S3", zap.Error(err))
		}
		images = services.InitImageService(store)
	} else {
		logger.Warn("AWS_S3_BUCKET not set, booking photo uploads are disabled")
	}

	if err := initServices(cfg, db, events, images); err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	if cfg.HasAdminBootstrap() {
		if _, err := services.GetCredentialService().EnsureAdmin(context.Background(),
			cfg.AdminName, cfg.AdminEmail, cfg.AdminPhone, cfg.AdminPassword); err != nil {
			logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
		}
	}

	var counters middleware.CounterStore = middleware.NewMemoryCounterStore()
	if cfg.RedisAddr != "" {
		rdb, err := config.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("Redis unavailable, rate limits are kept in memory", zap.Error(err))
		} else {
			defer rdb.Close()
			counters = middleware.NewRedisCounterStore(rdb)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, counters),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

// initServices wires the domain services over db. images may be nil when photo storage is not configured.
func initServices(cfg *config.Config, db *gorm.DB, events services.EventPublisher, images services.ImageService) error {
	services.InitCredentialService(db)
	if _, err := services.InitTokenService(cfg); err != nil {
		return err
	}
	services.InitCatalogService(db)

	dispatcher := services.InitNotificationDispatcher(services.NewSMSGateway(cfg), cfg)
	services.InitBookingService(db, dispatcher, events, images, cfg)
	services.InitOrderService(db, events, cfg)
	return nil
}
