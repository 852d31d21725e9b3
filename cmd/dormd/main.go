package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"dorm-occupancy-backend/config"
	"dorm-occupancy-backend/internal/api"
	"dorm-occupancy-backend/internal/db"
	"dorm-occupancy-backend/internal/hybrid"
	"dorm-occupancy-backend/internal/localcache"
	"dorm-occupancy-backend/internal/notification"
	"dorm-occupancy-backend/internal/retry"
	"dorm-occupancy-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "dorm-backend ", log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		logger.Printf(".env not loaded: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys not configured, push notifications disabled")
	}

	// The local cache must exist before anything else: it is the last
	// line of defense when the remote store is down.
	local, err := localcache.Open(cfg.Fallback.Path)
	if err != nil {
		logger.Fatalf("failed to open fallback cache at %s: %v", cfg.Fallback.Path, err)
	}
	if err := local.Initialize(); err != nil {
		logger.Fatalf("failed to initialize fallback cache: %v", err)
	}
	logger.Printf("fallback cache ready at %s", cfg.Fallback.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A remote failure at startup is not fatal: the dispatcher serves
	// everything but push subscriptions from the fallback cache.
	var gormDB *gorm.DB
	var remote store.Store
	var pool *notification.WorkerPool

	gormDB, err = db.Init(&cfg.Database)
	if err != nil {
		logger.Printf("remote store unavailable, running on fallback cache: %v", err)
		gormDB = nil
	} else {
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)

		remote = store.NewGormStore(gormDB, func(collection string) {
			if pool != nil {
				pool.Dispatch(collection)
			}
		})
		logger.Println("remote store initialized")
	}

	dispatcher := hybrid.NewDispatcher(remote, local, retry.New(), cfg.Fallback.PollInterval)

	router := api.NewRouter(cfg, dispatcher, gormDB, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
