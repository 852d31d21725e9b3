package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"dorm-occupancy-backend/config"
	"dorm-occupancy-backend/internal/hybrid"
	"dorm-occupancy-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. db may be nil
// when the remote store is down; the push-subscription endpoints then
// answer 503 while everything else serves from the fallback cache.
func NewRouter(cfg *config.Config, d *hybrid.Dispatcher, db *gorm.DB, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(d, db, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/workers", handler.GetWorkers)
		api.POST("/workers", handler.CreateWorker)
		api.PUT("/workers/:id", handler.UpdateWorker)
		api.DELETE("/workers/:id", handler.DeleteWorker)
		api.POST("/workers/repair", handler.RepairWorkers)

		api.GET("/rooms", handler.GetRooms)
		api.GET("/dorms", caching, handler.GetDorms)

		api.GET("/stats", caching, handler.GetStats)
		api.GET("/stats/enhanced", caching, handler.GetEnhancedStats)
		api.GET("/stats/filtered", caching, handler.GetFilteredStats)

		api.GET("/export", handler.ExportData)

		api.GET("/users", handler.GetUsers)
		api.POST("/users", handler.CreateUser)
		api.DELETE("/users/:id", handler.DeleteUser)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
