package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripsync/internal/handler"
	"tripsync/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	StopHandler     *handler.StopHandler
	RealtimeHandler *handler.RealtimeHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("/:code", deps.TripHandler.GetTrip)
			trips.PUT("/:code", deps.TripHandler.UpdateTrip)
			trips.DELETE("/:code", deps.TripHandler.DeleteTrip)
			trips.GET("/:code/stats", deps.TripHandler.GetStats)

			trips.POST("/:code/stops", deps.StopHandler.AddStop)
			trips.PUT("/:code/stops/:stopID", deps.StopHandler.UpdateStop)
			trips.DELETE("/:code/stops/:stopID", deps.StopHandler.RemoveStop)
			trips.PUT("/:code/reorder", deps.StopHandler.ReorderStops)

			trips.GET("/:code/ws", deps.RealtimeHandler.Subscribe)
			trips.GET("/:code/members", deps.RealtimeHandler.MemberCount)
		}
	}

	return router
}
