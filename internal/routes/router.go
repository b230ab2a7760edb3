package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/magnusfroste/auto-sense-sub000/internal/config"
	"github.com/magnusfroste/auto-sense-sub000/internal/delivery/http/handler"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/cache"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/events"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
	"github.com/magnusfroste/auto-sense-sub000/internal/middleware"
	"github.com/magnusfroste/auto-sense-sub000/internal/telematics"
	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/autotrip"
	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/connections"
	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/trips"
	"github.com/magnusfroste/auto-sense-sub000/pkg/mqtt"
)

// SetupRoutes wires the full application and returns the router together
// with the orchestrator, which main also drives on a timer.
func SetupRoutes(cfg *config.Config, db *postgres.DB, rdb *redis.Client, mqttClient *mqtt.Client) (*gin.Engine, *autotrip.Orchestrator) {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	connectionRepository := postgres.NewConnectionRepository(db)
	stateRepository := postgres.NewVehicleStateRepository(db)
	tripRepository := postgres.NewTripRepository(db)
	profileRepository := postgres.NewProfileRepository(db)

	telematicsClient := telematics.NewClient(&cfg.Telematics, connectionRepository)
	engine := autotrip.NewEngine(tripRepository, stateRepository)
	resolver := autotrip.NewConfigResolver(profileRepository)

	orchestrator := autotrip.NewOrchestrator(
		connectionRepository,
		stateRepository,
		telematicsClient,
		engine,
		resolver,
		cfg.Poller.Concurrency,
	)
	if cfg.Poller.History {
		orchestrator.WithHistory(postgres.NewHistoryRepository(db))
	}

	var statusCache *cache.VehicleStatusCache
	if rdb != nil {
		statusCache = cache.NewVehicleStatusCache(rdb, cfg.Redis.TTL)
		orchestrator.WithCache(statusCache)
	}
	if mqttClient != nil {
		orchestrator.WithEvents(events.NewMQTTPublisher(mqttClient, 1))
	}

	tripService := trips.NewService(tripRepository)
	tripHandler := handler.NewTripHandler(tripService)

	var snapshots connections.SnapshotReader
	if statusCache != nil {
		snapshots = statusCache
	}
	connectionService := connections.NewService(connectionRepository, stateRepository, snapshots)
	connectionHandler := handler.NewConnectionHandler(connectionService)

	pollHandler := handler.NewPollHandler(orchestrator)

	v1 := router.Group("/api/v1")
	{
		internal := v1.Group("")
		internal.Use(middleware.PollTokenMiddleware(cfg.Poller.Token))
		{
			pollHandler.RegisterRoutes(internal)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			tripHandler.RegisterRoutes(protected)
			connectionHandler.RegisterRoutes(protected)
		}
	}

	logger.Info("All routes initialized")
	return router, orchestrator
}
