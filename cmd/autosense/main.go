package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/magnusfroste/auto-sense-sub000/internal/config"
	"github.com/magnusfroste/auto-sense-sub000/internal/infrastructure/database/postgres"
	"github.com/magnusfroste/auto-sense-sub000/internal/logger"
	"github.com/magnusfroste/auto-sense-sub000/internal/routes"
	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/autotrip"
	"github.com/magnusfroste/auto-sense-sub000/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}
	if cfg.Telematics.BaseURL == "" {
		logger.Fatal("Telematics configuration is missing. Please set TELEMATICS_BASE_URL environment variable.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unavailable, status cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient = mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			ConnectTimeout:       10,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
		})
		if err := mqttClient.Connect(); err != nil {
			logger.Warn("MQTT broker unavailable, trip events disabled", zap.Error(err))
			mqttClient = nil
		} else {
			defer mqttClient.Disconnect()
		}
	}

	router, orchestrator := routes.SetupRoutes(cfg, db, rdb, mqttClient)

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go runPollLoop(pollCtx, orchestrator, cfg.Poller.Interval)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	stopPolling()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}

// runPollLoop triggers a full polling cycle at the configured interval until
// the context is cancelled.
func runPollLoop(ctx context.Context, orchestrator *autotrip.Orchestrator, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := orchestrator.PollAll(ctx); err != nil {
				logger.Error("Scheduled poll cycle failed", zap.Error(err))
			}
		}
	}
}
