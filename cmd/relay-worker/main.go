package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/config"
	"github.com/routewise/booking-backend/internal/database"
	"github.com/routewise/booking-backend/internal/relay"
)

// The relay worker runs a relay source on its own and forwards every event
// to Redis. It lets a fleet of API instances stay out of the event path:
// one worker holds the database listener and external consumers subscribe
// to the Redis channel.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if !cfg.Redis.Enabled {
		logger.Fatal("REDIS_ENABLED must be true for the relay worker")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to connect to database")
	}
	defer db.Close()

	bookingRepo := database.NewBookingRepository(db)
	hub := relay.NewHub()

	var source relay.Source
	switch cfg.Relay.Mode {
	case "push":
		source = relay.NewPushRelay(cfg.Database.URL, cfg.Relay.Channel, hub, bookingRepo, logger)
	case "poll":
		source = relay.NewPollRelay(bookingRepo, hub, cfg.Relay.PollInterval, cfg.Relay.PollLimit, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := relay.NewRedisSink(cfg.Redis, hub, logger)
	if err := sink.Ping(ctx); err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to connect to Redis")
	}
	defer sink.Close()

	// Metrics endpoint on its own port so the worker is observable without
	// the API server
	metricsPort := os.Getenv("RELAY_WORKER_METRICS_PORT")
	if metricsPort == "" {
		metricsPort = "9091"
	}
	metricsSrv := &http.Server{
		Addr:    ":" + metricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithField("error", err.Error()).Error("Metrics server failed")
		}
	}()

	go func() {
		if err := sink.Run(ctx); err != nil {
			logger.WithField("error", err.Error()).Error("Redis sink stopped")
		}
	}()

	logger.WithFields(logrus.Fields{
		"mode":          source.Name(),
		"redis_channel": cfg.Redis.Channel,
	}).Info("Relay worker started")

	if err := source.Run(ctx); err != nil {
		logger.WithField("error", err.Error()).Error("Relay source stopped")
	}

	logger.Info("Relay worker shutting down")
	metricsSrv.Close()
}
