package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/config"
	"github.com/routewise/booking-backend/internal/database"
	"github.com/routewise/booking-backend/internal/handlers"
	"github.com/routewise/booking-backend/internal/middleware"
	"github.com/routewise/booking-backend/internal/relay"
	"github.com/routewise/booking-backend/internal/services"
	"github.com/routewise/booking-backend/pkg/mailer"
)

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

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to connect to database")
	}
	defer db.Close()
	logger.Info("Database connection established")

	bookingRepo := database.NewBookingRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	var transport mailer.Transport
	if cfg.Mail.Mode == "production" {
		transport = mailer.NewHTTPGateway(mailer.GatewayConfig{
			APIURL:   cfg.Mail.APIURL,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Sender:   cfg.Mail.Sender,
		})
	} else {
		transport = mailer.NewDevTransport(logger)
	}
	logger.WithField("transport", transport.GetName()).Info("Mail transport initialized")

	notificationService := services.NewNotificationService(
		transport,
		notificationRepo,
		logger,
		cfg.Mail.MaxAttempts,
		cfg.Mail.RetryDelay,
	)

	bookingService := services.NewBookingService(
		db,
		bookingRepo,
		scheduleRepo,
		notificationService,
		logger,
		cfg.Booking,
		cfg.Relay.Channel,
	)

	// Event relay
	hub := relay.NewHub()

	var source relay.Source
	switch cfg.Relay.Mode {
	case "push":
		source = relay.NewPushRelay(cfg.Database.URL, cfg.Relay.Channel, hub, bookingRepo, logger)
	case "poll":
		source = relay.NewPollRelay(bookingRepo, hub, cfg.Relay.PollInterval, cfg.Relay.PollLimit, logger)
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	go func() {
		if err := source.Run(relayCtx); err != nil {
			logger.WithFields(logrus.Fields{
				"mode":  source.Name(),
				"error": err.Error(),
			}).Error("Event relay stopped")
		}
	}()
	logger.WithField("mode", source.Name()).Info("Event relay started")

	if cfg.Redis.Enabled {
		sink := relay.NewRedisSink(cfg.Redis, hub, logger)
		if err := sink.Ping(relayCtx); err != nil {
			logger.WithField("error", err.Error()).Fatal("Failed to connect to Redis")
		}
		defer sink.Close()

		go func() {
			if err := sink.Run(relayCtx); err != nil {
				logger.WithField("error", err.Error()).Error("Redis sink stopped")
			}
		}()
	}

	// HTTP server
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       12 * time.Hour,
	}))

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	scheduleHandler := handlers.NewScheduleHandler(bookingService, logger)
	eventsHandler := handlers.NewEventsHandler(hub, logger)

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/bookings", bookingHandler.CreateBooking)
		v1.GET("/bookings", bookingHandler.ListBookings)
		v1.GET("/bookings/:id", bookingHandler.GetBooking)
		v1.PATCH("/bookings/:id", bookingHandler.UpdateBooking)

		v1.POST("/schedules", scheduleHandler.CreateSchedule)
		v1.GET("/schedules", scheduleHandler.ListSchedules)
		v1.GET("/schedules/:id", scheduleHandler.GetSchedule)
		v1.POST("/schedules/:id/cancel", scheduleHandler.CancelSchedule)

		v1.GET("/events", eventsHandler.Stream)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithField("error", err.Error()).Fatal("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopRelay()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err.Error()).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
