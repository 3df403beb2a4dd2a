package relay

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/routewise/booking-backend/internal/config"
)

// RedisSink republishes hub events on a Redis channel so instances that do
// not hold the database LISTEN connection, and any external consumers, can
// observe booking transitions.
type RedisSink struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *logrus.Logger
}

// NewRedisSink creates a new Redis sink
func NewRedisSink(cfg config.RedisConfig, hub *Hub, logger *logrus.Logger) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisSink{
		client:  client,
		channel: cfg.Channel,
		hub:     hub,
		logger:  logger,
	}
}

// Ping verifies the Redis connection
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Run forwards hub events to Redis until the context is cancelled
func (s *RedisSink) Run(ctx context.Context) error {
	events, cancel := s.hub.Subscribe()
	defer cancel()

	s.logger.WithField("channel", s.channel).Info("Redis sink forwarding events")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}

			payload, err := json.Marshal(event)
			if err != nil {
				relayErrors.Inc()
				s.logger.WithField("error", err.Error()).Error("Failed to encode event for Redis")
				continue
			}

			if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
				relayErrors.Inc()
				s.logger.WithFields(logrus.Fields{
					"booking_id": event.BookingID,
					"error":      err.Error(),
				}).Warn("Failed to publish event to Redis")
			}
		}
	}
}

// Close releases the Redis connection
func (s *RedisSink) Close() error {
	return s.client.Close()
}
