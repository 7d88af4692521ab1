package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
)

// Publisher is the subset of *redis.Client used to publish events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisNotifier publishes events as JSON on a channel. The tenant code is
// appended to the base channel so consumers can subscribe per company.
type RedisNotifier struct {
	client  Publisher
	channel string
}

// NewRedisNotifier creates a notifier publishing on channel:<companyCode>.
func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Channel returns the channel an event of companyCode is published on.
func (n *RedisNotifier) Channel(companyCode string) string {
	return n.channel + ":" + companyCode
}

// Notify implements attendance.Notifier.
func (n *RedisNotifier) Notify(ctx context.Context, event attendance.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.Channel(event.CompanyCode), payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
