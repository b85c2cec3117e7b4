// Package notify publishes domain notifications to Redis pub/sub so other
// processes can refresh result views when responses change.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultChannel is the channel notifications are published on.
const DefaultChannel = "responses"

// Envelope wraps every published payload.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher is the subset of *redis.Client used by RedisNotifier.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes JSON envelopes on a single channel.
type RedisNotifier struct {
	client  Publisher
	channel string
	now     func() time.Time
	logger  *slog.Logger
}

// NewRedisNotifier constructs a notifier. An empty channel uses DefaultChannel.
func NewRedisNotifier(client Publisher, channel string, now func() time.Time, logger *slog.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{client: client, channel: channel, now: now, logger: logger}
}

// Publish marshals payload into an Envelope and publishes it.
func (n *RedisNotifier) Publish(ctx context.Context, eventType string, payload any) error {
	if n == nil || n.client == nil {
		return fmt.Errorf("redis notifier not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	envelope := Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: n.now().UTC(),
		Payload:   body,
	}
	message, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	receivers, err := n.client.Publish(ctx, n.channel, message).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	n.logger.DebugContext(ctx, "notification published",
		"channel", n.channel,
		"type", eventType,
		"notification_id", envelope.ID,
		"receivers", receivers,
	)
	return nil
}

// Dial connects to the Redis server at url and verifies the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Decode parses a message received from the channel.
func Decode(message string) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal([]byte(message), &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode notification: %w", err)
	}
	if envelope.Type == "" {
		return Envelope{}, fmt.Errorf("decode notification: missing type")
	}
	return envelope, nil
}
