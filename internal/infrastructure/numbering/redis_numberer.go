package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentNumberer issues sequential document numbers through Redis
// counters. One counter exists per document type and day, so numbers are
// gap-free per day and safe across instances.
// Format: {docType}-{yyyymmdd}-{NNNN} (e.g. PK-20260830-0001).
type RedisDocumentNumberer struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDocumentNumberer creates a numberer backed by a new Redis client
func NewRedisDocumentNumberer(cfg RedisConfig) (*RedisDocumentNumberer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDocumentNumbererWithClient(client, ""), nil
}

// NewRedisDocumentNumbererWithClient creates a numberer with an existing
// Redis client. Useful for testing or when sharing a client across components.
func NewRedisDocumentNumbererWithClient(client *redis.Client, keyPrefix string) *RedisDocumentNumberer {
	if keyPrefix == "" {
		keyPrefix = "docnum:"
	}
	return &RedisDocumentNumberer{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NextNumber returns the next number for the document type. The daily counter
// expires after 48 hours; the date in the key keeps old counters from ever
// being reused.
func (n *RedisDocumentNumberer) NextNumber(ctx context.Context, docType string) (string, error) {
	day := time.Now().Format("20060102")
	key := fmt.Sprintf("%s%s:%s", n.keyPrefix, docType, day)

	seq, err := n.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment document counter: %w", err)
	}
	if seq == 1 {
		// Best effort; an unexpired counter only wastes a key
		n.client.Expire(ctx, key, 48*time.Hour)
	}

	return fmt.Sprintf("%s-%s-%04d", docType, day, seq), nil
}
