package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/fulfillment"
)

// DefaultReleaseChannel is the Pub/Sub channel external warehouse systems
// subscribe to for pick request releases.
const DefaultReleaseChannel = "warehouse:pick-releases"

// ReleaseMessage is the payload published when an external pick request is
// released to the warehouse.
type ReleaseMessage struct {
	RequestID     uuid.UUID            `json:"request_id"`
	RequestNumber string               `json:"request_number"`
	OrderID       uuid.UUID            `json:"order_id"`
	Lines         []ReleaseMessageLine `json:"lines"`
	ReleasedAt    time.Time            `json:"released_at"`
}

// ReleaseMessageLine is one requested line in a release message
type ReleaseMessageLine struct {
	OrderLineID uuid.UUID       `json:"order_line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Requested   decimal.Decimal `json:"requested"`
}

// RedisReleaseNotifier announces released pick requests over Redis Pub/Sub.
// Delivery is fire-and-forget; the pipeline never blocks on the warehouse.
type RedisReleaseNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// RedisReleaseNotifierOption is a functional option for configuring the notifier
type RedisReleaseNotifierOption func(*RedisReleaseNotifier)

// WithReleaseChannel sets the Pub/Sub channel name
func WithReleaseChannel(channel string) RedisReleaseNotifierOption {
	return func(n *RedisReleaseNotifier) {
		n.channel = channel
	}
}

// WithReleaseLogger sets the logger
func WithReleaseLogger(logger *zap.Logger) RedisReleaseNotifierOption {
	return func(n *RedisReleaseNotifier) {
		n.logger = logger
	}
}

// NewRedisReleaseNotifier creates a notifier with an existing Redis client
func NewRedisReleaseNotifier(client *redis.Client, opts ...RedisReleaseNotifierOption) *RedisReleaseNotifier {
	n := &RedisReleaseNotifier{
		client:  client,
		channel: DefaultReleaseChannel,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyReleased publishes the released request to the warehouse channel
func (n *RedisReleaseNotifier) NotifyReleased(ctx context.Context, request *fulfillment.PickRequest) error {
	msg := ReleaseMessage{
		RequestID:     request.ID,
		RequestNumber: request.RequestNumber,
		OrderID:       request.OrderID,
		Lines:         make([]ReleaseMessageLine, 0, len(request.Lines)),
		ReleasedAt:    time.Now(),
	}
	for _, line := range request.Lines {
		msg.Lines = append(msg.Lines, ReleaseMessageLine{
			OrderLineID: line.OrderLineID,
			ProductID:   line.ProductID,
			Requested:   line.Requested,
		})
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal release message: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		n.logger.Error("Failed to publish pick release",
			zap.String("channel", n.channel),
			zap.String("request_number", request.RequestNumber),
			zap.Error(err))
		return fmt.Errorf("failed to publish release message: %w", err)
	}

	n.logger.Debug("Published pick release",
		zap.String("channel", n.channel),
		zap.String("request_number", request.RequestNumber))
	return nil
}
