package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/shared"
)

// ActivityLogHandler writes every pipeline event to the structured log. It is
// subscribed as a wildcard handler and serves as the audit trail of stage
// transitions across the fulfillment pipeline.
type ActivityLogHandler struct {
	logger *zap.Logger
}

// NewActivityLogHandler creates a new activity log handler
func NewActivityLogHandler(logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{logger: logger}
}

// Handle logs the event
func (h *ActivityLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("pipeline event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice; the handler receives all events
func (h *ActivityLogHandler) EventTypes() []string {
	return nil
}

// Ensure ActivityLogHandler implements EventHandler
var _ shared.EventHandler = (*ActivityLogHandler)(nil)
