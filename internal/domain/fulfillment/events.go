package fulfillment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeOrder       = "Order"
	AggregateTypePickRequest = "PickRequest"
	AggregateTypeShipment    = "Shipment"
)

// Event type constants
const (
	EventTypeOrderConfirmed       = "OrderConfirmed"
	EventTypeOrderStatusChanged   = "OrderStatusChanged"
	EventTypeOrderCompleted       = "OrderCompleted"
	EventTypePickRequestCreated   = "PickRequestCreated"
	EventTypePickRequestCompleted = "PickRequestCompleted"
	EventTypeShipmentCreated      = "ShipmentCreated"
	EventTypeShipmentShipped      = "ShipmentShipped"
	EventTypeShipmentDelivered    = "ShipmentDelivered"
)

// OrderConfirmedEvent is raised when an order enters the fulfillment pipeline
type OrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
}

// NewOrderConfirmedEvent creates a new OrderConfirmedEvent
func NewOrderConfirmedEvent(order *Order) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderConfirmed, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
	}
}

// EventType returns the event type name
func (e *OrderConfirmedEvent) EventType() string {
	return EventTypeOrderConfirmed
}

// OrderStatusChangedEvent is raised when the rollup status changes
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	FromStatus  OrderStatus `json:"from_status"`
	ToStatus    OrderStatus `json:"to_status"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(order *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		FromStatus:      from,
		ToStatus:        order.Status,
	}
}

// EventType returns the event type name
func (e *OrderStatusChangedEvent) EventType() string {
	return EventTypeOrderStatusChanged
}

// OrderCompletedEvent is raised when an order finishes the pipeline
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(order *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
	}
}

// EventType returns the event type name
func (e *OrderCompletedEvent) EventType() string {
	return EventTypeOrderCompleted
}

// PickRequestCreatedEvent is raised when a pick request is created
type PickRequestCreatedEvent struct {
	shared.BaseDomainEvent
	PickRequestID uuid.UUID      `json:"pick_request_id"`
	RequestNumber string         `json:"request_number"`
	OrderID       uuid.UUID      `json:"order_id"`
	SourceType    PickSourceType `json:"source_type"`
}

// NewPickRequestCreatedEvent creates a new PickRequestCreatedEvent
func NewPickRequestCreatedEvent(request *PickRequest) *PickRequestCreatedEvent {
	return &PickRequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePickRequestCreated, AggregateTypePickRequest, request.ID),
		PickRequestID:   request.ID,
		RequestNumber:   request.RequestNumber,
		OrderID:         request.OrderID,
		SourceType:      request.SourceType,
	}
}

// EventType returns the event type name
func (e *PickRequestCreatedEvent) EventType() string {
	return EventTypePickRequestCreated
}

// PickRequestCompletedEvent is raised when a pick request completes,
// including forced partial completions
type PickRequestCompletedEvent struct {
	shared.BaseDomainEvent
	PickRequestID  uuid.UUID `json:"pick_request_id"`
	RequestNumber  string    `json:"request_number"`
	OrderID        uuid.UUID `json:"order_id"`
	ForceCompleted bool      `json:"force_completed"`
	ShortfallNote  string    `json:"shortfall_note,omitempty"`
}

// NewPickRequestCompletedEvent creates a new PickRequestCompletedEvent
func NewPickRequestCompletedEvent(request *PickRequest) *PickRequestCompletedEvent {
	return &PickRequestCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePickRequestCompleted, AggregateTypePickRequest, request.ID),
		PickRequestID:   request.ID,
		RequestNumber:   request.RequestNumber,
		OrderID:         request.OrderID,
		ForceCompleted:  request.ForceCompleted,
		ShortfallNote:   request.ShortfallNote,
	}
}

// EventType returns the event type name
func (e *PickRequestCompletedEvent) EventType() string {
	return EventTypePickRequestCompleted
}

// ShipmentCreatedEvent is raised when a shipment is created
type ShipmentCreatedEvent struct {
	shared.BaseDomainEvent
	ShipmentID     uuid.UUID       `json:"shipment_id"`
	ShipmentNumber string          `json:"shipment_number"`
	OrderID        uuid.UUID       `json:"order_id"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
}

// NewShipmentCreatedEvent creates a new ShipmentCreatedEvent
func NewShipmentCreatedEvent(shipment *Shipment) *ShipmentCreatedEvent {
	return &ShipmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentCreated, AggregateTypeShipment, shipment.ID),
		ShipmentID:      shipment.ID,
		ShipmentNumber:  shipment.ShipmentNumber,
		OrderID:         shipment.OrderID,
		TotalQuantity:   shipment.TotalQuantity(),
	}
}

// EventType returns the event type name
func (e *ShipmentCreatedEvent) EventType() string {
	return EventTypeShipmentCreated
}

// ShipmentShippedEvent is raised when a shipment is dispatched
type ShipmentShippedEvent struct {
	shared.BaseDomainEvent
	ShipmentID     uuid.UUID `json:"shipment_id"`
	ShipmentNumber string    `json:"shipment_number"`
	OrderID        uuid.UUID `json:"order_id"`
}

// NewShipmentShippedEvent creates a new ShipmentShippedEvent
func NewShipmentShippedEvent(shipment *Shipment) *ShipmentShippedEvent {
	return &ShipmentShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentShipped, AggregateTypeShipment, shipment.ID),
		ShipmentID:      shipment.ID,
		ShipmentNumber:  shipment.ShipmentNumber,
		OrderID:         shipment.OrderID,
	}
}

// EventType returns the event type name
func (e *ShipmentShippedEvent) EventType() string {
	return EventTypeShipmentShipped
}

// ShipmentDeliveredEvent is raised when a shipment reaches the customer
type ShipmentDeliveredEvent struct {
	shared.BaseDomainEvent
	ShipmentID     uuid.UUID `json:"shipment_id"`
	ShipmentNumber string    `json:"shipment_number"`
	OrderID        uuid.UUID `json:"order_id"`
}

// NewShipmentDeliveredEvent creates a new ShipmentDeliveredEvent
func NewShipmentDeliveredEvent(shipment *Shipment) *ShipmentDeliveredEvent {
	return &ShipmentDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentDelivered, AggregateTypeShipment, shipment.ID),
		ShipmentID:      shipment.ID,
		ShipmentNumber:  shipment.ShipmentNumber,
		OrderID:         shipment.OrderID,
	}
}

// EventType returns the event type name
func (e *ShipmentDeliveredEvent) EventType() string {
	return EventTypeShipmentDelivered
}
