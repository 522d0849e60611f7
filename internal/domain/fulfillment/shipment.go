package fulfillment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// ShipmentStatus represents the dispatch status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusPreparing ShipmentStatus = "PREPARING"
	ShipmentStatusShipped   ShipmentStatus = "SHIPPED"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
)

// IsValid checks if the status is valid
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentStatusPreparing, ShipmentStatusShipped, ShipmentStatusDelivered:
		return true
	}
	return false
}

// String returns the string representation
func (s ShipmentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	switch s {
	case ShipmentStatusPreparing:
		return target == ShipmentStatusShipped
	case ShipmentStatusShipped:
		return target == ShipmentStatusDelivered
	case ShipmentStatusDelivered:
		return false
	}
	return false
}

// ShipmentLine references one order line and the quantity dispatched on this
// shipment. Lines are immutable once the shipment is created.
type ShipmentLine struct {
	ID              uuid.UUID
	ShipmentID      uuid.UUID
	OrderLineID     uuid.UUID
	ProductID       uuid.UUID
	QuantityShipped decimal.Decimal
	CreatedAt       time.Time
}

// Shipment represents one physical dispatch event for an order. Zero or more
// exist per order. Immutable after creation except for status transitions.
type Shipment struct {
	shared.BaseAggregateRoot
	ShipmentNumber string
	OrderID        uuid.UUID
	Status         ShipmentStatus
	FreightAmount  decimal.Decimal
	Lines          []ShipmentLine
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
}

// ShipmentLineSpec describes one line to include when creating a shipment
type ShipmentLineSpec struct {
	OrderLineID uuid.UUID
	ProductID   uuid.UUID
	Quantity    decimal.Decimal
}

// NewShipment creates a shipment in PREPARING status. Lines with zero
// quantity are dropped; a shipment where every line is zero is rejected.
func NewShipment(shipmentNumber string, orderID uuid.UUID, freight decimal.Decimal, lineSpecs []ShipmentLineSpec) (*Shipment, error) {
	if shipmentNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Shipment number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Order ID cannot be empty")
	}
	if freight.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Freight amount cannot be negative")
	}

	shipment := &Shipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ShipmentNumber:    shipmentNumber,
		OrderID:           orderID,
		Status:            ShipmentStatusPreparing,
		FreightAmount:     freight,
		Lines:             make([]ShipmentLine, 0, len(lineSpecs)),
	}

	now := time.Now()
	for _, spec := range lineSpecs {
		if spec.Quantity.IsNegative() {
			return nil, shared.NewDomainError("VALIDATION_FAILED", "Shipment line quantity cannot be negative")
		}
		if spec.Quantity.IsZero() {
			continue
		}
		shipment.Lines = append(shipment.Lines, ShipmentLine{
			ID:              uuid.New(),
			ShipmentID:      shipment.ID,
			OrderLineID:     spec.OrderLineID,
			ProductID:       spec.ProductID,
			QuantityShipped: spec.Quantity,
			CreatedAt:       now,
		})
	}

	if len(shipment.Lines) == 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Shipment must carry at least one non-zero line")
	}

	shipment.AddDomainEvent(NewShipmentCreatedEvent(shipment))

	return shipment, nil
}

// IsOpen returns true while the shipment has not been dispatched
func (s *Shipment) IsOpen() bool {
	return s.Status == ShipmentStatusPreparing
}

// TotalQuantity returns the sum of shipped quantity across lines
func (s *Shipment) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.QuantityShipped)
	}
	return total
}

// MarkShipped transitions PREPARING -> SHIPPED
func (s *Shipment) MarkShipped(at time.Time) error {
	if !s.Status.CanTransitionTo(ShipmentStatusShipped) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot ship shipment in %s status", s.Status))
	}
	s.Status = ShipmentStatusShipped
	s.ShippedAt = &at
	s.Touch()
	s.AddDomainEvent(NewShipmentShippedEvent(s))
	return nil
}

// MarkDelivered transitions SHIPPED -> DELIVERED
func (s *Shipment) MarkDelivered(at time.Time) error {
	if !s.Status.CanTransitionTo(ShipmentStatusDelivered) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot deliver shipment in %s status", s.Status))
	}
	s.Status = ShipmentStatusDelivered
	s.DeliveredAt = &at
	s.Touch()
	s.AddDomainEvent(NewShipmentDeliveredEvent(s))
	return nil
}
