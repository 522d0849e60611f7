package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockUnit = "StockUnit"

// Event type constants
const (
	EventTypeStockReserved = "StockReserved"
	EventTypeStockReleased = "StockReleased"
	EventTypeStockDepleted = "StockDepleted"
)

// StockReservedEvent is raised when quantity is reserved on a stock unit
type StockReservedEvent struct {
	shared.BaseDomainEvent
	StockUnitID uuid.UUID       `json:"stock_unit_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	LotNumber   string          `json:"lot_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	RequestID   uuid.UUID       `json:"request_id"`
	ReservedBy  uuid.UUID       `json:"reserved_by"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(unit *StockUnit, quantity decimal.Decimal, requestID, actor uuid.UUID) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypeStockUnit, unit.ID),
		StockUnitID:     unit.ID,
		ProductID:       unit.ProductID,
		LotNumber:       unit.LotNumber,
		Quantity:        quantity,
		RequestID:       requestID,
		ReservedBy:      actor,
	}
}

// EventType returns the event type name
func (e *StockReservedEvent) EventType() string {
	return EventTypeStockReserved
}

// StockReleasedEvent is raised when a reservation is compensated
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	StockUnitID         uuid.UUID       `json:"stock_unit_id"`
	ProductID           uuid.UUID       `json:"product_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	ConsumptionRecordID uuid.UUID       `json:"consumption_record_id"`
	ReleasedBy          uuid.UUID       `json:"released_by"`
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(unit *StockUnit, quantity decimal.Decimal, recordID, actor uuid.UUID) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypeStockUnit, unit.ID),
		StockUnitID:         unit.ID,
		ProductID:           unit.ProductID,
		Quantity:            quantity,
		ConsumptionRecordID: recordID,
		ReleasedBy:          actor,
	}
}

// EventType returns the event type name
func (e *StockReleasedEvent) EventType() string {
	return EventTypeStockReleased
}

// StockDepletedEvent is raised when a unit's available quantity reaches zero
type StockDepletedEvent struct {
	shared.BaseDomainEvent
	StockUnitID uuid.UUID `json:"stock_unit_id"`
	ProductID   uuid.UUID `json:"product_id"`
	LotNumber   string    `json:"lot_number"`
}

// NewStockDepletedEvent creates a new StockDepletedEvent
func NewStockDepletedEvent(unit *StockUnit) *StockDepletedEvent {
	return &StockDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDepleted, AggregateTypeStockUnit, unit.ID),
		StockUnitID:     unit.ID,
		ProductID:       unit.ProductID,
		LotNumber:       unit.LotNumber,
	}
}

// EventType returns the event type name
func (e *StockDepletedEvent) EventType() string {
	return EventTypeStockDepleted
}
