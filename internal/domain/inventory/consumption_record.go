package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// RequestType identifies the kind of document that consumed stock
type RequestType string

const (
	RequestTypePick       RequestType = "PICK"
	RequestTypeAdjustment RequestType = "ADJUSTMENT"
)

// IsValid checks if the request type is valid
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypePick, RequestTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation
func (t RequestType) String() string {
	return string(t)
}

// ConsumptionRecord is an append-only ledger entry recording one allocation
// against one stock unit. Records are never mutated or deleted; a compensating
// release sets the Reversed flag and leaves the original quantities intact,
// preserving lot traceability.
type ConsumptionRecord struct {
	shared.BaseEntity
	StockUnitID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RequestID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	RequestType RequestType     `gorm:"size:20;not null"`
	ConsumedBy  uuid.UUID       `gorm:"type:uuid;not null"`
	ConsumedAt  time.Time       `gorm:"not null"`
	Reversed    bool            `gorm:"not null;default:false"`
	ReversedBy  *uuid.UUID      `gorm:"type:uuid"`
	ReversedAt  *time.Time
}

// NewConsumptionRecord creates a ledger entry for a reservation
func NewConsumptionRecord(
	stockUnitID, productID uuid.UUID,
	quantity decimal.Decimal,
	requestID uuid.UUID,
	requestType RequestType,
	consumedBy uuid.UUID,
	consumedAt time.Time,
) (*ConsumptionRecord, error) {
	if !requestType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invalid request type")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Consumption quantity must be positive")
	}
	return &ConsumptionRecord{
		BaseEntity:  shared.NewBaseEntity(),
		StockUnitID: stockUnitID,
		ProductID:   productID,
		Quantity:    quantity,
		RequestID:   requestID,
		RequestType: requestType,
		ConsumedBy:  consumedBy,
		ConsumedAt:  consumedAt,
	}, nil
}

// Reverse marks the record as reversed by a compensating release.
// A record can only be reversed once.
func (r *ConsumptionRecord) Reverse(actor uuid.UUID, at time.Time) error {
	if r.Reversed {
		return shared.NewDomainError("INVALID_STATE", "Consumption record already reversed")
	}
	r.Reversed = true
	r.ReversedBy = &actor
	r.ReversedAt = &at
	r.Touch()
	return nil
}
