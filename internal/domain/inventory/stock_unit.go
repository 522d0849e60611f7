package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// StockUnitStatus represents the lifecycle status of a stock unit
type StockUnitStatus string

const (
	StockUnitStatusUsable      StockUnitStatus = "USABLE"      // Available for allocation
	StockUnitStatusQuarantined StockUnitStatus = "QUARANTINED" // Held, never allocated
	StockUnitStatusDepleted    StockUnitStatus = "DEPLETED"    // Fully consumed
)

// IsValid checks if the status is valid
func (s StockUnitStatus) IsValid() bool {
	switch s {
	case StockUnitStatusUsable, StockUnitStatusQuarantined, StockUnitStatusDepleted:
		return true
	}
	return false
}

// String returns the string representation
func (s StockUnitStatus) String() string {
	return string(s)
}

// StockUnit represents a pallet of a production lot: a physical, lot-traceable
// quantity of one product at a storage location. It is the only entity in the
// system with write contention; its available quantity is decremented through
// the ledger's atomic reserve primitive.
type StockUnit struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	LocationID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotNumber         string          `gorm:"size:64;not null"`
	LotExpiry         *time.Time      // nil means the lot never expires
	ReceivedAt        time.Time       `gorm:"not null"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status            StockUnitStatus `gorm:"size:20;not null;default:'USABLE'"`
}

// NewStockUnit creates a new stock unit for a received lot
func NewStockUnit(
	productID, locationID uuid.UUID,
	lotNumber string,
	lotExpiry *time.Time,
	receivedAt time.Time,
	quantity decimal.Decimal,
) (*StockUnit, error) {
	if lotNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Lot number is required")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Quantity cannot be negative")
	}
	return &StockUnit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		LocationID:        locationID,
		LotNumber:         lotNumber,
		LotExpiry:         lotExpiry,
		ReceivedAt:        receivedAt,
		AvailableQuantity: quantity,
		Status:            StockUnitStatusUsable,
	}, nil
}

// IsExpired returns true if the lot has expired as of the given time
func (u *StockUnit) IsExpired(asOf time.Time) bool {
	if u.LotExpiry == nil {
		return false
	}
	return u.LotExpiry.Before(asOf)
}

// HasStock returns true if the unit has available quantity
func (u *StockUnit) HasStock() bool {
	return u.AvailableQuantity.GreaterThan(decimal.Zero)
}

// IsUsable returns true if the unit can be allocated from
func (u *StockUnit) IsUsable() bool {
	return u.Status == StockUnitStatusUsable && u.HasStock()
}

// Deduct reduces the available quantity by exactly the requested amount.
// Returns InsufficientStockError when the unit cannot cover the request;
// splitting across units is the allocation engine's job, not the unit's.
func (u *StockUnit) Deduct(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Deduction quantity cannot be negative")
	}
	if u.Status != StockUnitStatusUsable {
		return shared.ErrInvalidState
	}
	if u.AvailableQuantity.LessThan(quantity) {
		return NewInsufficientStockError(u.ID, u.ProductID, quantity, u.AvailableQuantity)
	}
	u.AvailableQuantity = u.AvailableQuantity.Sub(quantity)
	if u.AvailableQuantity.IsZero() {
		u.Status = StockUnitStatusDepleted
	}
	u.Touch()
	return nil
}

// Restore adds quantity back after a compensating release
func (u *StockUnit) Restore(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Restore quantity cannot be negative")
	}
	u.AvailableQuantity = u.AvailableQuantity.Add(quantity)
	if u.Status == StockUnitStatusDepleted && u.HasStock() {
		u.Status = StockUnitStatusUsable
	}
	u.Touch()
	return nil
}

// Quarantine removes the unit from allocation candidacy
func (u *StockUnit) Quarantine() error {
	if u.Status == StockUnitStatusDepleted {
		return shared.ErrInvalidState
	}
	u.Status = StockUnitStatusQuarantined
	u.Touch()
	return nil
}

// ReleaseQuarantine returns a quarantined unit to the usable pool
func (u *StockUnit) ReleaseQuarantine() error {
	if u.Status != StockUnitStatusQuarantined {
		return shared.ErrInvalidState
	}
	if u.HasStock() {
		u.Status = StockUnitStatusUsable
	} else {
		u.Status = StockUnitStatusDepleted
	}
	u.Touch()
	return nil
}
