package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/shared/valueobject"
)

// PricingService resolves the unit price for a customer, product and
// quantity as of a given date. It is consulted once at order confirmation;
// the resolved price is then immutable on the order line.
type PricingService interface {
	PriceFor(ctx context.Context, customerID, productID uuid.UUID, quantity decimal.Decimal, asOf time.Time) (valueobject.Money, error)
}

// PriceListEntry is one row of the customer price list: a unit price valid
// for a customer/product pair within a date window, optionally gated on a
// minimum quantity tier.
type PriceListEntry struct {
	shared.BaseEntity
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index"` // nil means the base price for all customers
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ValidFrom   time.Time       `gorm:"not null"`
	ValidTo     *time.Time      // nil means no end date
}

// AppliesTo reports whether the entry covers the given quantity and date
func (e *PriceListEntry) AppliesTo(quantity decimal.Decimal, asOf time.Time) bool {
	if quantity.LessThan(e.MinQuantity) {
		return false
	}
	if asOf.Before(e.ValidFrom) {
		return false
	}
	if e.ValidTo != nil && asOf.After(*e.ValidTo) {
		return false
	}
	return true
}

// PriceListRepository defines the interface for price list persistence
type PriceListRepository interface {
	// FindCandidates returns entries for a product valid at the given date,
	// customer-specific entries before base entries, higher quantity tiers
	// first
	FindCandidates(ctx context.Context, customerID, productID uuid.UUID, asOf time.Time) ([]PriceListEntry, error)

	// Save creates or updates a price list entry
	Save(ctx context.Context, entry *PriceListEntry) error
}
