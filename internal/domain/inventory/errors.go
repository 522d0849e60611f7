package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsufficientStockError is returned when a reservation cannot be covered.
// It carries the ids and quantities the caller needs to render an actionable
// message; it is never auto-retried.
type InsufficientStockError struct {
	StockUnitID uuid.UUID
	ProductID   uuid.UUID
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(stockUnitID, productID uuid.UUID, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		StockUnitID: stockUnitID,
		ProductID:   productID,
		Requested:   requested,
		Available:   available,
	}
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock on unit %s: requested %s, available %s",
		e.StockUnitID, e.Requested, e.Available)
}

// AllocationError is returned when the full candidate list is exhausted with
// quantity still unfulfilled. By the time it surfaces every reservation made
// in the call has been compensated.
type AllocationError struct {
	ProductID uuid.UUID
	Requested decimal.Decimal
	Shortfall decimal.Decimal
}

// NewAllocationError creates an AllocationError
func NewAllocationError(productID uuid.UUID, requested, shortfall decimal.Decimal) *AllocationError {
	return &AllocationError{
		ProductID: productID,
		Requested: requested,
		Shortfall: shortfall,
	}
}

// Error implements the error interface
func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate %s of product %s: short by %s",
		e.Requested, e.ProductID, e.Shortfall)
}
