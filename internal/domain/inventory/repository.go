package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// StockUnitRepository defines the interface for stock unit persistence
type StockUnitRepository interface {
	// FindByID finds a stock unit by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockUnit, error)

	// FindByIDs finds multiple stock units by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]StockUnit, error)

	// FindAvailableByProduct returns usable units with stock for a product,
	// ordered FEFO (lot_expiry ascending, NULLS LAST, then received_at)
	FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]StockUnit, error)

	// FindByLotNumber finds units belonging to a production lot
	FindByLotNumber(ctx context.Context, lotNumber string) ([]StockUnit, error)

	// FindAll finds stock units matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockUnit, error)

	// Save creates or updates a stock unit
	Save(ctx context.Context, unit *StockUnit) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, unit *StockUnit) error

	// ReserveQuantity atomically decrements available quantity when the unit
	// still covers the request (compare-and-decrement, safe under concurrent
	// callers). Returns false when the guard fails, without error.
	ReserveQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (bool, error)

	// RestoreQuantity atomically adds quantity back to a unit
	RestoreQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error

	// SumAvailableByProduct sums available quantity across usable units
	SumAvailableByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)

	// Count counts stock units matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// ConsumptionRecordRepository defines the interface for the append-only
// consumption ledger. There is deliberately no delete operation.
type ConsumptionRecordRepository interface {
	// Append persists a new ledger entry
	Append(ctx context.Context, record *ConsumptionRecord) error

	// FindByID finds a ledger entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ConsumptionRecord, error)

	// FindByRequestID finds all entries created for a consuming request
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]ConsumptionRecord, error)

	// FindByStockUnit finds all entries against a stock unit
	FindByStockUnit(ctx context.Context, stockUnitID uuid.UUID) ([]ConsumptionRecord, error)

	// FindByProduct finds entries for a product within a time window,
	// most recent first
	FindByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time, filter shared.Filter) ([]ConsumptionRecord, error)

	// MarkReversed persists the reversal flags of an entry
	MarkReversed(ctx context.Context, record *ConsumptionRecord) error
}
