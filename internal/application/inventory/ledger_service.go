package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// LedgerService owns the inventory ledger: stock unit registration, the
// atomic reserve and release primitives, and consumption history queries.
// Reserve and its matching ledger append always run in one transaction so a
// decrement can never exist without its traceability record.
type LedgerService struct {
	scope           uow.TransactionScope
	stockUnitRepo   inventory.StockUnitRepository
	consumptionRepo inventory.ConsumptionRecordRepository
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	scope uow.TransactionScope,
	stockUnitRepo inventory.StockUnitRepository,
	consumptionRepo inventory.ConsumptionRecordRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		scope:           scope,
		stockUnitRepo:   stockUnitRepo,
		consumptionRepo: consumptionRepo,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RegisterStockUnit records a received pallet of a production lot
func (s *LedgerService) RegisterStockUnit(ctx context.Context, req *RegisterStockUnitRequest) (*StockUnitDTO, error) {
	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	unit, err := inventory.NewStockUnit(req.ProductID, req.LocationID, req.LotNumber, req.LotExpiry, receivedAt, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.stockUnitRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	s.logger.Info("stock unit registered",
		zap.String("stock_unit_id", unit.ID.String()),
		zap.String("product_id", unit.ProductID.String()),
		zap.String("lot_number", unit.LotNumber),
		zap.String("quantity", unit.AvailableQuantity.String()))

	return ToStockUnitDTO(unit), nil
}

// GetStockUnit returns a stock unit by id
func (s *LedgerService) GetStockUnit(ctx context.Context, id uuid.UUID) (*StockUnitDTO, error) {
	unit, err := s.stockUnitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToStockUnitDTO(unit), nil
}

// Reserve atomically decrements a stock unit's available quantity and appends
// the matching ledger entry in one transaction. When the unit no longer
// covers the request the call fails with InsufficientStockError and leaves
// the unit untouched; callers never retry automatically.
func (s *LedgerService) Reserve(
	ctx context.Context,
	stockUnitID uuid.UUID,
	quantity decimal.Decimal,
	requestID uuid.UUID,
	requestType inventory.RequestType,
	actor uuid.UUID,
	asOf time.Time,
) (*ConsumptionRecordDTO, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Reservation quantity must be positive")
	}

	var record *inventory.ConsumptionRecord
	var reservedUnit *inventory.StockUnit

	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		unit, err := repos.StockUnitRepo().FindByID(ctx, stockUnitID)
		if err != nil {
			return err
		}
		if !unit.IsUsable() {
			return inventory.NewInsufficientStockError(unit.ID, unit.ProductID, quantity, decimal.Zero)
		}

		ok, err := repos.StockUnitRepo().ReserveQuantity(ctx, unit.ID, quantity)
		if err != nil {
			return err
		}
		if !ok {
			// Guard failed; re-read so the error carries what is actually left
			current, rerr := repos.StockUnitRepo().FindByID(ctx, unit.ID)
			if rerr != nil {
				return rerr
			}
			return inventory.NewInsufficientStockError(unit.ID, unit.ProductID, quantity, current.AvailableQuantity)
		}

		record, err = inventory.NewConsumptionRecord(unit.ID, unit.ProductID, quantity, requestID, requestType, actor, asOf)
		if err != nil {
			return err
		}
		if err := repos.ConsumptionRepo().Append(ctx, record); err != nil {
			return err
		}
		reservedUnit = unit
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, inventory.NewStockReservedEvent(reservedUnit, quantity, requestID, actor))

	return ToConsumptionRecordDTO(record), nil
}

// Release compensates a prior reservation: restores the quantity to the unit
// and marks the ledger entry reversed. The entry itself is never deleted, so
// lot traceability survives the rollback.
func (s *LedgerService) Release(ctx context.Context, consumptionRecordID, actor uuid.UUID) (*ConsumptionRecordDTO, error) {
	var record *inventory.ConsumptionRecord
	var unit *inventory.StockUnit

	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		record, err = repos.ConsumptionRepo().FindByID(ctx, consumptionRecordID)
		if err != nil {
			return err
		}
		if err := record.Reverse(actor, time.Now()); err != nil {
			return err
		}
		if err := repos.StockUnitRepo().RestoreQuantity(ctx, record.StockUnitID, record.Quantity); err != nil {
			return err
		}
		if err := repos.ConsumptionRepo().MarkReversed(ctx, record); err != nil {
			return err
		}
		unit, err = repos.StockUnitRepo().FindByID(ctx, record.StockUnitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, inventory.NewStockReleasedEvent(unit, record.Quantity, record.ID, actor))

	return ToConsumptionRecordDTO(record), nil
}

// Availability returns the usable units for a product in FEFO order along
// with the summed available quantity
func (s *LedgerService) Availability(ctx context.Context, productID uuid.UUID) (*AvailabilityDTO, error) {
	units, err := s.stockUnitRepo.FindAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &AvailabilityDTO{
		ProductID:      productID,
		TotalAvailable: inventory.TotalAvailable(units),
		Units:          ToStockUnitDTOs(units),
	}, nil
}

// History returns the consumption ledger for a product within a time window
func (s *LedgerService) History(ctx context.Context, productID uuid.UUID, from, to time.Time, filter shared.Filter) ([]ConsumptionRecordDTO, error) {
	records, err := s.consumptionRepo.FindByProduct(ctx, productID, from, to, filter)
	if err != nil {
		return nil, err
	}
	return ToConsumptionRecordDTOs(records), nil
}

// HistoryByRequest returns the ledger entries created for a consuming request
func (s *LedgerService) HistoryByRequest(ctx context.Context, requestID uuid.UUID) ([]ConsumptionRecordDTO, error) {
	records, err := s.consumptionRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return ToConsumptionRecordDTOs(records), nil
}

// Quarantine removes a unit from allocation candidacy
func (s *LedgerService) Quarantine(ctx context.Context, stockUnitID uuid.UUID) (*StockUnitDTO, error) {
	unit, err := s.stockUnitRepo.FindByID(ctx, stockUnitID)
	if err != nil {
		return nil, err
	}
	if err := unit.Quarantine(); err != nil {
		return nil, err
	}
	if err := s.stockUnitRepo.SaveWithLock(ctx, unit); err != nil {
		return nil, err
	}
	return ToStockUnitDTO(unit), nil
}

// ReleaseQuarantine returns a quarantined unit to the usable pool
func (s *LedgerService) ReleaseQuarantine(ctx context.Context, stockUnitID uuid.UUID) (*StockUnitDTO, error) {
	unit, err := s.stockUnitRepo.FindByID(ctx, stockUnitID)
	if err != nil {
		return nil, err
	}
	if err := unit.ReleaseQuarantine(); err != nil {
		return nil, err
	}
	if err := s.stockUnitRepo.SaveWithLock(ctx, unit); err != nil {
		return nil, err
	}
	return ToStockUnitDTO(unit), nil
}

// publishEvents publishes events after the transaction commits. Publish
// failures are logged, never surfaced; the ledger is the source of truth.
func (s *LedgerService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish ledger events", zap.Error(err))
	}
}
