package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/infrastructure/telemetry"
)

// AllocationService applies FEFO allocations against the ledger. Allocation
// is all or nothing: either every planned line is reserved and recorded, or
// every reservation made during the call is compensated and the caller gets
// an AllocationError carrying the shortfall.
type AllocationService struct {
	scope          uow.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAllocationService creates a new allocation service
func NewAllocationService(scope uow.TransactionScope, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		scope:  scope,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *AllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// appliedReservation tracks one successful reservation so it can be
// compensated if a later line fails
type appliedReservation struct {
	unit   *inventory.StockUnit
	record *inventory.ConsumptionRecord
}

// Preview plans a FEFO allocation without touching the ledger. Useful for
// availability checks before committing to a pick.
func (s *AllocationService) Preview(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal) (*inventory.AllocationPlan, error) {
	var plan *inventory.AllocationPlan
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		units, err := repos.StockUnitRepo().FindAvailableByProduct(ctx, productID)
		if err != nil {
			return err
		}
		plan, err = inventory.PlanAllocation(productID, quantity, units)
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Allocate plans and applies a FEFO allocation for one product in its own
// transaction. See AllocateWithin for the allocation semantics.
func (s *AllocationService) Allocate(
	ctx context.Context,
	productID uuid.UUID,
	quantity decimal.Decimal,
	requestID uuid.UUID,
	actor uuid.UUID,
	asOf time.Time,
) (*AllocationResultDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "allocation", "allocate",
		"product_id", productID,
		"quantity", quantity.String(),
	)
	defer span.End()

	var result *AllocationResultDTO
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		result, events, err = s.AllocateWithin(ctx, repos, productID, quantity, requestID, actor, asOf)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, events...)
	return result, nil
}

// AllocateWithin plans and applies a FEFO allocation using the caller's
// transactional repositories, so stage services can allocate in the same
// transaction that updates their own aggregates. Candidate units are read in
// FEFO order, the plan is computed, and each planned line is applied through
// the atomic reserve primitive with a ledger entry appended alongside. A zero
// request succeeds with an empty result.
//
// If the plan cannot cover the request, or a unit shrinks between planning
// and applying (a concurrent allocator won the race on that unit), every
// reservation already applied in this call is released and the call fails
// with AllocationError. No lock is held across the whole product's units.
//
// Events raised by the allocation are returned, not published; the caller
// publishes them after its transaction commits.
func (s *AllocationService) AllocateWithin(
	ctx context.Context,
	repos uow.TransactionalRepositories,
	productID uuid.UUID,
	quantity decimal.Decimal,
	requestID uuid.UUID,
	actor uuid.UUID,
	asOf time.Time,
) (*AllocationResultDTO, []shared.DomainEvent, error) {
	if quantity.IsNegative() {
		return nil, nil, shared.NewDomainError("VALIDATION_FAILED", "Allocation quantity cannot be negative")
	}
	if quantity.IsZero() {
		return ToAllocationResultDTO(inventory.EmptyPlan(productID), requestID, nil), nil, nil
	}

	units, err := repos.StockUnitRepo().FindAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	plan, err := inventory.PlanAllocation(productID, quantity, units)
	if err != nil {
		return nil, nil, err
	}
	if !plan.FullyFulfilled {
		return nil, nil, inventory.NewAllocationError(productID, quantity, plan.Shortfall)
	}

	unitsByID := make(map[uuid.UUID]*inventory.StockUnit, len(units))
	for i := range units {
		unitsByID[units[i].ID] = &units[i]
	}

	applied := make([]appliedReservation, 0, len(plan.Lines))
	appliedTotal := decimal.Zero
	for _, line := range plan.Lines {
		ok, err := repos.StockUnitRepo().ReserveQuantity(ctx, line.StockUnitID, line.Quantity)
		if err != nil {
			s.compensate(ctx, repos, applied, actor)
			return nil, nil, err
		}
		if !ok {
			// A concurrent allocator consumed this unit after planning. The
			// shortfall is everything not yet applied, not just this line:
			// later planned lines never get a chance either.
			s.compensate(ctx, repos, applied, actor)
			return nil, nil, inventory.NewAllocationError(productID, quantity, quantity.Sub(appliedTotal))
		}

		record, err := inventory.NewConsumptionRecord(
			line.StockUnitID, productID, line.Quantity, requestID, inventory.RequestTypePick, actor, asOf)
		if err != nil {
			s.compensate(ctx, repos, applied, actor)
			return nil, nil, err
		}
		if err := repos.ConsumptionRepo().Append(ctx, record); err != nil {
			s.compensate(ctx, repos, applied, actor)
			return nil, nil, err
		}
		applied = append(applied, appliedReservation{unit: unitsByID[line.StockUnitID], record: record})
		appliedTotal = appliedTotal.Add(line.Quantity)
	}

	events := make([]shared.DomainEvent, 0, len(applied))
	records := make([]inventory.ConsumptionRecord, len(applied))
	for i, a := range applied {
		events = append(events, inventory.NewStockReservedEvent(a.unit, a.record.Quantity, requestID, actor))
		records[i] = *a.record
	}
	return ToAllocationResultDTO(plan, requestID, records), events, nil
}

// ReleaseByRequest compensates every non-reversed reservation made for a
// consuming request. Used when a pick request is cancelled or an external
// confirmation supersedes internal reservations.
func (s *AllocationService) ReleaseByRequest(ctx context.Context, requestID, actor uuid.UUID) (int, error) {
	released := 0
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		records, err := repos.ConsumptionRepo().FindByRequestID(ctx, requestID)
		if err != nil {
			return err
		}
		now := time.Now()
		for i := range records {
			record := &records[i]
			if record.Reversed {
				continue
			}
			if err := record.Reverse(actor, now); err != nil {
				return err
			}
			if err := repos.StockUnitRepo().RestoreQuantity(ctx, record.StockUnitID, record.Quantity); err != nil {
				return err
			}
			if err := repos.ConsumptionRepo().MarkReversed(ctx, record); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// compensate rolls back every reservation applied so far in this call.
// Restore failures are logged and skipped; the transaction rollback is the
// backstop when the scope is a real database transaction.
func (s *AllocationService) compensate(ctx context.Context, repos uow.TransactionalRepositories, applied []appliedReservation, actor uuid.UUID) {
	telemetry.AddEvent(trace.SpanFromContext(ctx), "allocation_compensated",
		"reservations", len(applied))
	now := time.Now()
	for _, a := range applied {
		if err := repos.StockUnitRepo().RestoreQuantity(ctx, a.record.StockUnitID, a.record.Quantity); err != nil {
			s.logger.Error("failed to restore reservation during compensation",
				zap.String("stock_unit_id", a.record.StockUnitID.String()),
				zap.String("quantity", a.record.Quantity.String()),
				zap.Error(err))
			continue
		}
		if err := a.record.Reverse(actor, now); err != nil {
			continue
		}
		if err := repos.ConsumptionRepo().MarkReversed(ctx, a.record); err != nil {
			s.logger.Error("failed to mark ledger entry reversed during compensation",
				zap.String("record_id", a.record.ID.String()),
				zap.Error(err))
		}
	}
}

func (s *AllocationService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish allocation events", zap.Error(err))
	}
}
