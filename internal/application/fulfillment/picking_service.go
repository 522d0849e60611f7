package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
)

// ReleaseNotifier announces pick requests released to an external warehouse.
// Notification happens after the creating transaction commits; a failed
// notification is logged and retried out of band, never rolled back into the
// request.
type ReleaseNotifier interface {
	NotifyReleased(ctx context.Context, request *fulfillment.PickRequest) error
}

// PickingService orchestrates the picking stage: opening pick requests,
// recording picks backed by FEFO allocations, and completing requests with
// the order rollup. Each pick allocates and books the order counter in one
// transaction, so the ledger and the order can never disagree.
type PickingService struct {
	scope           uow.TransactionScope
	allocations     *appinventory.AllocationService
	numberer        DocumentNumberer
	releaseNotifier ReleaseNotifier
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewPickingService creates a new picking service
func NewPickingService(
	scope uow.TransactionScope,
	allocations *appinventory.AllocationService,
	numberer DocumentNumberer,
	logger *zap.Logger,
) *PickingService {
	return &PickingService{
		scope:       scope,
		allocations: allocations,
		numberer:    numberer,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *PickingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReleaseNotifier sets the external release notifier
func (s *PickingService) SetReleaseNotifier(notifier ReleaseNotifier) {
	s.releaseNotifier = notifier
}

// CreatePickRequest opens the picking stage for an order. At most one open
// request may exist per order; the request covers every line with quantity
// still to pick. External requests are announced to the external warehouse
// after the transaction commits.
func (s *PickingService) CreatePickRequest(ctx context.Context, req *CreatePickRequestRequest, actor uuid.UUID) (*PickRequestDTO, error) {
	sourceType := fulfillment.PickSourceType(req.SourceType)
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invalid pick source type")
	}

	requestNumber, err := s.numberer.NextNumber(ctx, DocTypePickRequest)
	if err != nil {
		return nil, err
	}

	var request *fulfillment.PickRequest
	var order *fulfillment.Order

	err = s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}

		open, err := repos.PickRequestRepo().ExistsOpenForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if open {
			return shared.NewDomainError("ALREADY_EXISTS", "Order already has an open pick request")
		}

		specs := make([]fulfillment.PickRequestLineSpec, 0, len(order.Lines))
		for _, line := range order.Lines {
			remaining := line.RemainingToPick()
			if remaining.IsPositive() {
				specs = append(specs, fulfillment.PickRequestLineSpec{
					OrderLineID: line.ID,
					ProductID:   line.ProductID,
					Requested:   remaining,
				})
			}
		}
		if len(specs) == 0 {
			return shared.NewDomainError("INVALID_STATE", "Order has nothing left to pick")
		}

		request, err = fulfillment.NewPickRequest(requestNumber, order.ID, sourceType, specs)
		if err != nil {
			return err
		}

		order.StartPicking()

		if err := repos.PickRequestRepo().Save(ctx, request); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pick request created",
		zap.String("request_id", request.ID.String()),
		zap.String("request_number", request.RequestNumber),
		zap.String("order_id", order.ID.String()),
		zap.String("source_type", request.SourceType.String()))

	s.publishAggregateEvents(ctx, &request.BaseAggregateRoot, &order.BaseAggregateRoot)

	if sourceType == fulfillment.PickSourceExternal && s.releaseNotifier != nil {
		if err := s.releaseNotifier.NotifyReleased(ctx, request); err != nil {
			s.logger.Error("failed to notify external warehouse of released pick request",
				zap.String("request_id", request.ID.String()),
				zap.Error(err))
		}
	}

	return ToPickRequestDTO(request), nil
}

// GetPickRequest returns a pick request by id
func (s *PickingService) GetPickRequest(ctx context.Context, id uuid.UUID) (*PickRequestDTO, error) {
	var request *fulfillment.PickRequest
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		request, err = repos.PickRequestRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToPickRequestDTO(request), nil
}

// ListPickRequestsByOrder returns all pick requests for an order
func (s *PickingService) ListPickRequestsByOrder(ctx context.Context, orderID uuid.UUID) ([]PickRequestDTO, error) {
	var requests []fulfillment.PickRequest
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		requests, err = repos.PickRequestRepo().FindByOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	dtos := make([]PickRequestDTO, len(requests))
	for i := range requests {
		d := ToPickRequestDTO(&requests[i])
		dtos[i] = *d
	}
	return dtos, nil
}

// RecordPick records one pick against an internal pick request line. The FEFO
// allocation, the ledger entries, the pick records and the order counter all
// move in the same transaction. An allocation failure leaves everything
// untouched. Expiry eligibility is judged against asOf.
func (s *PickingService) RecordPick(ctx context.Context, pickRequestID uuid.UUID, req *RecordPickRequest, actor uuid.UUID, asOf time.Time) (*PickRequestDTO, error) {
	var request *fulfillment.PickRequest
	var order *fulfillment.Order
	var allocationEvents []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		request, err = repos.PickRequestRepo().FindByID(ctx, pickRequestID)
		if err != nil {
			return err
		}
		if request.SourceType != fulfillment.PickSourceInternal {
			return shared.NewDomainError("INVALID_STATE", "External pick requests are booked through confirmation, not manual picks")
		}
		if !request.IsOpen() {
			return shared.NewDomainError("INVALID_STATE", "Pick request is already completed")
		}

		line := request.GetLineByOrderLine(req.OrderLineID)
		if line == nil {
			return shared.ErrNotFound
		}

		order, err = repos.OrderRepo().FindByID(ctx, request.OrderID)
		if err != nil {
			return err
		}
		orderLine := order.GetLine(req.OrderLineID)
		if orderLine == nil {
			return shared.ErrNotFound
		}

		result, events, err := s.allocations.AllocateWithin(ctx, repos, line.ProductID, req.Quantity, request.ID, actor, asOf)
		if err != nil {
			return err
		}
		allocationEvents = events

		for _, allocated := range result.Lines {
			if _, err := request.RecordPick(line.ID, allocated.StockUnitID, allocated.LotNumber, allocated.Quantity, actor, asOf); err != nil {
				return err
			}
		}
		if err := orderLine.AddPicked(req.Quantity); err != nil {
			return err
		}
		order.RecomputeStatus(fulfillment.StagePicking)
		if err := order.CheckConservation(); err != nil {
			return err
		}

		if err := repos.PickRequestRepo().SaveWithLock(ctx, request); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, allocationEvents...)
	s.publishAggregateEvents(ctx, &request.BaseAggregateRoot, &order.BaseAggregateRoot)

	return ToPickRequestDTO(request), nil
}

// CompletePicking closes a pick request and rolls the order status up. A
// request with under-picked lines completes only when forced with an operator
// note; the shortfall stays on record.
func (s *PickingService) CompletePicking(ctx context.Context, pickRequestID uuid.UUID, req *CompletePickingRequest, actor uuid.UUID, at time.Time) (*PickRequestDTO, error) {
	var request *fulfillment.PickRequest
	var order *fulfillment.Order

	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		request, err = repos.PickRequestRepo().FindByID(ctx, pickRequestID)
		if err != nil {
			return err
		}
		order, err = repos.OrderRepo().FindByID(ctx, request.OrderID)
		if err != nil {
			return err
		}

		if err := request.Complete(req.Force, req.ShortfallNote, actor, at); err != nil {
			return err
		}
		order.RecomputeStatus(fulfillment.StagePicking)

		if err := repos.PickRequestRepo().SaveWithLock(ctx, request); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if request.ForceCompleted {
		s.logger.Warn("pick request force completed with shortfall",
			zap.String("request_id", request.ID.String()),
			zap.String("note", request.ShortfallNote))
	}

	s.publishAggregateEvents(ctx, &request.BaseAggregateRoot, &order.BaseAggregateRoot)

	return ToPickRequestDTO(request), nil
}

// ConfirmExternalPick books an external warehouse's confirmation: allocates
// the confirmed quantities from the ledger, records the picks, updates the
// order counters and completes the request in one transaction. The external
// path goes straight from PENDING to COMPLETED. Expiry eligibility is judged
// against asOf.
func (s *PickingService) ConfirmExternalPick(ctx context.Context, pickRequestID uuid.UUID, req *ConfirmExternalPickRequest, actor uuid.UUID, asOf time.Time) (*PickRequestDTO, error) {
	var request *fulfillment.PickRequest
	var order *fulfillment.Order
	var allocationEvents []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		request, err = repos.PickRequestRepo().FindByID(ctx, pickRequestID)
		if err != nil {
			return err
		}
		if request.SourceType != fulfillment.PickSourceExternal {
			return shared.NewDomainError("INVALID_STATE", "Only external pick requests take confirmations")
		}
		if request.Status != fulfillment.PickRequestStatusPending {
			return shared.NewDomainError("INVALID_STATE", "External pick request was already confirmed")
		}

		order, err = repos.OrderRepo().FindByID(ctx, request.OrderID)
		if err != nil {
			return err
		}

		for _, confirmed := range req.Lines {
			line := request.GetLineByOrderLine(confirmed.OrderLineID)
			if line == nil {
				return shared.ErrNotFound
			}
			orderLine := order.GetLine(confirmed.OrderLineID)
			if orderLine == nil {
				return shared.ErrNotFound
			}

			result, events, err := s.allocations.AllocateWithin(ctx, repos, line.ProductID, confirmed.Quantity, request.ID, actor, asOf)
			if err != nil {
				return err
			}
			allocationEvents = append(allocationEvents, events...)

			for _, allocated := range result.Lines {
				if _, err := request.RecordPick(line.ID, allocated.StockUnitID, allocated.LotNumber, allocated.Quantity, actor, asOf); err != nil {
					return err
				}
			}
			if confirmed.Quantity.IsPositive() {
				if err := orderLine.AddPicked(confirmed.Quantity); err != nil {
					return err
				}
			}
		}

		if err := request.Complete(req.Force, req.ShortfallNote, actor, asOf); err != nil {
			return err
		}
		order.RecomputeStatus(fulfillment.StagePicking)
		if err := order.CheckConservation(); err != nil {
			return err
		}

		if err := repos.PickRequestRepo().SaveWithLock(ctx, request); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, allocationEvents...)
	s.publishAggregateEvents(ctx, &request.BaseAggregateRoot, &order.BaseAggregateRoot)

	return ToPickRequestDTO(request), nil
}

func (s *PickingService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish picking events", zap.Error(err))
	}
}

func (s *PickingService) publishAggregateEvents(ctx context.Context, roots ...*shared.BaseAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, root := range roots {
		events := root.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish picking events", zap.Error(err))
		}
		root.ClearDomainEvents()
	}
}
