package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
)

// ShippingService aggregates packed quantity into shipments and tracks their
// dispatch lifecycle. Creating a shipment bumps the order's shipped counters
// and recomputes the shipping rollup in the same transaction.
type ShippingService struct {
	scope          uow.TransactionScope
	numberer       DocumentNumberer
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewShippingService creates a new shipping service
func NewShippingService(scope uow.TransactionScope, numberer DocumentNumberer, logger *zap.Logger) *ShippingService {
	return &ShippingService{
		scope:    scope,
		numberer: numberer,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *ShippingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateShipment aggregates packed-but-unshipped quantity into one dispatch
// document. Each line is bounded by packed minus already shipped; zero lines
// are dropped and an all-zero shipment is rejected.
func (s *ShippingService) CreateShipment(ctx context.Context, req *CreateShipmentRequest, actor uuid.UUID) (*ShipmentDTO, error) {
	shipmentNumber, err := s.numberer.NextNumber(ctx, DocTypeShipment)
	if err != nil {
		return nil, err
	}

	var shipment *fulfillment.Shipment
	var order *fulfillment.Order

	err = s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}

		specs := make([]fulfillment.ShipmentLineSpec, 0, len(req.Lines))
		for _, lineReq := range req.Lines {
			orderLine := order.GetLine(lineReq.OrderLineID)
			if orderLine == nil {
				return shared.ErrNotFound
			}
			specs = append(specs, fulfillment.ShipmentLineSpec{
				OrderLineID: orderLine.ID,
				ProductID:   orderLine.ProductID,
				Quantity:    lineReq.Quantity,
			})
		}

		shipment, err = fulfillment.NewShipment(shipmentNumber, order.ID, req.FreightAmount, specs)
		if err != nil {
			return err
		}

		// Bump the order counters for the lines that survived zero-dropping
		for _, line := range shipment.Lines {
			orderLine := order.GetLine(line.OrderLineID)
			if err := orderLine.AddShipped(line.QuantityShipped); err != nil {
				return err
			}
		}
		order.RecordShipmentCreated()
		order.RecomputeStatus(fulfillment.StageShipping)
		if err := order.CheckConservation(); err != nil {
			return err
		}

		if err := repos.ShipmentRepo().Save(ctx, shipment); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("shipment created",
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("shipment_number", shipment.ShipmentNumber),
		zap.String("order_id", order.ID.String()),
		zap.String("total_quantity", shipment.TotalQuantity().String()))

	s.publishAggregateEvents(ctx, &shipment.BaseAggregateRoot, &order.BaseAggregateRoot)

	return ToShipmentDTO(shipment), nil
}

// GetShipment returns a shipment by id
func (s *ShippingService) GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error) {
	var shipment *fulfillment.Shipment
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		shipment, err = repos.ShipmentRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToShipmentDTO(shipment), nil
}

// ListShipmentsByOrder returns all shipments for an order
func (s *ShippingService) ListShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]ShipmentDTO, error) {
	var shipments []fulfillment.Shipment
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		shipments, err = repos.ShipmentRepo().FindByOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToShipmentDTOs(shipments), nil
}

// MarkShipped records the physical dispatch of a shipment at the given time.
// Closing the last open shipment of an order recomputes the order's shipping
// rollup in the same transaction.
func (s *ShippingService) MarkShipped(ctx context.Context, shipmentID uuid.UUID, at time.Time) (*ShipmentDTO, error) {
	var shipment *fulfillment.Shipment
	var order *fulfillment.Order
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		shipment, err = repos.ShipmentRepo().FindByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if err := shipment.MarkShipped(at); err != nil {
			return err
		}
		if err := repos.ShipmentRepo().SaveWithLock(ctx, shipment); err != nil {
			return err
		}

		siblings, err := repos.ShipmentRepo().FindByOrder(ctx, shipment.OrderID)
		if err != nil {
			return err
		}
		for _, sibling := range siblings {
			if sibling.ID != shipment.ID && sibling.Status == fulfillment.ShipmentStatusPreparing {
				return nil
			}
		}

		order, err = repos.OrderRepo().FindByID(ctx, shipment.OrderID)
		if err != nil {
			return err
		}
		order.RecomputeStatus(fulfillment.StageShipping)
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	roots := []*shared.BaseAggregateRoot{&shipment.BaseAggregateRoot}
	if order != nil {
		roots = append(roots, &order.BaseAggregateRoot)
	}
	s.publishAggregateEvents(ctx, roots...)

	return ToShipmentDTO(shipment), nil
}

// MarkDelivered records delivery confirmation for a dispatched shipment
func (s *ShippingService) MarkDelivered(ctx context.Context, shipmentID uuid.UUID, at time.Time) (*ShipmentDTO, error) {
	var shipment *fulfillment.Shipment
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		shipment, err = repos.ShipmentRepo().FindByID(ctx, shipmentID)
		if err != nil {
			return err
		}
		if err := shipment.MarkDelivered(at); err != nil {
			return err
		}
		return repos.ShipmentRepo().SaveWithLock(ctx, shipment)
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, &shipment.BaseAggregateRoot)

	return ToShipmentDTO(shipment), nil
}

func (s *ShippingService) publishAggregateEvents(ctx context.Context, roots ...*shared.BaseAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, root := range roots {
		events := root.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish shipping events", zap.Error(err))
		}
		root.ClearDomainEvents()
	}
}
