package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/shared/valueobject"
)

// Document type codes handed to the numbering service
const (
	DocTypeOrder       = "SO"
	DocTypePickRequest = "PK"
	DocTypeShipment    = "SH"
)

// DocumentNumberer issues sequential document numbers per document type
// and business day, e.g. SO-20240115-0001
type DocumentNumberer interface {
	NextNumber(ctx context.Context, docType string) (string, error)
}

// OrderService handles order intake and order-level queries
type OrderService struct {
	scope          uow.TransactionScope
	orderRepo      fulfillment.OrderRepository
	numberer       DocumentNumberer
	pricing        billing.PricingService
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	scope uow.TransactionScope,
	orderRepo fulfillment.OrderRepository,
	numberer DocumentNumberer,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		scope:     scope,
		orderRepo: orderRepo,
		numberer:  numberer,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetPricingService sets the price list used to resolve line prices that
// the intake request leaves unset
func (s *OrderService) SetPricingService(pricing billing.PricingService) {
	s.pricing = pricing
}

// CreateOrder confirms a new order into the fulfillment pipeline with its
// lines and agreed prices. Lines without a price resolve against the price
// list effective asOf, which also dates the confirmation.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, asOf time.Time) (*OrderDTO, error) {
	orderNumber, err := s.numberer.NextNumber(ctx, DocTypeOrder)
	if err != nil {
		// Fall back to the repository's database-backed sequence
		s.logger.Warn("numbering service unavailable, falling back to database sequence", zap.Error(err))
		orderNumber, err = s.orderRepo.GenerateOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
	}

	order, err := fulfillment.NewOrder(orderNumber, req.CustomerID, req.CustomerName, req.TaxRate, req.PaymentTermsDays, asOf)
	if err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		price := valueobject.NewMoneyUSD(line.UnitPrice)
		if line.UnitPrice.IsZero() {
			if s.pricing == nil {
				return nil, shared.NewDomainError("VALIDATION_FAILED", "Line has no unit price and no price list is configured")
			}
			price, err = s.pricing.PriceFor(ctx, req.CustomerID, line.ProductID, line.Ordered, asOf)
			if err != nil {
				return nil, err
			}
		}
		if _, err := order.AddLine(line.ProductID, line.ProductName, line.Ordered, price); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order confirmed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Lines)))

	s.publishAggregateEvents(ctx, &order.BaseAggregateRoot)

	return ToOrderDTO(order), nil
}

// GetOrder returns an order by id
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

// GetOrderByNumber returns an order by order number
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

// ListOrders returns orders matching the filter with pagination metadata
func (s *OrderService) ListOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[OrderDTO], error) {
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToOrderDTOs(orders), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListOrdersByCustomer returns a customer's orders
func (s *OrderService) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]OrderDTO, error) {
	orders, err := s.orderRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderDTOs(orders), nil
}

// RecordPacked books upstream packed quantity on an order line. Packing is an
// external stage; the pipeline only needs its counter to bound shipping.
func (s *OrderService) RecordPacked(ctx context.Context, orderID uuid.UUID, req *RecordPackedRequest) (*OrderDTO, error) {
	var order *fulfillment.Order
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		line := order.GetLine(req.OrderLineID)
		if line == nil {
			return shared.ErrNotFound
		}
		if err := line.RecordPacked(req.Quantity); err != nil {
			return err
		}
		if err := order.CheckConservation(); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

// CompleteOrder closes a fully invoiced order
func (s *OrderService) CompleteOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	var order *fulfillment.Order
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Complete(time.Now()); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, &order.BaseAggregateRoot)

	return ToOrderDTO(order), nil
}

func (s *OrderService) publishAggregateEvents(ctx context.Context, root *shared.BaseAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := root.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish order events", zap.Error(err))
	}
	root.ClearDomainEvents()
}
