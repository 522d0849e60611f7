package fulfillment

import (
	"context"

	"github.com/google/uuid"

	"github.com/wms/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByNumber finds an order by order number
	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByCustomer finds orders for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindAll finds orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order and its lines
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (checks version). Counter
	// increments on contended lines go through this path.
	SaveWithLock(ctx context.Context, order *Order) error

	// GenerateOrderNumber produces the next sequential order number,
	// used as the fallback when the numbering service is unavailable
	GenerateOrderNumber(ctx context.Context) (string, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// PickRequestRepository defines the interface for pick request persistence
type PickRequestRepository interface {
	// FindByID finds a pick request with lines and records by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PickRequest, error)

	// FindByOrder finds all pick requests for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]PickRequest, error)

	// FindOpenByOrder finds the open (pending or in-progress) request for an
	// order, or returns shared.ErrNotFound
	FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*PickRequest, error)

	// ExistsOpenForOrder reports whether an open request exists for the order
	ExistsOpenForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Save creates or updates a pick request with its lines and records
	Save(ctx context.Context, request *PickRequest) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, request *PickRequest) error
}

// ShipmentRepository defines the interface for shipment persistence
type ShipmentRepository interface {
	// FindByID finds a shipment with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindByOrder finds all shipments for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)

	// CountOpenByOrder counts shipments still in PREPARING for an order
	CountOpenByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)

	// Save creates or updates a shipment
	Save(ctx context.Context, shipment *Shipment) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, shipment *Shipment) error
}
