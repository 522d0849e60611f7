package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/wms/backend/internal/domain/shared"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindByOrder finds all invoices for an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Invoice, error)

	// FindByShipment finds the invoice derived from a shipment, or returns
	// shared.ErrNotFound
	FindByShipment(ctx context.Context, shipmentID uuid.UUID) (*Invoice, error)

	// ExistsForShipment reports whether a shipment already has an invoice
	ExistsForShipment(ctx context.Context, shipmentID uuid.UUID) (bool, error)

	// FindAll finds invoices matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}
