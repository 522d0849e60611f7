package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceGenerated       = "InvoiceGenerated"
	EventTypeInvoicePaymentRecorded = "InvoicePaymentRecorded"
)

// InvoiceGeneratedEvent is raised when an invoice is derived from a shipment
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	ShipmentID    uuid.UUID       `json:"shipment_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceGeneratedEvent creates a new InvoiceGeneratedEvent
func NewInvoiceGeneratedEvent(invoice *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceGenerated, AggregateTypeInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		OrderID:         invoice.OrderID,
		ShipmentID:      invoice.ShipmentID,
		TotalAmount:     invoice.TotalAmount,
	}
}

// EventType returns the event type name
func (e *InvoiceGeneratedEvent) EventType() string {
	return EventTypeInvoiceGenerated
}

// InvoicePaymentRecordedEvent is raised when a payment is applied
type InvoicePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewInvoicePaymentRecordedEvent creates a new InvoicePaymentRecordedEvent
func NewInvoicePaymentRecordedEvent(invoice *Invoice, amount decimal.Decimal) *InvoicePaymentRecordedEvent {
	return &InvoicePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentRecorded, AggregateTypeInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		Amount:          amount,
		BalanceDue:      invoice.BalanceDue,
		PaymentStatus:   invoice.PaymentStatus,
	}
}

// EventType returns the event type name
func (e *InvoicePaymentRecordedEvent) EventType() string {
	return EventTypeInvoicePaymentRecorded
}
