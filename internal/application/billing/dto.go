package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/billing"
)

// InvoiceLineDTO is the read model for one invoice line
type InvoiceLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	OrderLineID uuid.UUID       `json:"order_line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceDTO is the read model for an invoice
type InvoiceDTO struct {
	ID            uuid.UUID        `json:"id"`
	InvoiceNumber string           `json:"invoice_number"`
	OrderID       uuid.UUID        `json:"order_id"`
	ShipmentID    uuid.UUID        `json:"shipment_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	CustomerName  string           `json:"customer_name"`
	InvoiceDate   time.Time        `json:"invoice_date"`
	DueDate       time.Time        `json:"due_date"`
	Lines         []InvoiceLineDTO `json:"lines"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	FreightAmount decimal.Decimal  `json:"freight_amount"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	BalanceDue    decimal.Decimal  `json:"balance_due"`
	PaymentStatus string           `json:"payment_status"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	EmailCount    int              `json:"email_count"`
	LastEmailedAt *time.Time       `json:"last_emailed_at,omitempty"`
	PrintCount    int              `json:"print_count"`
	LastPrintedAt *time.Time       `json:"last_printed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToInvoiceDTO converts an invoice to its DTO
func ToInvoiceDTO(i *billing.Invoice) *InvoiceDTO {
	lines := make([]InvoiceLineDTO, len(i.Lines))
	for idx, l := range i.Lines {
		lines[idx] = InvoiceLineDTO{
			ID:          l.ID,
			OrderLineID: l.OrderLineID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
	}
	return &InvoiceDTO{
		ID:            i.ID,
		InvoiceNumber: i.InvoiceNumber,
		OrderID:       i.OrderID,
		ShipmentID:    i.ShipmentID,
		CustomerID:    i.CustomerID,
		CustomerName:  i.CustomerName,
		InvoiceDate:   i.InvoiceDate,
		DueDate:       i.DueDate,
		Lines:         lines,
		Subtotal:      i.Subtotal,
		TaxAmount:     i.TaxAmount,
		FreightAmount: i.FreightAmount,
		TotalAmount:   i.TotalAmount,
		BalanceDue:    i.BalanceDue,
		PaymentStatus: i.PaymentStatus.String(),
		PaidAt:        i.PaidAt,
		EmailCount:    i.EmailCount,
		LastEmailedAt: i.LastEmailedAt,
		PrintCount:    i.PrintCount,
		LastPrintedAt: i.LastPrintedAt,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// ToInvoiceDTOs converts a slice of invoices to DTOs
func ToInvoiceDTOs(invoices []billing.Invoice) []InvoiceDTO {
	dtos := make([]InvoiceDTO, len(invoices))
	for i := range invoices {
		d := ToInvoiceDTO(&invoices[i])
		dtos[i] = *d
	}
	return dtos
}

// GenerateInvoiceRequest is the input for deriving an invoice from a shipment
type GenerateInvoiceRequest struct {
	ShipmentID uuid.UUID `json:"shipment_id" binding:"required"`
}

// RecordPaymentRequest is the input for applying a payment against an invoice
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// AddPriceEntryRequest is the input for adding a price list entry.
// CustomerID left empty creates a base price valid for all customers.
type AddPriceEntryRequest struct {
	CustomerID  *uuid.UUID      `json:"customer_id"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	ValidFrom   time.Time       `json:"valid_from" binding:"required"`
	ValidTo     *time.Time      `json:"valid_to"`
}

// PriceEntryDTO is the read model for a price list entry
type PriceEntryDTO struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	ProductID   uuid.UUID       `json:"product_id"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidTo     *time.Time      `json:"valid_to,omitempty"`
}

// ToPriceEntryDTO converts a price list entry to its read model
func ToPriceEntryDTO(entry *billing.PriceListEntry) *PriceEntryDTO {
	return &PriceEntryDTO{
		ID:          entry.ID,
		CustomerID:  entry.CustomerID,
		ProductID:   entry.ProductID,
		MinQuantity: entry.MinQuantity,
		UnitPrice:   entry.UnitPrice,
		ValidFrom:   entry.ValidFrom,
		ValidTo:     entry.ValidTo,
	}
}

// PriceQuoteDTO is the read model for a resolved price
type PriceQuoteDTO struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Currency   string          `json:"currency"`
	AsOf       time.Time       `json:"as_of"`
}
