package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/shared/valueobject"
)

// PaymentStatus represents the payment state of an invoice
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s PaymentStatus) String() string {
	return string(s)
}

// InvoiceLine mirrors one shipment line priced at the order line's agreed
// unit price. Lines are immutable once the invoice is generated.
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	OrderLineID uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal // Quantity * UnitPrice
	CreatedAt   time.Time
}

// Invoice is the billing document derived from exactly one shipment.
// Financial fields are computed once at generation; only payment and
// notification counters move afterwards.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	OrderID       uuid.UUID
	ShipmentID    uuid.UUID // 1:1, enforced by a unique index and a duplicate check
	CustomerID    uuid.UUID
	CustomerName  string
	InvoiceDate   time.Time
	DueDate       time.Time
	Lines         []InvoiceLine
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	FreightAmount decimal.Decimal
	TotalAmount   decimal.Decimal
	BalanceDue    decimal.Decimal
	PaymentStatus PaymentStatus
	PaidAt        *time.Time
	EmailCount    int // Monotonic; recording the same event twice increments, never overwrites
	LastEmailedAt *time.Time
	PrintCount    int
	LastPrintedAt *time.Time
}

// InvoiceLineSpec describes one line to price when generating an invoice
type InvoiceLineSpec struct {
	OrderLineID uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   valueobject.Money
}

// NewInvoice generates an invoice from a shipment's lines. Totals are
// computed here and never recomputed: subtotal from the priced lines,
// tax as subtotal times the order's tax rate, freight passed through from
// the shipment, due date from the customer's payment terms.
func NewInvoice(
	invoiceNumber string,
	orderID, shipmentID, customerID uuid.UUID,
	customerName string,
	lineSpecs []InvoiceLineSpec,
	taxRate, freight decimal.Decimal,
	paymentTermsDays int,
	invoiceDate time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invoice number cannot be empty")
	}
	if shipmentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Shipment ID cannot be empty")
	}
	if len(lineSpecs) == 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invoice must have at least one line")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Tax rate cannot be negative")
	}
	if freight.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Freight amount cannot be negative")
	}

	invoice := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		OrderID:           orderID,
		ShipmentID:        shipmentID,
		CustomerID:        customerID,
		CustomerName:      customerName,
		InvoiceDate:       invoiceDate,
		DueDate:           invoiceDate.AddDate(0, 0, paymentTermsDays),
		Lines:             make([]InvoiceLine, 0, len(lineSpecs)),
		PaymentStatus:     PaymentStatusUnpaid,
	}

	now := time.Now()
	subtotal := decimal.Zero
	for _, spec := range lineSpecs {
		if spec.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("VALIDATION_FAILED", "Invoice line quantity must be positive")
		}
		if spec.UnitPrice.Amount().IsNegative() {
			return nil, shared.NewDomainError("VALIDATION_FAILED", "Invoice line price cannot be negative")
		}
		lineTotal := spec.Quantity.Mul(spec.UnitPrice.Amount()).Round(2)
		invoice.Lines = append(invoice.Lines, InvoiceLine{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			OrderLineID: spec.OrderLineID,
			ProductID:   spec.ProductID,
			ProductName: spec.ProductName,
			Quantity:    spec.Quantity,
			UnitPrice:   spec.UnitPrice.Amount(),
			LineTotal:   lineTotal,
			CreatedAt:   now,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	invoice.Subtotal = subtotal
	invoice.TaxAmount = subtotal.Mul(taxRate).Round(2)
	invoice.FreightAmount = freight
	invoice.TotalAmount = invoice.Subtotal.Add(invoice.TaxAmount).Add(invoice.FreightAmount)
	invoice.BalanceDue = invoice.TotalAmount

	invoice.AddDomainEvent(NewInvoiceGeneratedEvent(invoice))

	return invoice, nil
}

// GetTotalAmountMoney returns the total as Money
func (i *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.TotalAmount)
}

// GetBalanceDueMoney returns the outstanding balance as Money
func (i *Invoice) GetBalanceDueMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.BalanceDue)
}

// IsPaid returns true when the balance has reached zero
func (i *Invoice) IsPaid() bool {
	return i.PaymentStatus == PaymentStatusPaid
}

// IsOverdue returns true if the balance is outstanding past the due date
func (i *Invoice) IsOverdue(asOf time.Time) bool {
	return !i.IsPaid() && asOf.After(i.DueDate)
}

// RecordPayment applies a payment against the balance, driving
// UNPAID -> PARTIALLY_PAID -> PAID. Payment capture itself happens
// elsewhere; this is invoice-local arithmetic only.
func (i *Invoice) RecordPayment(amount valueobject.Money, at time.Time) error {
	if i.IsPaid() {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already fully paid")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(i.BalanceDue) {
		return shared.NewDomainError("VALIDATION_FAILED",
			fmt.Sprintf("Payment %s exceeds balance due %s", amount.Amount(), i.BalanceDue))
	}

	i.BalanceDue = i.BalanceDue.Sub(amount.Amount())
	if i.BalanceDue.IsZero() {
		i.PaymentStatus = PaymentStatusPaid
		i.PaidAt = &at
	} else {
		i.PaymentStatus = PaymentStatusPartiallyPaid
	}
	i.Touch()

	i.AddDomainEvent(NewInvoicePaymentRecordedEvent(i, amount.Amount()))

	return nil
}

// RecordEmailSent increments the email notification counter. Recording the
// same dispatch twice increments the count again; history is never
// overwritten.
func (i *Invoice) RecordEmailSent(at time.Time) {
	i.EmailCount++
	i.LastEmailedAt = &at
	i.Touch()
}

// RecordPrinted increments the print counter
func (i *Invoice) RecordPrinted(at time.Time) {
	i.PrintCount++
	i.LastPrintedAt = &at
	i.Touch()
}
