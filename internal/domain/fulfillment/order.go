package fulfillment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the rollup status of an order in the fulfillment pipeline
type OrderStatus string

const (
	OrderStatusConfirmed         OrderStatus = "CONFIRMED"
	OrderStatusPicking           OrderStatus = "PICKING"
	OrderStatusPartiallyPicked   OrderStatus = "PARTIALLY_PICKED"
	OrderStatusPicked            OrderStatus = "PICKED"
	OrderStatusPartiallyShipped  OrderStatus = "PARTIALLY_SHIPPED"
	OrderStatusShipped           OrderStatus = "SHIPPED"
	OrderStatusPartiallyInvoiced OrderStatus = "PARTIALLY_INVOICED"
	OrderStatusInvoiced          OrderStatus = "INVOICED"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusPicking, OrderStatusPartiallyPicked,
		OrderStatusPicked, OrderStatusPartiallyShipped, OrderStatusShipped,
		OrderStatusPartiallyInvoiced, OrderStatusInvoiced, OrderStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// Stage identifies one of the three sequential fulfillment stages. The rollup
// rule is identical across stages, parameterized by which line counter is
// compared against Ordered.
type Stage string

const (
	StagePicking   Stage = "PICKING"
	StageShipping  Stage = "SHIPPING"
	StageInvoicing Stage = "INVOICING"
)

// IsValid checks if the stage is valid
func (s Stage) IsValid() bool {
	switch s {
	case StagePicking, StageShipping, StageInvoicing:
		return true
	}
	return false
}

// OrderLine is one product position on an order. It carries the monotonically
// non-decreasing stage counters; the conservation invariant
// 0 <= invoiced <= shipped <= picked <= ordered holds for the lifetime of the
// line, with shipped additionally bounded by packed. Counters are mutated only
// through the Add* methods, which reject any violation before mutating.
type OrderLine struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Ordered     decimal.Decimal
	Packed      decimal.Decimal // Upstream packing-stage quantity, externally supplied
	Picked      decimal.Decimal
	Shipped     decimal.Decimal
	Invoiced    decimal.Decimal
	UnitPrice   decimal.Decimal // Agreed price, fixed at order confirmation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderLine creates a new order line
func NewOrderLine(orderID, productID uuid.UUID, productName string, ordered decimal.Decimal, unitPrice valueobject.Money) (*OrderLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Product name cannot be empty")
	}
	if ordered.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Ordered quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderLine{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Ordered:     ordered,
		Packed:      decimal.Zero,
		Picked:      decimal.Zero,
		Shipped:     decimal.Zero,
		Invoiced:    decimal.Zero,
		UnitPrice:   unitPrice.Amount(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Touch bumps the update timestamp at the point of a domain change
func (l *OrderLine) Touch() {
	l.UpdatedAt = time.Now()
}

// StageCounter returns the counter compared against Ordered at the given stage
func (l *OrderLine) StageCounter(stage Stage) decimal.Decimal {
	switch stage {
	case StagePicking:
		return l.Picked
	case StageShipping:
		return l.Shipped
	case StageInvoicing:
		return l.Invoiced
	}
	return decimal.Zero
}

// AddPicked increments the picked counter, bounded by Ordered
func (l *OrderLine) AddPicked(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Picked increment must be positive")
	}
	if l.Picked.Add(quantity).GreaterThan(l.Ordered) {
		return shared.NewDomainError("OVER_FULFILLMENT",
			fmt.Sprintf("Picking %s would exceed ordered quantity %s on line %s", quantity, l.Ordered, l.ID))
	}
	l.Picked = l.Picked.Add(quantity)
	l.Touch()
	return nil
}

// RecordPacked records upstream packed quantity, bounded by Picked
func (l *OrderLine) RecordPacked(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Packed increment must be positive")
	}
	if l.Packed.Add(quantity).GreaterThan(l.Picked) {
		return shared.NewDomainError("OVER_FULFILLMENT",
			fmt.Sprintf("Packing %s would exceed picked quantity %s on line %s", quantity, l.Picked, l.ID))
	}
	l.Packed = l.Packed.Add(quantity)
	l.Touch()
	return nil
}

// AddShipped increments the shipped counter, bounded by Packed
func (l *OrderLine) AddShipped(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Shipped increment must be positive")
	}
	if l.Shipped.Add(quantity).GreaterThan(l.Packed) {
		return shared.NewDomainError("OVER_FULFILLMENT",
			fmt.Sprintf("Shipping %s would exceed packed quantity %s on line %s", quantity, l.Packed, l.ID))
	}
	l.Shipped = l.Shipped.Add(quantity)
	l.Touch()
	return nil
}

// AddInvoiced increments the invoiced counter, bounded by Shipped
func (l *OrderLine) AddInvoiced(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Invoiced increment must be positive")
	}
	if l.Invoiced.Add(quantity).GreaterThan(l.Shipped) {
		return shared.NewDomainError("OVER_FULFILLMENT",
			fmt.Sprintf("Invoicing %s would exceed shipped quantity %s on line %s", quantity, l.Shipped, l.ID))
	}
	l.Invoiced = l.Invoiced.Add(quantity)
	l.Touch()
	return nil
}

// RemainingToPick returns ordered minus picked
func (l *OrderLine) RemainingToPick() decimal.Decimal {
	return l.Ordered.Sub(l.Picked)
}

// RemainingToShip returns packed minus shipped
func (l *OrderLine) RemainingToShip() decimal.Decimal {
	return l.Packed.Sub(l.Shipped)
}

// RemainingToInvoice returns shipped minus invoiced
func (l *OrderLine) RemainingToInvoice() decimal.Decimal {
	return l.Shipped.Sub(l.Invoiced)
}

// GetUnitPriceMoney returns the agreed unit price as Money
func (l *OrderLine) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.UnitPrice)
}

// Order is the root aggregate of the fulfillment pipeline. It owns its lines
// exclusively; pick requests, shipments and invoices reference it by id.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	CustomerID       uuid.UUID
	CustomerName     string
	TaxRate          decimal.Decimal // Fraction, e.g. 0.08 for 8%
	PaymentTermsDays int
	Status           OrderStatus
	Lines            []OrderLine
	ShipmentCount    int // Number of shipments created, drives sticky-partial
	InvoiceCount     int // Number of invoices generated, drives sticky-partial
	ConfirmedAt      time.Time
	CompletedAt      *time.Time
}

// NewOrder creates a confirmed order entering the fulfillment pipeline
func NewOrder(orderNumber string, customerID uuid.UUID, customerName string, taxRate decimal.Decimal, paymentTermsDays int, confirmedAt time.Time) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer name cannot be empty")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Tax rate cannot be negative")
	}
	if paymentTermsDays < 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment terms cannot be negative")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		TaxRate:           taxRate,
		PaymentTermsDays:  paymentTermsDays,
		Status:            OrderStatusConfirmed,
		Lines:             make([]OrderLine, 0),
		ConfirmedAt:       confirmedAt,
	}

	order.AddDomainEvent(NewOrderConfirmedEvent(order))

	return order, nil
}

// AddLine adds a line with its agreed price. Only allowed before any
// fulfillment activity, i.e. while the order is merely CONFIRMED.
func (o *Order) AddLine(productID uuid.UUID, productName string, ordered decimal.Decimal, unitPrice valueobject.Money) (*OrderLine, error) {
	if o.Status != OrderStatusConfirmed {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines once fulfillment has started")
	}
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Product already has a line on this order")
		}
	}

	line, err := NewOrderLine(o.ID, productID, productName, ordered, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Lines = append(o.Lines, *line)
	o.Touch()

	return line, nil
}

// GetLine returns a line by its ID
func (o *Order) GetLine(lineID uuid.UUID) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].ID == lineID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// GetLineByProduct returns a line by product ID
func (o *Order) GetLineByProduct(productID uuid.UUID) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].ProductID == productID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// StartPicking marks the order as entering the picking stage
func (o *Order) StartPicking() {
	if o.Status == OrderStatusConfirmed {
		o.Status = OrderStatusPicking
		o.Touch()
	}
}

// stageEventCount returns how many aggregation events the stage has seen
func (o *Order) stageEventCount(stage Stage) int {
	switch stage {
	case StageShipping:
		return o.ShipmentCount
	case StageInvoicing:
		return o.InvoiceCount
	}
	return 0
}

// RecomputeStatus applies the stage rollup rule, identical for all stages:
// fully complete when every line's stage counter has reached Ordered;
// otherwise partial when any line sits strictly between zero and Ordered,
// when some lines are done and others untouched, or when the stage has seen
// more than one shipment/invoice event. Untouched stages leave the status
// unchanged.
func (o *Order) RecomputeStatus(stage Stage) {
	if len(o.Lines) == 0 {
		return
	}

	allComplete := true
	anyStarted := false
	anyPartial := false
	for _, line := range o.Lines {
		counter := line.StageCounter(stage)
		if counter.LessThan(line.Ordered) {
			allComplete = false
		}
		if counter.GreaterThan(decimal.Zero) {
			anyStarted = true
			if counter.LessThan(line.Ordered) {
				anyPartial = true
			}
		}
	}

	previous := o.Status
	switch {
	case allComplete:
		o.Status = stageCompleteStatus(stage)
	case anyPartial || (anyStarted && !allComplete) || o.stageEventCount(stage) > 1:
		if anyStarted {
			o.Status = stagePartialStatus(stage)
		}
	}

	if o.Status != previous {
		o.Touch()
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	}
}

func stageCompleteStatus(stage Stage) OrderStatus {
	switch stage {
	case StagePicking:
		return OrderStatusPicked
	case StageShipping:
		return OrderStatusShipped
	case StageInvoicing:
		return OrderStatusInvoiced
	}
	return OrderStatusConfirmed
}

func stagePartialStatus(stage Stage) OrderStatus {
	switch stage {
	case StagePicking:
		return OrderStatusPartiallyPicked
	case StageShipping:
		return OrderStatusPartiallyShipped
	case StageInvoicing:
		return OrderStatusPartiallyInvoiced
	}
	return OrderStatusConfirmed
}

// RecordShipmentCreated bumps the shipment event counter
func (o *Order) RecordShipmentCreated() {
	o.ShipmentCount++
	o.Touch()
}

// RecordInvoiceCreated bumps the invoice event counter
func (o *Order) RecordInvoiceCreated() {
	o.InvoiceCount++
	o.Touch()
}

// Complete marks the order as fully processed. Permitted only once every
// line is fully invoiced.
func (o *Order) Complete(at time.Time) error {
	if o.Status != OrderStatusInvoiced {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &at
	o.Touch()
	o.AddDomainEvent(NewOrderCompletedEvent(o))
	return nil
}

// CheckConservation verifies the conservation invariant on every line.
// Used by tests and as a final guard before persisting counter updates.
func (o *Order) CheckConservation() error {
	for _, line := range o.Lines {
		if line.Invoiced.IsNegative() ||
			line.Invoiced.GreaterThan(line.Shipped) ||
			line.Shipped.GreaterThan(line.Picked) ||
			line.Picked.GreaterThan(line.Ordered) {
			return shared.NewDomainError("VALIDATION_FAILED",
				fmt.Sprintf("Conservation violated on line %s: ordered=%s picked=%s shipped=%s invoiced=%s",
					line.ID, line.Ordered, line.Picked, line.Shipped, line.Invoiced))
		}
		if line.Shipped.GreaterThan(line.Packed) {
			return shared.NewDomainError("VALIDATION_FAILED",
				fmt.Sprintf("Shipped exceeds packed on line %s", line.ID))
		}
	}
	return nil
}

// TotalOrdered returns the sum of ordered quantity across lines
func (o *Order) TotalOrdered() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Ordered)
	}
	return total
}

// IsFullyPicked returns true when every line is picked to its ordered quantity
func (o *Order) IsFullyPicked() bool {
	for _, line := range o.Lines {
		if line.Picked.LessThan(line.Ordered) {
			return false
		}
	}
	return len(o.Lines) > 0
}

// IsFullyShipped returns true when every line is shipped to its ordered quantity
func (o *Order) IsFullyShipped() bool {
	for _, line := range o.Lines {
		if line.Shipped.LessThan(line.Ordered) {
			return false
		}
	}
	return len(o.Lines) > 0
}
