package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/fulfillment"
)

// OrderLineDTO is the read model for one order line with its stage counters
type OrderLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Ordered     decimal.Decimal `json:"ordered"`
	Packed      decimal.Decimal `json:"packed"`
	Picked      decimal.Decimal `json:"picked"`
	Shipped     decimal.Decimal `json:"shipped"`
	Invoiced    decimal.Decimal `json:"invoiced"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderDTO is the read model for an order
type OrderDTO struct {
	ID               uuid.UUID      `json:"id"`
	OrderNumber      string         `json:"order_number"`
	CustomerID       uuid.UUID      `json:"customer_id"`
	CustomerName     string         `json:"customer_name"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	PaymentTermsDays int            `json:"payment_terms_days"`
	Status           string         `json:"status"`
	Lines            []OrderLineDTO `json:"lines"`
	ShipmentCount    int            `json:"shipment_count"`
	InvoiceCount     int            `json:"invoice_count"`
	ConfirmedAt      time.Time      `json:"confirmed_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	Version          int            `json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ToOrderDTO converts an order to its DTO
func ToOrderDTO(o *fulfillment.Order) *OrderDTO {
	lines := make([]OrderLineDTO, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineDTO{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Ordered:     l.Ordered,
			Packed:      l.Packed,
			Picked:      l.Picked,
			Shipped:     l.Shipped,
			Invoiced:    l.Invoiced,
			UnitPrice:   l.UnitPrice,
		}
	}
	return &OrderDTO{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		CustomerName:     o.CustomerName,
		TaxRate:          o.TaxRate,
		PaymentTermsDays: o.PaymentTermsDays,
		Status:           o.Status.String(),
		Lines:            lines,
		ShipmentCount:    o.ShipmentCount,
		InvoiceCount:     o.InvoiceCount,
		ConfirmedAt:      o.ConfirmedAt,
		CompletedAt:      o.CompletedAt,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ToOrderDTOs converts a slice of orders to DTOs
func ToOrderDTOs(orders []fulfillment.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(orders))
	for i := range orders {
		d := ToOrderDTO(&orders[i])
		dtos[i] = *d
	}
	return dtos
}

// CreateOrderLineRequest is one line of an order intake request
type CreateOrderLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,max=255"`
	Ordered     decimal.Decimal `json:"ordered" binding:"required"`
	// UnitPrice zero means the price list resolves the price at confirmation
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest is the input for confirming a new order into the pipeline
type CreateOrderRequest struct {
	CustomerID       uuid.UUID                `json:"customer_id" binding:"required"`
	CustomerName     string                   `json:"customer_name" binding:"required,max=255"`
	TaxRate          decimal.Decimal          `json:"tax_rate"`
	PaymentTermsDays int                      `json:"payment_terms_days" binding:"min=0"`
	Lines            []CreateOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// RecordPackedRequest is the input for booking upstream packed quantity
type RecordPackedRequest struct {
	OrderLineID uuid.UUID       `json:"order_line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// PickRequestLineDTO is the read model for one pick request line
type PickRequestLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	OrderLineID uuid.UUID       `json:"order_line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Requested   decimal.Decimal `json:"requested"`
	Picked      decimal.Decimal `json:"picked"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// PickRecordDTO is the read model for one recorded pick
type PickRecordDTO struct {
	ID                uuid.UUID       `json:"id"`
	PickRequestLineID uuid.UUID       `json:"pick_request_line_id"`
	StockUnitID       uuid.UUID       `json:"stock_unit_id"`
	LotNumber         string          `json:"lot_number"`
	Quantity          decimal.Decimal `json:"quantity"`
	PickedBy          uuid.UUID       `json:"picked_by"`
	PickedAt          time.Time       `json:"picked_at"`
}

// PickRequestDTO is the read model for a pick request
type PickRequestDTO struct {
	ID             uuid.UUID            `json:"id"`
	RequestNumber  string               `json:"request_number"`
	OrderID        uuid.UUID            `json:"order_id"`
	SourceType     string               `json:"source_type"`
	Status         string               `json:"status"`
	Lines          []PickRequestLineDTO `json:"lines"`
	Records        []PickRecordDTO      `json:"records"`
	ForceCompleted bool                 `json:"force_completed"`
	ShortfallNote  string               `json:"shortfall_note,omitempty"`
	CompletedBy    *uuid.UUID           `json:"completed_by,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ToPickRequestDTO converts a pick request to its DTO
func ToPickRequestDTO(r *fulfillment.PickRequest) *PickRequestDTO {
	lines := make([]PickRequestLineDTO, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = PickRequestLineDTO{
			ID:          l.ID,
			OrderLineID: l.OrderLineID,
			ProductID:   l.ProductID,
			Requested:   l.Requested,
			Picked:      l.Picked,
			Shortfall:   l.Shortfall(),
		}
	}
	records := make([]PickRecordDTO, len(r.Records))
	for i, rec := range r.Records {
		records[i] = PickRecordDTO{
			ID:                rec.ID,
			PickRequestLineID: rec.PickRequestLineID,
			StockUnitID:       rec.StockUnitID,
			LotNumber:         rec.LotNumber,
			Quantity:          rec.Quantity,
			PickedBy:          rec.PickedBy,
			PickedAt:          rec.PickedAt,
		}
	}
	return &PickRequestDTO{
		ID:             r.ID,
		RequestNumber:  r.RequestNumber,
		OrderID:        r.OrderID,
		SourceType:     r.SourceType.String(),
		Status:         r.Status.String(),
		Lines:          lines,
		Records:        records,
		ForceCompleted: r.ForceCompleted,
		ShortfallNote:  r.ShortfallNote,
		CompletedBy:    r.CompletedBy,
		CompletedAt:    r.CompletedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// CreatePickRequestRequest is the input for opening a picking stage
type CreatePickRequestRequest struct {
	OrderID    uuid.UUID `json:"order_id" binding:"required"`
	SourceType string    `json:"source_type" binding:"required,oneof=INTERNAL EXTERNAL"`
}

// RecordPickRequest is the input for recording one pick against a request line
type RecordPickRequest struct {
	OrderLineID uuid.UUID       `json:"order_line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// CompletePickingRequest is the input for closing a pick request
type CompletePickingRequest struct {
	Force         bool   `json:"force"`
	ShortfallNote string `json:"shortfall_note,omitempty"`
}

// ExternalPickLine is one confirmed line from an external warehouse
type ExternalPickLine struct {
	OrderLineID uuid.UUID       `json:"order_line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// ConfirmExternalPickRequest is the input for booking an external warehouse's
// pick confirmation
type ConfirmExternalPickRequest struct {
	Lines         []ExternalPickLine `json:"lines" binding:"required,min=1,dive"`
	Force         bool               `json:"force"`
	ShortfallNote string             `json:"shortfall_note,omitempty"`
}

// ShipmentLineDTO is the read model for one shipment line
type ShipmentLineDTO struct {
	ID              uuid.UUID       `json:"id"`
	OrderLineID     uuid.UUID       `json:"order_line_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	QuantityShipped decimal.Decimal `json:"quantity_shipped"`
}

// ShipmentDTO is the read model for a shipment
type ShipmentDTO struct {
	ID             uuid.UUID         `json:"id"`
	ShipmentNumber string            `json:"shipment_number"`
	OrderID        uuid.UUID         `json:"order_id"`
	Status         string            `json:"status"`
	FreightAmount  decimal.Decimal   `json:"freight_amount"`
	Lines          []ShipmentLineDTO `json:"lines"`
	ShippedAt      *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time        `json:"delivered_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ToShipmentDTO converts a shipment to its DTO
func ToShipmentDTO(s *fulfillment.Shipment) *ShipmentDTO {
	lines := make([]ShipmentLineDTO, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = ShipmentLineDTO{
			ID:              l.ID,
			OrderLineID:     l.OrderLineID,
			ProductID:       l.ProductID,
			QuantityShipped: l.QuantityShipped,
		}
	}
	return &ShipmentDTO{
		ID:             s.ID,
		ShipmentNumber: s.ShipmentNumber,
		OrderID:        s.OrderID,
		Status:         s.Status.String(),
		FreightAmount:  s.FreightAmount,
		Lines:          lines,
		ShippedAt:      s.ShippedAt,
		DeliveredAt:    s.DeliveredAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToShipmentDTOs converts a slice of shipments to DTOs
func ToShipmentDTOs(shipments []fulfillment.Shipment) []ShipmentDTO {
	dtos := make([]ShipmentDTO, len(shipments))
	for i := range shipments {
		d := ToShipmentDTO(&shipments[i])
		dtos[i] = *d
	}
	return dtos
}

// CreateShipmentLineRequest is one line of a shipment creation request
type CreateShipmentLineRequest struct {
	OrderLineID uuid.UUID       `json:"order_line_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateShipmentRequest is the input for aggregating packed quantity into a
// shipment
type CreateShipmentRequest struct {
	OrderID       uuid.UUID                   `json:"order_id" binding:"required"`
	FreightAmount decimal.Decimal             `json:"freight_amount"`
	Lines         []CreateShipmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}
