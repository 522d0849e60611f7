package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/inventory"
)

// StockUnitDTO is the read model for a stock unit
type StockUnitDTO struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	LocationID        uuid.UUID       `json:"location_id"`
	LotNumber         string          `json:"lot_number"`
	LotExpiry         *time.Time      `json:"lot_expiry,omitempty"`
	ReceivedAt        time.Time       `json:"received_at"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Status            string          `json:"status"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToStockUnitDTO converts a stock unit to its DTO
func ToStockUnitDTO(u *inventory.StockUnit) *StockUnitDTO {
	return &StockUnitDTO{
		ID:                u.ID,
		ProductID:         u.ProductID,
		LocationID:        u.LocationID,
		LotNumber:         u.LotNumber,
		LotExpiry:         u.LotExpiry,
		ReceivedAt:        u.ReceivedAt,
		AvailableQuantity: u.AvailableQuantity,
		Status:            u.Status.String(),
		Version:           u.Version,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// ToStockUnitDTOs converts a slice of stock units to DTOs
func ToStockUnitDTOs(units []inventory.StockUnit) []StockUnitDTO {
	dtos := make([]StockUnitDTO, len(units))
	for i := range units {
		d := ToStockUnitDTO(&units[i])
		dtos[i] = *d
	}
	return dtos
}

// ConsumptionRecordDTO is the read model for a ledger entry
type ConsumptionRecordDTO struct {
	ID          uuid.UUID       `json:"id"`
	StockUnitID uuid.UUID       `json:"stock_unit_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	RequestID   uuid.UUID       `json:"request_id"`
	RequestType string          `json:"request_type"`
	ConsumedBy  uuid.UUID       `json:"consumed_by"`
	ConsumedAt  time.Time       `json:"consumed_at"`
	Reversed    bool            `json:"reversed"`
	ReversedBy  *uuid.UUID      `json:"reversed_by,omitempty"`
	ReversedAt  *time.Time      `json:"reversed_at,omitempty"`
}

// ToConsumptionRecordDTO converts a ledger entry to its DTO
func ToConsumptionRecordDTO(r *inventory.ConsumptionRecord) *ConsumptionRecordDTO {
	return &ConsumptionRecordDTO{
		ID:          r.ID,
		StockUnitID: r.StockUnitID,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		RequestID:   r.RequestID,
		RequestType: r.RequestType.String(),
		ConsumedBy:  r.ConsumedBy,
		ConsumedAt:  r.ConsumedAt,
		Reversed:    r.Reversed,
		ReversedBy:  r.ReversedBy,
		ReversedAt:  r.ReversedAt,
	}
}

// ToConsumptionRecordDTOs converts a slice of ledger entries to DTOs
func ToConsumptionRecordDTOs(records []inventory.ConsumptionRecord) []ConsumptionRecordDTO {
	dtos := make([]ConsumptionRecordDTO, len(records))
	for i := range records {
		d := ToConsumptionRecordDTO(&records[i])
		dtos[i] = *d
	}
	return dtos
}

// RegisterStockUnitRequest is the input for registering received stock
type RegisterStockUnitRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	LotNumber  string          `json:"lot_number" binding:"required,max=64"`
	LotExpiry  *time.Time      `json:"lot_expiry,omitempty"`
	ReceivedAt *time.Time      `json:"received_at,omitempty"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
}

// ReserveStockRequest is the input for a single-unit reservation
type ReserveStockRequest struct {
	StockUnitID uuid.UUID       `json:"stock_unit_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	RequestID   uuid.UUID       `json:"request_id" binding:"required"`
	RequestType string          `json:"request_type" binding:"required,oneof=PICK ADJUSTMENT"`
}

// AllocateStockRequest is the input for a FEFO allocation
type AllocateStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	RequestID uuid.UUID       `json:"request_id" binding:"required"`
}

// AllocationLineDTO is one applied deduction in an allocation result
type AllocationLineDTO struct {
	StockUnitID     uuid.UUID       `json:"stock_unit_id"`
	LotNumber       string          `json:"lot_number"`
	LotExpiry       *time.Time      `json:"lot_expiry,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	RemainingInUnit decimal.Decimal `json:"remaining_in_unit"`
	FullyConsumed   bool            `json:"fully_consumed"`
}

// AllocationResultDTO is the outcome of an applied allocation
type AllocationResultDTO struct {
	ProductID      uuid.UUID              `json:"product_id"`
	RequestID      uuid.UUID              `json:"request_id"`
	Lines          []AllocationLineDTO    `json:"lines"`
	TotalAllocated decimal.Decimal        `json:"total_allocated"`
	Records        []ConsumptionRecordDTO `json:"records"`
}

// ToAllocationResultDTO builds the result DTO from a plan and the ledger
// entries created while applying it
func ToAllocationResultDTO(plan *inventory.AllocationPlan, requestID uuid.UUID, records []inventory.ConsumptionRecord) *AllocationResultDTO {
	lines := make([]AllocationLineDTO, len(plan.Lines))
	for i, l := range plan.Lines {
		lines[i] = AllocationLineDTO{
			StockUnitID:     l.StockUnitID,
			LotNumber:       l.LotNumber,
			LotExpiry:       l.LotExpiry,
			Quantity:        l.Quantity,
			RemainingInUnit: l.RemainingInUnit,
			FullyConsumed:   l.FullyConsumed,
		}
	}
	return &AllocationResultDTO{
		ProductID:      plan.ProductID,
		RequestID:      requestID,
		Lines:          lines,
		TotalAllocated: plan.TotalPlanned,
		Records:        ToConsumptionRecordDTOs(records),
	}
}

// AvailabilityDTO summarizes available stock for a product
type AvailabilityDTO struct {
	ProductID      uuid.UUID       `json:"product_id"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	Units          []StockUnitDTO  `json:"units"`
}
