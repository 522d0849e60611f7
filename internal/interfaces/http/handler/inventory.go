package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	inventoryapp "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// parseDateTime parses a datetime string in various formats
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// InventoryHandler handles stock unit and ledger API endpoints
type InventoryHandler struct {
	BaseHandler
	ledgerService     *inventoryapp.LedgerService
	allocationService *inventoryapp.AllocationService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(ledgerService *inventoryapp.LedgerService, allocationService *inventoryapp.AllocationService) *InventoryHandler {
	return &InventoryHandler{
		ledgerService:     ledgerService,
		allocationService: allocationService,
	}
}

// RegisterStockUnit handles POST /stock-units
func (h *InventoryHandler) RegisterStockUnit(c *gin.Context) {
	var req inventoryapp.RegisterStockUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	unit, err := h.ledgerService.RegisterStockUnit(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, unit)
}

// GetStockUnit handles GET /stock-units/:id
func (h *InventoryHandler) GetStockUnit(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid stock unit ID")
		return
	}

	unit, err := h.ledgerService.GetStockUnit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, unit)
}

// Quarantine handles POST /stock-units/:id/quarantine
func (h *InventoryHandler) Quarantine(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid stock unit ID")
		return
	}

	unit, err := h.ledgerService.Quarantine(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, unit)
}

// ReleaseQuarantine handles POST /stock-units/:id/release-quarantine
func (h *InventoryHandler) ReleaseQuarantine(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid stock unit ID")
		return
	}

	unit, err := h.ledgerService.ReleaseQuarantine(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, unit)
}

// Availability handles GET /products/:id/availability
func (h *InventoryHandler) Availability(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	availability, err := h.ledgerService.Availability(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, availability)
}

// History handles GET /products/:id/ledger
func (h *InventoryHandler) History(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	from := time.Time{}
	to := time.Now()
	if s := c.Query("from"); s != "" {
		if from, err = parseDateTime(s); err != nil {
			h.BadRequest(c, "Invalid from date")
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = parseDateTime(s); err != nil {
			h.BadRequest(c, "Invalid to date")
			return
		}
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		listReq = dto.DefaultListRequest()
	}
	filter := shared.DefaultFilter()
	if listReq.Page > 0 {
		filter.Page = listReq.Page
	}
	if listReq.PageSize > 0 {
		filter.PageSize = listReq.PageSize
	}

	records, err := h.ledgerService.History(c.Request.Context(), productID, from, to, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// HistoryByRequest handles GET /ledger/by-request/:id
func (h *InventoryHandler) HistoryByRequest(c *gin.Context) {
	requestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	records, err := h.ledgerService.HistoryByRequest(c.Request.Context(), requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// Reserve handles POST /reservations
func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req inventoryapp.ReserveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	record, err := h.ledgerService.Reserve(
		c.Request.Context(),
		req.StockUnitID,
		req.Quantity,
		req.RequestID,
		inventory.RequestType(req.RequestType),
		actor,
		time.Now(),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// Release handles POST /ledger/:id/release
func (h *InventoryHandler) Release(c *gin.Context) {
	recordID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid ledger entry ID")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	record, err := h.ledgerService.Release(c.Request.Context(), recordID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// PreviewAllocation handles POST /allocations/preview
func (h *InventoryHandler) PreviewAllocation(c *gin.Context) {
	var req inventoryapp.AllocateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	plan, err := h.allocationService.Preview(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// Allocate handles POST /allocations
func (h *InventoryHandler) Allocate(c *gin.Context) {
	var req inventoryapp.AllocateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	result, err := h.allocationService.Allocate(
		c.Request.Context(),
		req.ProductID,
		req.Quantity,
		req.RequestID,
		actor,
		time.Now(),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ReleaseAllocation handles POST /allocations/by-request/:id/release
func (h *InventoryHandler) ReleaseAllocation(c *gin.Context) {
	requestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	released, err := h.allocationService.ReleaseByRequest(c.Request.Context(), requestID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"released": released})
}
