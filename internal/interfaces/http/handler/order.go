package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fulfillmentapp "github.com/wms/backend/internal/application/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *fulfillmentapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *fulfillmentapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req fulfillmentapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID handles GET /orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByNumber handles GET /orders/number/:number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Order number required")
		return
	}

	order, err := h.orderService.GetOrderByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
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
	filter.Search = listReq.Search
	if listReq.OrderBy != "" {
		filter.OrderBy = listReq.OrderBy
		filter.OrderDir = listReq.OrderDir
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		id, err := uuid.Parse(customerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID")
			return
		}
		filter.Filters["customer_id"] = id
	}

	page, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RecordPacked handles POST /orders/:id/packed
func (h *OrderHandler) RecordPacked(c *gin.Context) {
	orderID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req fulfillmentapp.RecordPackedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	order, err := h.orderService.RecordPacked(c.Request.Context(), orderID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Complete handles POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.CompleteOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
