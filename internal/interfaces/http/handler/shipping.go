package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	fulfillmentapp "github.com/wms/backend/internal/application/fulfillment"
)

// ShippingHandler handles shipment API endpoints
type ShippingHandler struct {
	BaseHandler
	shippingService *fulfillmentapp.ShippingService
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(shippingService *fulfillmentapp.ShippingService) *ShippingHandler {
	return &ShippingHandler{shippingService: shippingService}
}

// Create handles POST /shipments
func (h *ShippingHandler) Create(c *gin.Context) {
	var req fulfillmentapp.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	shipment, err := h.shippingService.CreateShipment(c.Request.Context(), &req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, shipment)
}

// GetByID handles GET /shipments/:id
func (h *ShippingHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	shipment, err := h.shippingService.GetShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipment)
}

// ListByOrder handles GET /orders/:id/shipments
func (h *ShippingHandler) ListByOrder(c *gin.Context) {
	orderID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	shipments, err := h.shippingService.ListShipmentsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipments)
}

// MarkShipped handles POST /shipments/:id/ship
func (h *ShippingHandler) MarkShipped(c *gin.Context) {
	shipmentID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	shipment, err := h.shippingService.MarkShipped(c.Request.Context(), shipmentID, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipment)
}

// MarkDelivered handles POST /shipments/:id/deliver
func (h *ShippingHandler) MarkDelivered(c *gin.Context) {
	shipmentID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	shipment, err := h.shippingService.MarkDelivered(c.Request.Context(), shipmentID, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipment)
}
