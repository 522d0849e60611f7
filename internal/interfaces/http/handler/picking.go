package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	fulfillmentapp "github.com/wms/backend/internal/application/fulfillment"
)

// PickingHandler handles pick request API endpoints
type PickingHandler struct {
	BaseHandler
	pickingService *fulfillmentapp.PickingService
}

// NewPickingHandler creates a new PickingHandler
func NewPickingHandler(pickingService *fulfillmentapp.PickingService) *PickingHandler {
	return &PickingHandler{pickingService: pickingService}
}

// Create handles POST /pick-requests
func (h *PickingHandler) Create(c *gin.Context) {
	var req fulfillmentapp.CreatePickRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	pick, err := h.pickingService.CreatePickRequest(c.Request.Context(), &req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, pick)
}

// GetByID handles GET /pick-requests/:id
func (h *PickingHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid pick request ID")
		return
	}

	pick, err := h.pickingService.GetPickRequest(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pick)
}

// ListByOrder handles GET /orders/:id/pick-requests
func (h *PickingHandler) ListByOrder(c *gin.Context) {
	orderID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	picks, err := h.pickingService.ListPickRequestsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, picks)
}

// RecordPick handles POST /pick-requests/:id/picks
func (h *PickingHandler) RecordPick(c *gin.Context) {
	pickRequestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid pick request ID")
		return
	}

	var req fulfillmentapp.RecordPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	pick, err := h.pickingService.RecordPick(c.Request.Context(), pickRequestID, &req, actor, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pick)
}

// Complete handles POST /pick-requests/:id/complete
func (h *PickingHandler) Complete(c *gin.Context) {
	pickRequestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid pick request ID")
		return
	}

	var req fulfillmentapp.CompletePickingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	pick, err := h.pickingService.CompletePicking(c.Request.Context(), pickRequestID, &req, actor, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pick)
}

// ConfirmExternal handles POST /pick-requests/:id/external-confirmation
func (h *PickingHandler) ConfirmExternal(c *gin.Context) {
	pickRequestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid pick request ID")
		return
	}

	var req fulfillmentapp.ConfirmExternalPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	pick, err := h.pickingService.ConfirmExternalPick(c.Request.Context(), pickRequestID, &req, actor, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pick)
}
