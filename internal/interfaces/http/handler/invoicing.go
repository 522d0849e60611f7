package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	billingapp "github.com/wms/backend/internal/application/billing"
)

// InvoicingHandler handles invoice API endpoints
type InvoicingHandler struct {
	BaseHandler
	invoicingService *billingapp.InvoicingService
}

// NewInvoicingHandler creates a new InvoicingHandler
func NewInvoicingHandler(invoicingService *billingapp.InvoicingService) *InvoicingHandler {
	return &InvoicingHandler{invoicingService: invoicingService}
}

// Generate handles POST /invoices
func (h *InvoicingHandler) Generate(c *gin.Context) {
	var req billingapp.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "User ID required")
		return
	}

	invoice, err := h.invoicingService.GenerateInvoice(c.Request.Context(), &req, actor, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID handles GET /invoices/:id
func (h *InvoicingHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoicingService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// GetByNumber handles GET /invoices/number/:number
func (h *InvoicingHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number required")
		return
	}

	invoice, err := h.invoicingService.GetInvoiceByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// ListByOrder handles GET /orders/:id/invoices
func (h *InvoicingHandler) ListByOrder(c *gin.Context) {
	orderID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	invoices, err := h.invoicingService.ListInvoicesByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoicingHandler) RecordPayment(c *gin.Context) {
	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req billingapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	invoice, err := h.invoicingService.RecordPayment(c.Request.Context(), invoiceID, &req, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RecordEmailSent handles POST /invoices/:id/emails
func (h *InvoicingHandler) RecordEmailSent(c *gin.Context) {
	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoicingService.RecordEmailSent(c.Request.Context(), invoiceID, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RecordPrinted handles POST /invoices/:id/prints
func (h *InvoicingHandler) RecordPrinted(c *gin.Context) {
	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoicingService.RecordPrinted(c.Request.Context(), invoiceID, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}
