package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingapp "github.com/wms/backend/internal/application/billing"
)

// PricingHandler handles price list API endpoints
type PricingHandler struct {
	BaseHandler
	priceListService *billingapp.PriceListService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(priceListService *billingapp.PriceListService) *PricingHandler {
	return &PricingHandler{priceListService: priceListService}
}

// AddEntry handles POST /price-list
func (h *PricingHandler) AddEntry(c *gin.Context) {
	var req billingapp.AddPriceEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	entry, err := h.priceListService.CreateEntry(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// Quote handles GET /price-list/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	quantity, err := decimal.NewFromString(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity.LessThanOrEqual(decimal.Zero) {
		h.BadRequest(c, "Invalid quantity")
		return
	}
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		asOf, err = parseDateTime(raw)
		if err != nil {
			h.BadRequest(c, "Invalid as_of date")
			return
		}
	}

	price, err := h.priceListService.PriceFor(c.Request.Context(), customerID, productID, quantity, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, billingapp.PriceQuoteDTO{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  price.Amount(),
		Currency:   string(price.Currency()),
		AsOf:       asOf,
	})
}
