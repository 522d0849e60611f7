package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/shared/valueobject"
)

// PriceListService resolves unit prices from the customer price list.
// Resolution order: customer-specific entries beat base entries, and within
// each group the highest quantity tier the requested quantity reaches wins.
type PriceListService struct {
	priceListRepo billing.PriceListRepository
	logger        *zap.Logger
}

// NewPriceListService creates a new price list service
func NewPriceListService(priceListRepo billing.PriceListRepository, logger *zap.Logger) *PriceListService {
	return &PriceListService{
		priceListRepo: priceListRepo,
		logger:        logger,
	}
}

// PriceFor implements billing.PricingService
func (s *PriceListService) PriceFor(ctx context.Context, customerID, productID uuid.UUID, quantity decimal.Decimal, asOf time.Time) (valueobject.Money, error) {
	candidates, err := s.priceListRepo.FindCandidates(ctx, customerID, productID, asOf)
	if err != nil {
		return valueobject.ZeroUSD(), err
	}

	var best *billing.PriceListEntry
	for i := range candidates {
		entry := &candidates[i]
		if !entry.AppliesTo(quantity, asOf) {
			continue
		}
		if best == nil {
			best = entry
			continue
		}
		if betterEntry(entry, best) {
			best = entry
		}
	}
	if best == nil {
		return valueobject.ZeroUSD(), shared.NewDomainError("NOT_FOUND",
			"No price list entry covers this customer, product and quantity")
	}
	return valueobject.NewMoneyUSD(best.UnitPrice), nil
}

// AddEntry creates a price list entry
func (s *PriceListService) AddEntry(ctx context.Context, entry *billing.PriceListEntry) error {
	if entry.UnitPrice.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Unit price cannot be negative")
	}
	if entry.MinQuantity.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Minimum quantity cannot be negative")
	}
	if entry.ValidTo != nil && entry.ValidTo.Before(entry.ValidFrom) {
		return shared.NewDomainError("VALIDATION_FAILED", "Validity window ends before it starts")
	}
	return s.priceListRepo.Save(ctx, entry)
}

// CreateEntry builds and saves a price list entry from an intake request
func (s *PriceListService) CreateEntry(ctx context.Context, req *AddPriceEntryRequest) (*PriceEntryDTO, error) {
	entry := &billing.PriceListEntry{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  req.CustomerID,
		ProductID:   req.ProductID,
		MinQuantity: req.MinQuantity,
		UnitPrice:   req.UnitPrice,
		ValidFrom:   req.ValidFrom,
		ValidTo:     req.ValidTo,
	}
	if err := s.AddEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("price list entry added",
		zap.String("entry_id", entry.ID.String()),
		zap.String("product_id", entry.ProductID.String()))
	return ToPriceEntryDTO(entry), nil
}

// betterEntry reports whether a beats b: customer-specific first, then the
// higher quantity tier
func betterEntry(a, b *billing.PriceListEntry) bool {
	if (a.CustomerID != nil) != (b.CustomerID != nil) {
		return a.CustomerID != nil
	}
	return a.MinQuantity.GreaterThan(b.MinQuantity)
}
