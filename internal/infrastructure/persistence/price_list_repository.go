package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/billing"
)

// GormPriceListRepository implements PriceListRepository using GORM
type GormPriceListRepository struct {
	db *gorm.DB
}

// NewGormPriceListRepository creates a new GormPriceListRepository
func NewGormPriceListRepository(db *gorm.DB) *GormPriceListRepository {
	return &GormPriceListRepository{db: db}
}

// FindCandidates returns entries for a product valid at the given date.
// Customer-specific entries sort before base entries, higher quantity tiers
// first, so the first applicable entry is the best one.
func (r *GormPriceListRepository) FindCandidates(ctx context.Context, customerID, productID uuid.UUID, asOf time.Time) ([]billing.PriceListEntry, error) {
	var entries []billing.PriceListEntry
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("customer_id = ? OR customer_id IS NULL", customerID).
		Where("valid_from <= ?", asOf).
		Where("valid_to IS NULL OR valid_to >= ?", asOf).
		Order("customer_id ASC NULLS LAST, min_quantity DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Save creates or updates a price list entry
func (r *GormPriceListRepository) Save(ctx context.Context, entry *billing.PriceListEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// Ensure GormPriceListRepository implements PriceListRepository
var _ billing.PriceListRepository = (*GormPriceListRepository)(nil)
