package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// GormConsumptionRecordRepository implements ConsumptionRecordRepository using
// GORM. The ledger is append-only; entries are never updated except for the
// reversal flags, and never deleted.
type GormConsumptionRecordRepository struct {
	db *gorm.DB
}

// NewGormConsumptionRecordRepository creates a new GormConsumptionRecordRepository
func NewGormConsumptionRecordRepository(db *gorm.DB) *GormConsumptionRecordRepository {
	return &GormConsumptionRecordRepository{db: db}
}

// Append persists a new ledger entry
func (r *GormConsumptionRecordRepository) Append(ctx context.Context, record *inventory.ConsumptionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID finds a ledger entry by its ID
func (r *GormConsumptionRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ConsumptionRecord, error) {
	var record inventory.ConsumptionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByRequestID finds all entries created for a consuming request
func (r *GormConsumptionRecordRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]inventory.ConsumptionRecord, error) {
	var records []inventory.ConsumptionRecord
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("consumed_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByStockUnit finds all entries against a stock unit
func (r *GormConsumptionRecordRepository) FindByStockUnit(ctx context.Context, stockUnitID uuid.UUID) ([]inventory.ConsumptionRecord, error) {
	var records []inventory.ConsumptionRecord
	if err := r.db.WithContext(ctx).
		Where("stock_unit_id = ?", stockUnitID).
		Order("consumed_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByProduct finds entries for a product within a time window, most recent first
func (r *GormConsumptionRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time, filter shared.Filter) ([]inventory.ConsumptionRecord, error) {
	var records []inventory.ConsumptionRecord
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&inventory.ConsumptionRecord{}).
			Where("product_id = ?", productID).
			Where("consumed_at >= ? AND consumed_at <= ?", from, to),
		filter,
	)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkReversed persists the reversal flags of an entry. Only an entry not yet
// reversed can be flipped, so a double release loses the race in the database
// even if it got past the aggregate check.
func (r *GormConsumptionRecordRepository) MarkReversed(ctx context.Context, record *inventory.ConsumptionRecord) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.ConsumptionRecord{}).
		Where("id = ? AND reversed = FALSE", record.ID).
		Updates(map[string]interface{}{
			"reversed":    record.Reversed,
			"reversed_by": record.ReversedBy,
			"reversed_at": record.ReversedAt,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvalidState
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormConsumptionRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("consumed_at DESC")
	}

	for key, value := range filter.Filters {
		switch key {
		case "request_type":
			query = query.Where("request_type = ?", value)
		case "reversed":
			query = query.Where("reversed = ?", value)
		}
	}

	return query
}

// Ensure GormConsumptionRecordRepository implements ConsumptionRecordRepository
var _ inventory.ConsumptionRecordRepository = (*GormConsumptionRecordRepository)(nil)
