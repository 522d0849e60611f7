package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// GormStockUnitRepository implements StockUnitRepository using GORM
type GormStockUnitRepository struct {
	db *gorm.DB
}

// NewGormStockUnitRepository creates a new GormStockUnitRepository
func NewGormStockUnitRepository(db *gorm.DB) *GormStockUnitRepository {
	return &GormStockUnitRepository{db: db}
}

// FindByID finds a stock unit by its ID
func (r *GormStockUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockUnit, error) {
	var unit inventory.StockUnit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindByIDs finds multiple stock units by their IDs
func (r *GormStockUnitRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.StockUnit, error) {
	if len(ids) == 0 {
		return []inventory.StockUnit{}, nil
	}

	var units []inventory.StockUnit
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindAvailableByProduct returns usable units with stock for a product,
// ordered FEFO. Units without an expiry sort last.
func (r *GormStockUnitRepository) FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockUnit, error) {
	var units []inventory.StockUnit
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND available_quantity > 0", productID, inventory.StockUnitStatusUsable).
		Order("COALESCE(lot_expiry, '9999-12-31') ASC, received_at ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindByLotNumber finds units belonging to a production lot
func (r *GormStockUnitRepository) FindByLotNumber(ctx context.Context, lotNumber string) ([]inventory.StockUnit, error) {
	var units []inventory.StockUnit
	if err := r.db.WithContext(ctx).
		Where("lot_number = ?", lotNumber).
		Order("received_at ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindAll finds stock units matching the filter
func (r *GormStockUnitRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockUnit, error) {
	var units []inventory.StockUnit
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.StockUnit{}), filter)

	if err := query.Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// Save creates or updates a stock unit
func (r *GormStockUnitRepository) Save(ctx context.Context, unit *inventory.StockUnit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockUnitRepository) SaveWithLock(ctx context.Context, unit *inventory.StockUnit) error {
	currentVersion := unit.Version
	unit.Version++
	unit.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&inventory.StockUnit{}).
		Where("id = ? AND version = ?", unit.ID, currentVersion).
		Updates(map[string]interface{}{
			"available_quantity": unit.AvailableQuantity,
			"status":             unit.Status,
			"lot_expiry":         unit.LotExpiry,
			"version":            unit.Version,
			"updated_at":         unit.UpdatedAt,
		})

	if result.Error != nil {
		unit.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		unit.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ReserveQuantity atomically decrements available quantity when the unit still
// covers the request. The guard runs in the UPDATE itself, so concurrent
// callers cannot both win on the same remaining quantity.
func (r *GormStockUnitRepository) ReserveQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockUnit{}).
		Where("id = ? AND status = ? AND available_quantity >= ?", id, inventory.StockUnitStatusUsable, quantity).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity - ?", quantity),
			"status": gorm.Expr(
				"CASE WHEN available_quantity - ? <= 0 THEN ? ELSE status END",
				quantity, inventory.StockUnitStatusDepleted,
			),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RestoreQuantity atomically adds quantity back to a unit. A depleted unit
// becomes usable again; a quarantined unit keeps its status.
func (r *GormStockUnitRepository) RestoreQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockUnit{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity + ?", quantity),
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE status END",
				inventory.StockUnitStatusDepleted, inventory.StockUnitStatusUsable,
			),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumAvailableByProduct sums available quantity across usable units
func (r *GormStockUnitRepository) SumAvailableByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockUnit{}).
		Select("COALESCE(SUM(available_quantity), 0) as total").
		Where("product_id = ? AND status = ?", productID, inventory.StockUnitStatusUsable).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Count counts stock units matching the filter
func (r *GormStockUnitRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&inventory.StockUnit{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormStockUnitRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

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
		query = query.Order("COALESCE(lot_expiry, '9999-12-31') ASC, received_at ASC")
	}

	return query
}

// applyFilterWithoutPagination applies only the search and field filters
func (r *GormStockUnitRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("lot_number ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "location_id":
			query = query.Where("location_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("available_quantity > 0")
			}
		case "expired":
			if value == true {
				query = query.Where("lot_expiry IS NOT NULL AND lot_expiry <= ?", time.Now())
			}
		}
	}

	return query
}

// Ensure GormStockUnitRepository implements StockUnitRepository
var _ inventory.StockUnitRepository = (*GormStockUnitRepository)(nil)
