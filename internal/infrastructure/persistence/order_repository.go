package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its lines by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByNumber finds an order by order number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByCustomer finds orders for a customer
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]fulfillment.Order, error) {
	var orders []fulfillment.Order
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&fulfillment.Order{}).
			Preload("Lines").
			Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	var orders []fulfillment.Order
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&fulfillment.Order{}).Preload("Lines"),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order and its lines
func (r *GormOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(order).Error; err != nil {
			return err
		}

		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
			if err := tx.Save(&order.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check). Lines are
// rewritten alongside the header so counter increments land atomically.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *fulfillment.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := order.Version
		order.Version++
		order.UpdatedAt = time.Now()

		result := tx.Model(&fulfillment.Order{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":         order.Status,
				"shipment_count": order.ShipmentCount,
				"invoice_count":  order.InvoiceCount,
				"completed_at":   order.CompletedAt,
				"version":        order.Version,
				"updated_at":     order.UpdatedAt,
			})

		if result.Error != nil {
			order.Version = currentVersion
			return result.Error
		}
		if result.RowsAffected == 0 {
			order.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			line.UpdatedAt = order.UpdatedAt
			if err := tx.Model(&fulfillment.OrderLine{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{
					"packed":     line.Packed,
					"picked":     line.Picked,
					"shipped":    line.Shipped,
					"invoiced":   line.Invoiced,
					"updated_at": line.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GenerateOrderNumber produces the next sequential order number.
// Format: SO-YYYY-NNNNN (e.g. SO-2026-00001). Used as the fallback when the
// numbering service is unavailable.
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("SO-%d-", year)

	var lastOrder fulfillment.Order
	err := r.db.WithContext(ctx).
		Model(&fulfillment.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&fulfillment.Order{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("confirmed_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies only the search and field filters
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ? OR customer_name ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}

	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ fulfillment.OrderRepository = (*GormOrderRepository)(nil)
