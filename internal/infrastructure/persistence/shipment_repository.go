package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment with its lines by ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Shipment, error) {
	var shipment fulfillment.Shipment
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&shipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// FindByOrder finds all shipments for an order
func (r *GormShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	var shipments []fulfillment.Shipment
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// CountOpenByOrder counts shipments still in PREPARING for an order
func (r *GormShipmentRepository) CountOpenByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&fulfillment.Shipment{}).
		Where("order_id = ? AND status = ?", orderID, fulfillment.ShipmentStatusPreparing).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a shipment. Lines are immutable after creation, so
// they are only ever inserted here.
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *fulfillment.Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(shipment).Error; err != nil {
			return err
		}

		for i := range shipment.Lines {
			shipment.Lines[i].ShipmentID = shipment.ID
			if err := tx.Save(&shipment.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (checks version). Only status
// transitions move after creation.
func (r *GormShipmentRepository) SaveWithLock(ctx context.Context, shipment *fulfillment.Shipment) error {
	currentVersion := shipment.Version
	shipment.Version++
	shipment.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&fulfillment.Shipment{}).
		Where("id = ? AND version = ?", shipment.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":       shipment.Status,
			"shipped_at":   shipment.ShippedAt,
			"delivered_at": shipment.DeliveredAt,
			"version":      shipment.Version,
			"updated_at":   shipment.UpdatedAt,
		})

	if result.Error != nil {
		shipment.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		shipment.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormShipmentRepository implements ShipmentRepository
var _ fulfillment.ShipmentRepository = (*GormShipmentRepository)(nil)
