package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
)

// GormPickRequestRepository implements PickRequestRepository using GORM
type GormPickRequestRepository struct {
	db *gorm.DB
}

// NewGormPickRequestRepository creates a new GormPickRequestRepository
func NewGormPickRequestRepository(db *gorm.DB) *GormPickRequestRepository {
	return &GormPickRequestRepository{db: db}
}

var openPickStatuses = []fulfillment.PickRequestStatus{
	fulfillment.PickRequestStatusPending,
	fulfillment.PickRequestStatusInProgress,
}

// FindByID finds a pick request with lines and records by ID
func (r *GormPickRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.PickRequest, error) {
	var request fulfillment.PickRequest
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Records").
		First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// FindByOrder finds all pick requests for an order
func (r *GormPickRequestRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.PickRequest, error) {
	var requests []fulfillment.PickRequest
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Records").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindOpenByOrder finds the open (pending or in-progress) request for an order
func (r *GormPickRequestRepository) FindOpenByOrder(ctx context.Context, orderID uuid.UUID) (*fulfillment.PickRequest, error) {
	var request fulfillment.PickRequest
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Records").
		Where("order_id = ? AND status IN ?", orderID, openPickStatuses).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// ExistsOpenForOrder reports whether an open request exists for the order
func (r *GormPickRequestRepository) ExistsOpenForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&fulfillment.PickRequest{}).
		Where("order_id = ? AND status IN ?", orderID, openPickStatuses).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a pick request with its lines and records
func (r *GormPickRequestRepository) Save(ctx context.Context, request *fulfillment.PickRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "Records").Save(request).Error; err != nil {
			return err
		}

		for i := range request.Lines {
			request.Lines[i].PickRequestID = request.ID
			if err := tx.Save(&request.Lines[i]).Error; err != nil {
				return err
			}
		}

		for i := range request.Records {
			request.Records[i].PickRequestID = request.ID
			if err := tx.Save(&request.Records[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPickRequestRepository) SaveWithLock(ctx context.Context, request *fulfillment.PickRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := request.Version
		request.Version++
		request.UpdatedAt = time.Now()

		result := tx.Model(&fulfillment.PickRequest{}).
			Where("id = ? AND version = ?", request.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":          request.Status,
				"force_completed": request.ForceCompleted,
				"shortfall_note":  request.ShortfallNote,
				"completed_by":    request.CompletedBy,
				"completed_at":    request.CompletedAt,
				"version":         request.Version,
				"updated_at":      request.UpdatedAt,
			})

		if result.Error != nil {
			request.Version = currentVersion
			return result.Error
		}
		if result.RowsAffected == 0 {
			request.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}

		for i := range request.Lines {
			line := &request.Lines[i]
			line.UpdatedAt = request.UpdatedAt
			if err := tx.Model(&fulfillment.PickRequestLine{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{
					"picked":     line.Picked,
					"updated_at": line.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}

		// Records are append-only; new ones are inserted, existing ones untouched
		for i := range request.Records {
			record := &request.Records[i]
			record.PickRequestID = request.ID
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Ensure GormPickRequestRepository implements PickRequestRepository
var _ fulfillment.PickRequestRepository = (*GormPickRequestRepository)(nil)
