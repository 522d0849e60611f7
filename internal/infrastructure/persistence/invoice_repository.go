package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/shared"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByOrder finds all invoices for an order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("order_id = ?", orderID).
		Order("invoice_date ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByShipment finds the invoice derived from a shipment
func (r *GormInvoiceRepository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("shipment_id = ?", shipmentID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// ExistsForShipment reports whether a shipment already has an invoice
func (r *GormInvoiceRepository) ExistsForShipment(ctx context.Context, shipmentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("shipment_id = ?", shipmentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&billing.Invoice{}).Preload("Lines"),
		filter,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice. Lines are priced once at generation and
// never change, so they are only ever inserted here.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(invoice).Error; err != nil {
			return err
		}

		for i := range invoice.Lines {
			invoice.Lines[i].InvoiceID = invoice.ID
			if err := tx.Save(&invoice.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (checks version). Only payment
// and notification fields move after generation.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	currentVersion := invoice.Version
	invoice.Version++
	invoice.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("id = ? AND version = ?", invoice.ID, currentVersion).
		Updates(map[string]interface{}{
			"balance_due":     invoice.BalanceDue,
			"payment_status":  invoice.PaymentStatus,
			"paid_at":         invoice.PaidAt,
			"email_count":     invoice.EmailCount,
			"last_emailed_at": invoice.LastEmailedAt,
			"print_count":     invoice.PrintCount,
			"last_printed_at": invoice.LastPrintedAt,
			"version":         invoice.Version,
			"updated_at":      invoice.UpdatedAt,
		})

	if result.Error != nil {
		invoice.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		invoice.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ? OR customer_name ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "overdue":
			if value == true {
				query = query.Where("payment_status <> ? AND due_date < ?", billing.PaymentStatusPaid, time.Now())
			}
		}
	}

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
		query = query.Order("invoice_date DESC")
	}

	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
