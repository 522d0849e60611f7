package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/inventory"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution across the inventory, fulfillment and billing
// repositories.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// StockUnitRepo returns the stock unit repository scoped to the current transaction
func (r *gormTransactionalRepositories) StockUnitRepo() inventory.StockUnitRepository {
	return NewGormStockUnitRepository(r.tx)
}

// ConsumptionRepo returns the consumption ledger repository scoped to the current transaction
func (r *gormTransactionalRepositories) ConsumptionRepo() inventory.ConsumptionRecordRepository {
	return NewGormConsumptionRecordRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction
func (r *gormTransactionalRepositories) OrderRepo() fulfillment.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// PickRequestRepo returns the pick request repository scoped to the current transaction
func (r *gormTransactionalRepositories) PickRequestRepo() fulfillment.PickRequestRepository {
	return NewGormPickRequestRepository(r.tx)
}

// ShipmentRepo returns the shipment repository scoped to the current transaction
func (r *gormTransactionalRepositories) ShipmentRepo() fulfillment.ShipmentRepository {
	return NewGormShipmentRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ uow.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ uow.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
