package uow

import (
	"context"

	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the pipeline repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Stage operations span aggregates (stock units, the
// consumption ledger, order counters), which is why the scope covers all of
// them rather than one bounded context.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all pipeline repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// StockUnitRepo returns the stock unit repository scoped to the current transaction
	StockUnitRepo() inventory.StockUnitRepository
	// ConsumptionRepo returns the consumption ledger repository scoped to the current transaction
	ConsumptionRepo() inventory.ConsumptionRecordRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() fulfillment.OrderRepository
	// PickRequestRepo returns the pick request repository scoped to the current transaction
	PickRequestRepo() fulfillment.PickRequestRepository
	// ShipmentRepo returns the shipment repository scoped to the current transaction
	ShipmentRepo() fulfillment.ShipmentRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
}

// NoOpTransactionScope runs the function against plain repositories without
// a real transaction. Useful for tests.
type NoOpTransactionScope struct {
	stockUnitRepo   inventory.StockUnitRepository
	consumptionRepo inventory.ConsumptionRecordRepository
	orderRepo       fulfillment.OrderRepository
	pickRequestRepo fulfillment.PickRequestRepository
	shipmentRepo    fulfillment.ShipmentRepository
	invoiceRepo     billing.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	stockUnitRepo inventory.StockUnitRepository,
	consumptionRepo inventory.ConsumptionRecordRepository,
	orderRepo fulfillment.OrderRepository,
	pickRequestRepo fulfillment.PickRequestRepository,
	shipmentRepo fulfillment.ShipmentRepository,
	invoiceRepo billing.InvoiceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockUnitRepo:   stockUnitRepo,
		consumptionRepo: consumptionRepo,
		orderRepo:       orderRepo,
		pickRequestRepo: pickRequestRepo,
		shipmentRepo:    shipmentRepo,
		invoiceRepo:     invoiceRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockUnitRepo returns the stock unit repository
func (s *NoOpTransactionScope) StockUnitRepo() inventory.StockUnitRepository {
	return s.stockUnitRepo
}

// ConsumptionRepo returns the consumption ledger repository
func (s *NoOpTransactionScope) ConsumptionRepo() inventory.ConsumptionRecordRepository {
	return s.consumptionRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() fulfillment.OrderRepository {
	return s.orderRepo
}

// PickRequestRepo returns the pick request repository
func (s *NoOpTransactionScope) PickRequestRepo() fulfillment.PickRequestRepository {
	return s.pickRequestRepo
}

// ShipmentRepo returns the shipment repository
func (s *NoOpTransactionScope) ShipmentRepo() fulfillment.ShipmentRepository {
	return s.shipmentRepo
}

// InvoiceRepo returns the invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}
