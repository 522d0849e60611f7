package fulfillment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/application/uow"
	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// MockEventPublisher collects published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// stubNumberer issues deterministic document numbers, or fails when told to
type stubNumberer struct {
	mu   sync.Mutex
	seq  map[string]int
	fail bool
}

func newStubNumberer() *stubNumberer {
	return &stubNumberer{seq: make(map[string]int)}
}

func (n *stubNumberer) NextNumber(_ context.Context, docType string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return "", fmt.Errorf("numbering backend unavailable")
	}
	n.seq[docType]++
	return fmt.Sprintf("%s-20240115-%04d", docType, n.seq[docType]), nil
}

// stubReleaseNotifier records released pick requests
type stubReleaseNotifier struct {
	mu       sync.Mutex
	released []uuid.UUID
}

func (n *stubReleaseNotifier) NotifyReleased(_ context.Context, request *fulfillment.PickRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.released = append(n.released, request.ID)
	return nil
}

func (n *stubReleaseNotifier) releasedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.released)
}

func cloneOrder(o *fulfillment.Order) *fulfillment.Order {
	copied := *o
	copied.Lines = make([]fulfillment.OrderLine, len(o.Lines))
	copy(copied.Lines, o.Lines)
	return &copied
}

// memOrderRepo is an in-memory OrderRepository
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*fulfillment.Order
	seq    int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*fulfillment.Order)}
}

func (r *memOrderRepo) put(o *fulfillment.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = cloneOrder(o)
}

func (r *memOrderRepo) get(id uuid.UUID) *fulfillment.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneOrder(r.orders[id])
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepo) FindByNumber(_ context.Context, orderNumber string) (*fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return cloneOrder(order), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, _ shared.Filter) ([]fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]fulfillment.Order, 0)
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			result = append(result, *cloneOrder(order))
		}
	}
	return result, nil
}

func (r *memOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]fulfillment.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]fulfillment.Order, 0, len(r.orders))
	for _, order := range r.orders {
		result = append(result, *cloneOrder(order))
	}
	return result, nil
}

func (r *memOrderRepo) Save(_ context.Context, order *fulfillment.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) SaveWithLock(_ context.Context, order *fulfillment.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if ok && stored.Version != order.Version {
		return shared.ErrConcurrencyConflict
	}
	copied := cloneOrder(order)
	copied.Version++
	r.orders[order.ID] = copied
	order.Version = copied.Version
	return nil
}

func (r *memOrderRepo) GenerateOrderNumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("SO-FALLBACK-%04d", r.seq), nil
}

func (r *memOrderRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func clonePickRequest(p *fulfillment.PickRequest) *fulfillment.PickRequest {
	copied := *p
	copied.Lines = make([]fulfillment.PickRequestLine, len(p.Lines))
	copy(copied.Lines, p.Lines)
	copied.Records = make([]fulfillment.PickRecord, len(p.Records))
	copy(copied.Records, p.Records)
	return &copied
}

// memPickRequestRepo is an in-memory PickRequestRepository
type memPickRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*fulfillment.PickRequest
}

func newMemPickRequestRepo() *memPickRequestRepo {
	return &memPickRequestRepo{requests: make(map[uuid.UUID]*fulfillment.PickRequest)}
}

func (r *memPickRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*fulfillment.PickRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clonePickRequest(request), nil
}

func (r *memPickRequestRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]fulfillment.PickRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]fulfillment.PickRequest, 0)
	for _, request := range r.requests {
		if request.OrderID == orderID {
			result = append(result, *clonePickRequest(request))
		}
	}
	return result, nil
}

func (r *memPickRequestRepo) FindOpenByOrder(_ context.Context, orderID uuid.UUID) (*fulfillment.PickRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if request.OrderID == orderID && request.IsOpen() {
			return clonePickRequest(request), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPickRequestRepo) ExistsOpenForOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if request.OrderID == orderID && request.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPickRequestRepo) Save(_ context.Context, request *fulfillment.PickRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[request.ID] = clonePickRequest(request)
	return nil
}

func (r *memPickRequestRepo) SaveWithLock(_ context.Context, request *fulfillment.PickRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[request.ID]
	if ok && stored.Version != request.Version {
		return shared.ErrConcurrencyConflict
	}
	copied := clonePickRequest(request)
	copied.Version++
	r.requests[request.ID] = copied
	request.Version = copied.Version
	return nil
}

func cloneShipment(s *fulfillment.Shipment) *fulfillment.Shipment {
	copied := *s
	copied.Lines = make([]fulfillment.ShipmentLine, len(s.Lines))
	copy(copied.Lines, s.Lines)
	return &copied
}

// memShipmentRepo is an in-memory ShipmentRepository
type memShipmentRepo struct {
	mu        sync.Mutex
	shipments map[uuid.UUID]*fulfillment.Shipment
}

func newMemShipmentRepo() *memShipmentRepo {
	return &memShipmentRepo{shipments: make(map[uuid.UUID]*fulfillment.Shipment)}
}

func (r *memShipmentRepo) FindByID(_ context.Context, id uuid.UUID) (*fulfillment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shipment, ok := r.shipments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneShipment(shipment), nil
}

func (r *memShipmentRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]fulfillment.Shipment, 0)
	for _, shipment := range r.shipments {
		if shipment.OrderID == orderID {
			result = append(result, *cloneShipment(shipment))
		}
	}
	return result, nil
}

func (r *memShipmentRepo) CountOpenByOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, shipment := range r.shipments {
		if shipment.OrderID == orderID && shipment.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (r *memShipmentRepo) Save(_ context.Context, shipment *fulfillment.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shipments[shipment.ID] = cloneShipment(shipment)
	return nil
}

func (r *memShipmentRepo) SaveWithLock(_ context.Context, shipment *fulfillment.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.shipments[shipment.ID]
	if ok && stored.Version != shipment.Version {
		return shared.ErrConcurrencyConflict
	}
	copied := cloneShipment(shipment)
	copied.Version++
	r.shipments[shipment.ID] = copied
	shipment.Version = copied.Version
	return nil
}

// memStockRepo is an in-memory StockUnitRepository backing the allocation path
type memStockRepo struct {
	mu    sync.Mutex
	units map[uuid.UUID]*inventory.StockUnit
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{units: make(map[uuid.UUID]*inventory.StockUnit)}
}

func (r *memStockRepo) put(unit *inventory.StockUnit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *unit
	r.units[unit.ID] = &copied
}

func (r *memStockRepo) get(id uuid.UUID) inventory.StockUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.units[id]
}

func (r *memStockRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *unit
	return &copied, nil
}

func (r *memStockRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.StockUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockUnit, 0, len(ids))
	for _, id := range ids {
		if unit, ok := r.units[id]; ok {
			result = append(result, *unit)
		}
	}
	return result, nil
}

func (r *memStockRepo) FindAvailableByProduct(_ context.Context, productID uuid.UUID) ([]inventory.StockUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidates := make([]inventory.StockUnit, 0)
	for _, unit := range r.units {
		if unit.ProductID == productID && unit.IsUsable() {
			candidates = append(candidates, *unit)
		}
	}
	return inventory.SortFEFO(candidates), nil
}

func (r *memStockRepo) FindByLotNumber(_ context.Context, lotNumber string) ([]inventory.StockUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockUnit, 0)
	for _, unit := range r.units {
		if unit.LotNumber == lotNumber {
			result = append(result, *unit)
		}
	}
	return result, nil
}

func (r *memStockRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.StockUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockUnit, 0, len(r.units))
	for _, unit := range r.units {
		result = append(result, *unit)
	}
	return result, nil
}

func (r *memStockRepo) Save(_ context.Context, unit *inventory.StockUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *unit
	r.units[unit.ID] = &copied
	return nil
}

func (r *memStockRepo) SaveWithLock(_ context.Context, unit *inventory.StockUnit) error {
	return r.Save(nil, unit)
}

func (r *memStockRepo) ReserveQuantity(_ context.Context, id uuid.UUID, quantity decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if unit.AvailableQuantity.LessThan(quantity) {
		return false, nil
	}
	unit.AvailableQuantity = unit.AvailableQuantity.Sub(quantity)
	if unit.AvailableQuantity.IsZero() {
		unit.Status = inventory.StockUnitStatusDepleted
	}
	return true, nil
}

func (r *memStockRepo) RestoreQuantity(_ context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return shared.ErrNotFound
	}
	unit.AvailableQuantity = unit.AvailableQuantity.Add(quantity)
	if unit.Status == inventory.StockUnitStatusDepleted && unit.AvailableQuantity.GreaterThan(decimal.Zero) {
		unit.Status = inventory.StockUnitStatusUsable
	}
	return nil
}

func (r *memStockRepo) SumAvailableByProduct(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, unit := range r.units {
		if unit.ProductID == productID && unit.IsUsable() {
			total = total.Add(unit.AvailableQuantity)
		}
	}
	return total, nil
}

func (r *memStockRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.units)), nil
}

// memLedgerRepo is an in-memory ConsumptionRecordRepository
type memLedgerRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*inventory.ConsumptionRecord
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{records: make(map[uuid.UUID]*inventory.ConsumptionRecord)}
}

func (r *memLedgerRepo) all() []inventory.ConsumptionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.ConsumptionRecord, 0, len(r.records))
	for _, record := range r.records {
		result = append(result, *record)
	}
	return result
}

func (r *memLedgerRepo) Append(_ context.Context, record *inventory.ConsumptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *memLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.ConsumptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *memLedgerRepo) FindByRequestID(_ context.Context, requestID uuid.UUID) ([]inventory.ConsumptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.ConsumptionRecord, 0)
	for _, record := range r.records {
		if record.RequestID == requestID {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (r *memLedgerRepo) FindByStockUnit(_ context.Context, stockUnitID uuid.UUID) ([]inventory.ConsumptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.ConsumptionRecord, 0)
	for _, record := range r.records {
		if record.StockUnitID == stockUnitID {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (r *memLedgerRepo) FindByProduct(_ context.Context, productID uuid.UUID, from, to time.Time, _ shared.Filter) ([]inventory.ConsumptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.ConsumptionRecord, 0)
	for _, record := range r.records {
		if record.ProductID == productID && !record.ConsumedAt.Before(from) && !record.ConsumedAt.After(to) {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (r *memLedgerRepo) MarkReversed(_ context.Context, record *inventory.ConsumptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[record.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Reversed = record.Reversed
	stored.ReversedBy = record.ReversedBy
	stored.ReversedAt = record.ReversedAt
	return nil
}

// testEnv bundles the fakes behind a no-op transaction scope
type testEnv struct {
	scope       uow.TransactionScope
	orders      *memOrderRepo
	picks       *memPickRequestRepo
	shipments   *memShipmentRepo
	stock       *memStockRepo
	ledger      *memLedgerRepo
	numberer    *stubNumberer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:    newMemOrderRepo(),
		picks:     newMemPickRequestRepo(),
		shipments: newMemShipmentRepo(),
		stock:     newMemStockRepo(),
		ledger:    newMemLedgerRepo(),
		numberer:  newStubNumberer(),
	}
	env.scope = uow.NewNoOpTransactionScope(env.stock, env.ledger, env.orders, env.picks, env.shipments, nil)
	return env
}
