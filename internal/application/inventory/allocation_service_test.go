package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

func TestAllocationService_Allocate_FEFOOrder(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())
	publisher := NewMockEventPublisher()
	service.SetEventPublisher(publisher)

	productID := uuid.New()
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	january := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	unitMarch := newTestUnit(t, productID, "L-MAR", &march, 50)
	unitJanuary := newTestUnit(t, productID, "L-JAN", &january, 50)
	unitNever := newTestUnit(t, productID, "L-NEVER", nil, 50)
	stockRepo.put(unitMarch)
	stockRepo.put(unitJanuary)
	stockRepo.put(unitNever)

	requestID := uuid.New()
	result, err := service.Allocate(context.Background(), productID, decimal.NewFromInt(80), requestID, uuid.New(), time.Now())

	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, "L-JAN", result.Lines[0].LotNumber)
	assert.True(t, result.Lines[0].Quantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.Lines[0].FullyConsumed)
	assert.Equal(t, "L-MAR", result.Lines[1].LotNumber)
	assert.True(t, result.Lines[1].Quantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, result.TotalAllocated.Equal(decimal.NewFromInt(80)))
	require.Len(t, result.Records, 2)

	// Ledger and units reflect the applied plan
	assert.True(t, stockRepo.get(unitJanuary.ID).AvailableQuantity.IsZero())
	assert.Equal(t, inventory.StockUnitStatusDepleted, stockRepo.get(unitJanuary.ID).Status)
	assert.True(t, stockRepo.get(unitMarch.ID).AvailableQuantity.Equal(decimal.NewFromInt(20)))
	assert.True(t, stockRepo.get(unitNever.ID).AvailableQuantity.Equal(decimal.NewFromInt(50)))
	assert.Len(t, consumptionRepo.all(), 2)
	assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockReserved), 2)
}

func TestAllocationService_Allocate_ZeroQuantity(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	result, err := service.Allocate(context.Background(), uuid.New(), decimal.Zero, uuid.New(), uuid.New(), time.Now())

	require.NoError(t, err)
	assert.Empty(t, result.Lines)
	assert.Empty(t, result.Records)
	assert.True(t, result.TotalAllocated.IsZero())
}

func TestAllocationService_Allocate_RejectsNegativeQuantity(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	_, err := service.Allocate(context.Background(), uuid.New(), decimal.NewFromInt(-5), uuid.New(), uuid.New(), time.Now())

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestAllocationService_Allocate_ShortfallIsAllOrNothing(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	productID := uuid.New()
	unitA := newTestUnit(t, productID, "L-A", nil, 60)
	unitB := newTestUnit(t, productID, "L-B", nil, 40)
	stockRepo.put(unitA)
	stockRepo.put(unitB)

	_, err := service.Allocate(context.Background(), productID, decimal.NewFromInt(150), uuid.New(), uuid.New(), time.Now())

	var allocErr *inventory.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.True(t, allocErr.Requested.Equal(decimal.NewFromInt(150)))
	assert.True(t, allocErr.Shortfall.Equal(decimal.NewFromInt(50)))

	// Nothing was reserved and nothing hit the ledger
	assert.True(t, stockRepo.get(unitA.ID).AvailableQuantity.Equal(decimal.NewFromInt(60)))
	assert.True(t, stockRepo.get(unitB.ID).AvailableQuantity.Equal(decimal.NewFromInt(40)))
	assert.Empty(t, consumptionRepo.all())
}

func TestAllocationService_Allocate_CompensatesOnMidApplyRace(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	productID := uuid.New()
	january := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	unitFirst := newTestUnit(t, productID, "L-JAN", &january, 50)
	unitSecond := newTestUnit(t, productID, "L-MAR", &march, 50)
	unitThird := newTestUnit(t, productID, "L-NEVER", nil, 50)
	stockRepo.put(unitFirst)
	stockRepo.put(unitSecond)
	stockRepo.put(unitThird)

	// Simulate a concurrent allocator winning the second unit between
	// planning and applying
	stockRepo.failReserveOn[unitSecond.ID] = true

	_, err := service.Allocate(context.Background(), productID, decimal.NewFromInt(120), uuid.New(), uuid.New(), time.Now())

	var allocErr *inventory.AllocationError
	require.ErrorAs(t, err, &allocErr)

	// The shortfall covers everything unapplied: the raced unit's 50 plus
	// the 20 planned on the third unit
	assert.True(t, allocErr.Requested.Equal(decimal.NewFromInt(120)))
	assert.True(t, allocErr.Shortfall.Equal(decimal.NewFromInt(70)),
		"shortfall %s", allocErr.Shortfall)

	// The reservation on the first unit was compensated
	assert.True(t, stockRepo.get(unitFirst.ID).AvailableQuantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, stockRepo.get(unitThird.ID).AvailableQuantity.Equal(decimal.NewFromInt(50)))
	for _, record := range consumptionRepo.all() {
		assert.True(t, record.Reversed)
	}
}

func TestAllocationService_Allocate_ConcurrentCallersOneWins(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	productID := uuid.New()
	unit := newTestUnit(t, productID, "L-A", nil, 10)
	stockRepo.put(unit)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := service.Allocate(context.Background(), productID, decimal.NewFromInt(6), uuid.New(), uuid.New(), time.Now())
			results[idx] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of two concurrent allocations of 6 against 10 must win")

	// The winner holds 6, the loser left no partial reservation behind
	remaining := stockRepo.get(unit.ID).AvailableQuantity
	assert.True(t, remaining.Equal(decimal.NewFromInt(4)), "remaining quantity should be 4, got %s", remaining)
	active := 0
	for _, record := range consumptionRepo.all() {
		if !record.Reversed {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestAllocationService_Preview_DoesNotMutate(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	productID := uuid.New()
	unit := newTestUnit(t, productID, "L-A", nil, 100)
	stockRepo.put(unit)

	plan, err := service.Preview(context.Background(), productID, decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.False(t, plan.FullyFulfilled)
	assert.True(t, plan.Shortfall.Equal(decimal.NewFromInt(150)))

	assert.True(t, stockRepo.get(unit.ID).AvailableQuantity.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, consumptionRepo.all())
}

func TestAllocationService_ReleaseByRequest(t *testing.T) {
	stockRepo := newMemStockUnitRepo()
	consumptionRepo := newMemConsumptionRepo()
	service := NewAllocationService(newTestScope(stockRepo, consumptionRepo), zap.NewNop())

	productID := uuid.New()
	unitA := newTestUnit(t, productID, "L-A", nil, 50)
	unitB := newTestUnit(t, productID, "L-B", nil, 50)
	stockRepo.put(unitA)
	stockRepo.put(unitB)

	requestID := uuid.New()
	actor := uuid.New()
	_, err := service.Allocate(context.Background(), productID, decimal.NewFromInt(80), requestID, actor, time.Now())
	require.NoError(t, err)

	released, err := service.ReleaseByRequest(context.Background(), requestID, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	assert.True(t, stockRepo.get(unitA.ID).AvailableQuantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, stockRepo.get(unitB.ID).AvailableQuantity.Equal(decimal.NewFromInt(50)))

	// Releasing again is a no-op, records stay reversed in place
	released, err = service.ReleaseByRequest(context.Background(), requestID, actor)
	require.NoError(t, err)
	assert.Equal(t, 0, released)
	assert.Len(t, consumptionRepo.all(), 2)
}
