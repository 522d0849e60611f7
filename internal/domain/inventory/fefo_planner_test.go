package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUnit(lotNumber string, quantity float64, expiry *time.Time) StockUnit {
	unit, err := NewStockUnit(
		uuid.New(), uuid.New(),
		lotNumber, expiry, time.Now(),
		decimal.NewFromFloat(quantity),
	)
	if err != nil {
		panic(err)
	}
	return *unit
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestPlanAllocation(t *testing.T) {
	productID := uuid.New()

	t.Run("zero quantity returns empty plan, not an error", func(t *testing.T) {
		units := []StockUnit{createTestUnit("L001", 100, nil)}
		plan, err := PlanAllocation(productID, decimal.Zero, units)
		require.NoError(t, err)
		assert.Empty(t, plan.Lines)
		assert.True(t, plan.TotalPlanned.IsZero())
		assert.True(t, plan.FullyFulfilled)
	})

	t.Run("negative quantity returns error", func(t *testing.T) {
		_, err := PlanAllocation(productID, decimal.NewFromFloat(-5), nil)
		assert.Error(t, err)
	})

	t.Run("single unit covers the request", func(t *testing.T) {
		units := []StockUnit{createTestUnit("L001", 100, nil)}
		plan, err := PlanAllocation(productID, decimal.NewFromFloat(40), units)
		require.NoError(t, err)
		require.Len(t, plan.Lines, 1)
		assert.Equal(t, "L001", plan.Lines[0].LotNumber)
		assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromFloat(40)))
		assert.True(t, plan.Lines[0].RemainingInUnit.Equal(decimal.NewFromFloat(60)))
		assert.False(t, plan.Lines[0].FullyConsumed)
		assert.True(t, plan.FullyFulfilled)
	})

	t.Run("earliest expiry is consumed first, nil expiry last", func(t *testing.T) {
		march := timePtr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		january := timePtr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

		units := []StockUnit{
			createTestUnit("L-MAR", 50, march),
			createTestUnit("L-JAN", 50, january),
			createTestUnit("L-NEVER", 50, nil),
		}

		plan, err := PlanAllocation(productID, decimal.NewFromFloat(80), units)
		require.NoError(t, err)
		require.Len(t, plan.Lines, 2)
		assert.Equal(t, "L-JAN", plan.Lines[0].LotNumber)
		assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromFloat(50)))
		assert.True(t, plan.Lines[0].FullyConsumed)
		assert.Equal(t, "L-MAR", plan.Lines[1].LotNumber)
		assert.True(t, plan.Lines[1].Quantity.Equal(decimal.NewFromFloat(30)))
		assert.True(t, plan.FullyFulfilled)
	})

	t.Run("nil expiry unit is used only when dated lots are exhausted", func(t *testing.T) {
		january := timePtr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		units := []StockUnit{
			createTestUnit("L-NEVER", 100, nil),
			createTestUnit("L-JAN", 30, january),
		}

		plan, err := PlanAllocation(productID, decimal.NewFromFloat(50), units)
		require.NoError(t, err)
		require.Len(t, plan.Lines, 2)
		assert.Equal(t, "L-JAN", plan.Lines[0].LotNumber)
		assert.Equal(t, "L-NEVER", plan.Lines[1].LotNumber)
		assert.True(t, plan.Lines[1].Quantity.Equal(decimal.NewFromFloat(20)))
	})

	t.Run("exact match fully consumes the unit", func(t *testing.T) {
		units := []StockUnit{createTestUnit("L001", 25, nil)}
		plan, err := PlanAllocation(productID, decimal.NewFromFloat(25), units)
		require.NoError(t, err)
		require.Len(t, plan.Lines, 1)
		assert.True(t, plan.Lines[0].FullyConsumed)
		assert.True(t, plan.Lines[0].RemainingInUnit.IsZero())
		assert.True(t, plan.FullyFulfilled)
	})

	t.Run("shortfall is reported when candidates run out", func(t *testing.T) {
		units := []StockUnit{
			createTestUnit("L001", 60, nil),
			createTestUnit("L002", 40, nil),
		}
		plan, err := PlanAllocation(productID, decimal.NewFromFloat(150), units)
		require.NoError(t, err)
		assert.True(t, plan.TotalPlanned.Equal(decimal.NewFromFloat(100)))
		assert.True(t, plan.Shortfall.Equal(decimal.NewFromFloat(50)))
		assert.False(t, plan.FullyFulfilled)
	})

	t.Run("quarantined and depleted units are skipped", func(t *testing.T) {
		quarantined := createTestUnit("L-QUAR", 100, nil)
		require.NoError(t, quarantined.Quarantine())
		empty := createTestUnit("L-EMPTY", 0, nil)
		usable := createTestUnit("L-OK", 30, nil)

		plan, err := PlanAllocation(productID, decimal.NewFromFloat(30), []StockUnit{quarantined, empty, usable})
		require.NoError(t, err)
		require.Len(t, plan.Lines, 1)
		assert.Equal(t, "L-OK", plan.Lines[0].LotNumber)
	})

	t.Run("no candidates leaves full shortfall", func(t *testing.T) {
		plan, err := PlanAllocation(productID, decimal.NewFromFloat(10), nil)
		require.NoError(t, err)
		assert.Empty(t, plan.Lines)
		assert.True(t, plan.Shortfall.Equal(decimal.NewFromFloat(10)))
		assert.False(t, plan.FullyFulfilled)
	})
}

func TestSortFEFO(t *testing.T) {
	t.Run("ties on expiry break by receipt time", func(t *testing.T) {
		expiry := timePtr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		older := createTestUnit("L-OLDER", 10, expiry)
		older.ReceivedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := createTestUnit("L-NEWER", 10, expiry)
		newer.ReceivedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		sorted := SortFEFO([]StockUnit{newer, older})
		assert.Equal(t, "L-OLDER", sorted[0].LotNumber)
		assert.Equal(t, "L-NEWER", sorted[1].LotNumber)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		january := timePtr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		units := []StockUnit{
			createTestUnit("L-NEVER", 10, nil),
			createTestUnit("L-JAN", 10, january),
		}
		_ = SortFEFO(units)
		assert.Equal(t, "L-NEVER", units[0].LotNumber)
	})
}

func TestTotalAvailable(t *testing.T) {
	quarantined := createTestUnit("L-QUAR", 100, nil)
	require.NoError(t, quarantined.Quarantine())
	units := []StockUnit{
		createTestUnit("L001", 60, nil),
		createTestUnit("L002", 40, nil),
		quarantined,
	}
	assert.True(t, TotalAvailable(units).Equal(decimal.NewFromFloat(100)))
}
