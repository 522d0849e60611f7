package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockUnit(t *testing.T) {
	t.Run("creates usable unit", func(t *testing.T) {
		unit, err := NewStockUnit(uuid.New(), uuid.New(), "LOT-001", nil, time.Now(), decimal.NewFromFloat(50))
		require.NoError(t, err)
		assert.Equal(t, StockUnitStatusUsable, unit.Status)
		assert.True(t, unit.IsUsable())
	})

	t.Run("rejects empty lot number", func(t *testing.T) {
		_, err := NewStockUnit(uuid.New(), uuid.New(), "", nil, time.Now(), decimal.NewFromFloat(50))
		assert.Error(t, err)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewStockUnit(uuid.New(), uuid.New(), "LOT-001", nil, time.Now(), decimal.NewFromFloat(-1))
		assert.Error(t, err)
	})
}

func TestStockUnitIsExpired(t *testing.T) {
	now := time.Now()

	t.Run("nil expiry never expires", func(t *testing.T) {
		unit := createTestUnit("L001", 10, nil)
		assert.False(t, unit.IsExpired(now))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		unit := createTestUnit("L001", 10, timePtr(now.AddDate(0, 0, -1)))
		assert.True(t, unit.IsExpired(now))
	})

	t.Run("future expiry is not expired", func(t *testing.T) {
		unit := createTestUnit("L001", 10, timePtr(now.AddDate(0, 0, 1)))
		assert.False(t, unit.IsExpired(now))
	})
}

func TestStockUnitDeduct(t *testing.T) {
	t.Run("deducts exactly the requested quantity", func(t *testing.T) {
		unit := createTestUnit("L001", 100, nil)
		err := unit.Deduct(decimal.NewFromFloat(40))
		require.NoError(t, err)
		assert.True(t, unit.AvailableQuantity.Equal(decimal.NewFromFloat(60)))
		assert.Equal(t, StockUnitStatusUsable, unit.Status)
	})

	t.Run("exact deduction depletes the unit", func(t *testing.T) {
		unit := createTestUnit("L001", 40, nil)
		err := unit.Deduct(decimal.NewFromFloat(40))
		require.NoError(t, err)
		assert.True(t, unit.AvailableQuantity.IsZero())
		assert.Equal(t, StockUnitStatusDepleted, unit.Status)
	})

	t.Run("over-deduction returns InsufficientStockError without mutation", func(t *testing.T) {
		unit := createTestUnit("L001", 30, nil)
		err := unit.Deduct(decimal.NewFromFloat(31))
		require.Error(t, err)

		var insufficientErr *InsufficientStockError
		require.True(t, errors.As(err, &insufficientErr))
		assert.Equal(t, unit.ID, insufficientErr.StockUnitID)
		assert.True(t, insufficientErr.Requested.Equal(decimal.NewFromFloat(31)))
		assert.True(t, insufficientErr.Available.Equal(decimal.NewFromFloat(30)))
		assert.True(t, unit.AvailableQuantity.Equal(decimal.NewFromFloat(30)))
	})

	t.Run("quarantined unit cannot be deducted", func(t *testing.T) {
		unit := createTestUnit("L001", 30, nil)
		require.NoError(t, unit.Quarantine())
		err := unit.Deduct(decimal.NewFromFloat(10))
		assert.Error(t, err)
	})
}

func TestStockUnitRestore(t *testing.T) {
	t.Run("restore revives a depleted unit", func(t *testing.T) {
		unit := createTestUnit("L001", 10, nil)
		require.NoError(t, unit.Deduct(decimal.NewFromFloat(10)))
		assert.Equal(t, StockUnitStatusDepleted, unit.Status)

		require.NoError(t, unit.Restore(decimal.NewFromFloat(10)))
		assert.Equal(t, StockUnitStatusUsable, unit.Status)
		assert.True(t, unit.AvailableQuantity.Equal(decimal.NewFromFloat(10)))
	})

	t.Run("rejects negative restore", func(t *testing.T) {
		unit := createTestUnit("L001", 10, nil)
		assert.Error(t, unit.Restore(decimal.NewFromFloat(-5)))
	})
}

func TestStockUnitQuarantine(t *testing.T) {
	t.Run("quarantine and release", func(t *testing.T) {
		unit := createTestUnit("L001", 10, nil)
		require.NoError(t, unit.Quarantine())
		assert.False(t, unit.IsUsable())

		require.NoError(t, unit.ReleaseQuarantine())
		assert.True(t, unit.IsUsable())
	})

	t.Run("cannot quarantine a depleted unit", func(t *testing.T) {
		unit := createTestUnit("L001", 10, nil)
		require.NoError(t, unit.Deduct(decimal.NewFromFloat(10)))
		assert.Error(t, unit.Quarantine())
	})

	t.Run("releasing an empty quarantined unit marks it depleted", func(t *testing.T) {
		unit := createTestUnit("L001", 10, nil)
		require.NoError(t, unit.Quarantine())
		unit.AvailableQuantity = decimal.Zero
		require.NoError(t, unit.ReleaseQuarantine())
		assert.Equal(t, StockUnitStatusDepleted, unit.Status)
	})
}

func TestConsumptionRecord(t *testing.T) {
	t.Run("creates record for positive quantity", func(t *testing.T) {
		record, err := NewConsumptionRecord(
			uuid.New(), uuid.New(),
			decimal.NewFromFloat(5),
			uuid.New(), RequestTypePick,
			uuid.New(), time.Now(),
		)
		require.NoError(t, err)
		assert.False(t, record.Reversed)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewConsumptionRecord(
			uuid.New(), uuid.New(),
			decimal.Zero,
			uuid.New(), RequestTypePick,
			uuid.New(), time.Now(),
		)
		assert.Error(t, err)
	})

	t.Run("rejects invalid request type", func(t *testing.T) {
		_, err := NewConsumptionRecord(
			uuid.New(), uuid.New(),
			decimal.NewFromFloat(5),
			uuid.New(), RequestType("BOGUS"),
			uuid.New(), time.Now(),
		)
		assert.Error(t, err)
	})

	t.Run("reversal is recorded once and only once", func(t *testing.T) {
		record, err := NewConsumptionRecord(
			uuid.New(), uuid.New(),
			decimal.NewFromFloat(5),
			uuid.New(), RequestTypePick,
			uuid.New(), time.Now(),
		)
		require.NoError(t, err)

		actor := uuid.New()
		require.NoError(t, record.Reverse(actor, time.Now()))
		assert.True(t, record.Reversed)
		require.NotNil(t, record.ReversedBy)
		assert.Equal(t, actor, *record.ReversedBy)

		assert.Error(t, record.Reverse(actor, time.Now()))
	})
}
