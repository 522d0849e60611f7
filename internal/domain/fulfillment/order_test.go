package fulfillment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms/backend/internal/domain/shared/valueobject"
)

func createTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("SO-20240115-0001", uuid.New(), "Acme Foods",
		decimal.NewFromFloat(0.08), 30, time.Now())
	require.NoError(t, err)
	return order
}

func addTestLine(t *testing.T, order *Order, ordered float64) *OrderLine {
	t.Helper()
	line, err := order.AddLine(uuid.New(), "Frozen Peas 1kg",
		decimal.NewFromFloat(ordered), valueobject.NewMoneyUSDFromFloat(4.25))
	require.NoError(t, err)
	return line
}

// pickPackShip walks a quantity through the counters so shipping is possible
func pickPackShip(t *testing.T, line *OrderLine, qty float64) {
	t.Helper()
	d := decimal.NewFromFloat(qty)
	require.NoError(t, line.AddPicked(d))
	require.NoError(t, line.RecordPacked(d))
	require.NoError(t, line.AddShipped(d))
}

func TestNewOrder(t *testing.T) {
	t.Run("creates confirmed order", func(t *testing.T) {
		order := createTestOrder(t)
		assert.Equal(t, OrderStatusConfirmed, order.Status)
		assert.Len(t, order.GetDomainEvents(), 1)
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		_, err := NewOrder("", uuid.New(), "Acme", decimal.Zero, 30, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects negative tax rate", func(t *testing.T) {
		_, err := NewOrder("SO-1", uuid.New(), "Acme", decimal.NewFromFloat(-0.1), 30, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects negative payment terms", func(t *testing.T) {
		_, err := NewOrder("SO-1", uuid.New(), "Acme", decimal.Zero, -1, time.Now())
		assert.Error(t, err)
	})
}

func TestOrderAddLine(t *testing.T) {
	t.Run("adds line with agreed price", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 100)
		assert.True(t, line.Ordered.Equal(decimal.NewFromFloat(100)))
		assert.True(t, line.UnitPrice.Equal(decimal.NewFromFloat(4.25)))
	})

	t.Run("rejects duplicate product", func(t *testing.T) {
		order := createTestOrder(t)
		productID := uuid.New()
		_, err := order.AddLine(productID, "Peas", decimal.NewFromFloat(10), valueobject.ZeroUSD())
		require.NoError(t, err)
		_, err = order.AddLine(productID, "Peas", decimal.NewFromFloat(5), valueobject.ZeroUSD())
		assert.Error(t, err)
	})

	t.Run("rejects lines once fulfillment started", func(t *testing.T) {
		order := createTestOrder(t)
		addTestLine(t, order, 10)
		order.StartPicking()
		_, err := order.AddLine(uuid.New(), "Corn", decimal.NewFromFloat(5), valueobject.ZeroUSD())
		assert.Error(t, err)
	})
}

func TestOrderLineConservation(t *testing.T) {
	t.Run("counters move only forward within bounds", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 100)

		require.NoError(t, line.AddPicked(decimal.NewFromFloat(60)))
		require.NoError(t, line.AddPicked(decimal.NewFromFloat(40)))
		assert.Error(t, line.AddPicked(decimal.NewFromFloat(1)), "over-picking must be rejected")

		require.NoError(t, line.RecordPacked(decimal.NewFromFloat(100)))
		assert.Error(t, line.RecordPacked(decimal.NewFromFloat(1)), "packing beyond picked must be rejected")

		require.NoError(t, line.AddShipped(decimal.NewFromFloat(70)))
		assert.Error(t, line.AddShipped(decimal.NewFromFloat(31)), "over-shipping must be rejected")
		require.NoError(t, line.AddShipped(decimal.NewFromFloat(30)))

		require.NoError(t, line.AddInvoiced(decimal.NewFromFloat(100)))
		assert.Error(t, line.AddInvoiced(decimal.NewFromFloat(1)), "over-invoicing must be rejected")

		require.NoError(t, order.CheckConservation())
	})

	t.Run("rejected increment leaves counter unchanged", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 50)
		require.NoError(t, line.AddPicked(decimal.NewFromFloat(30)))
		require.Error(t, line.AddPicked(decimal.NewFromFloat(25)))
		assert.True(t, line.Picked.Equal(decimal.NewFromFloat(30)))
	})

	t.Run("shipping is bounded by packed, not picked", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 50)
		require.NoError(t, line.AddPicked(decimal.NewFromFloat(50)))
		require.NoError(t, line.RecordPacked(decimal.NewFromFloat(20)))
		assert.Error(t, line.AddShipped(decimal.NewFromFloat(21)))
		require.NoError(t, line.AddShipped(decimal.NewFromFloat(20)))
	})

	t.Run("increments must be positive", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 50)
		assert.Error(t, line.AddPicked(decimal.Zero))
		assert.Error(t, line.AddShipped(decimal.NewFromFloat(-5)))
	})
}

func TestOrderRollupStatus(t *testing.T) {
	t.Run("one full and one half-shipped line rolls up to partially shipped", func(t *testing.T) {
		order := createTestOrder(t)
		lineA := addTestLine(t, order, 10)
		lineB := addTestLine(t, order, 10)

		pickPackShip(t, lineA, 10)
		pickPackShip(t, lineB, 5)
		order.RecordShipmentCreated()
		order.RecomputeStatus(StageShipping)

		assert.Equal(t, OrderStatusPartiallyShipped, order.Status)
	})

	t.Run("catching up the second line rolls up to shipped", func(t *testing.T) {
		order := createTestOrder(t)
		lineA := addTestLine(t, order, 10)
		lineB := addTestLine(t, order, 10)

		pickPackShip(t, lineA, 10)
		pickPackShip(t, lineB, 5)
		order.RecordShipmentCreated()
		order.RecomputeStatus(StageShipping)
		require.Equal(t, OrderStatusPartiallyShipped, order.Status)

		pickPackShip(t, lineB, 5)
		order.RecordShipmentCreated()
		order.RecomputeStatus(StageShipping)

		assert.Equal(t, OrderStatusShipped, order.Status)
	})

	t.Run("line done plus line untouched is still partial", func(t *testing.T) {
		order := createTestOrder(t)
		lineA := addTestLine(t, order, 10)
		addTestLine(t, order, 10)

		pickPackShip(t, lineA, 10)
		order.RecordShipmentCreated()
		order.RecomputeStatus(StageShipping)

		assert.Equal(t, OrderStatusPartiallyShipped, order.Status)
	})

	t.Run("untouched stage leaves status unchanged", func(t *testing.T) {
		order := createTestOrder(t)
		addTestLine(t, order, 10)
		order.StartPicking()
		order.RecomputeStatus(StageShipping)
		assert.Equal(t, OrderStatusPicking, order.Status)
	})

	t.Run("picking stage rollup", func(t *testing.T) {
		order := createTestOrder(t)
		lineA := addTestLine(t, order, 10)
		lineB := addTestLine(t, order, 10)
		order.StartPicking()

		require.NoError(t, lineA.AddPicked(decimal.NewFromFloat(10)))
		require.NoError(t, lineB.AddPicked(decimal.NewFromFloat(4)))
		order.RecomputeStatus(StagePicking)
		assert.Equal(t, OrderStatusPartiallyPicked, order.Status)

		require.NoError(t, lineB.AddPicked(decimal.NewFromFloat(6)))
		order.RecomputeStatus(StagePicking)
		assert.Equal(t, OrderStatusPicked, order.Status)
	})

	t.Run("invoicing stage rollup", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 10)
		pickPackShip(t, line, 10)

		require.NoError(t, line.AddInvoiced(decimal.NewFromFloat(10)))
		order.RecordInvoiceCreated()
		order.RecomputeStatus(StageInvoicing)
		assert.Equal(t, OrderStatusInvoiced, order.Status)
	})
}

func TestOrderComplete(t *testing.T) {
	t.Run("completes a fully invoiced order", func(t *testing.T) {
		order := createTestOrder(t)
		line := addTestLine(t, order, 10)
		pickPackShip(t, line, 10)
		require.NoError(t, line.AddInvoiced(decimal.NewFromFloat(10)))
		order.RecordInvoiceCreated()
		order.RecomputeStatus(StageInvoicing)

		require.NoError(t, order.Complete(time.Now()))
		assert.Equal(t, OrderStatusCompleted, order.Status)
		assert.NotNil(t, order.CompletedAt)
	})

	t.Run("cannot complete before invoicing", func(t *testing.T) {
		order := createTestOrder(t)
		addTestLine(t, order, 10)
		assert.Error(t, order.Complete(time.Now()))
	})
}
