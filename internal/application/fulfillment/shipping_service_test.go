package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/shared"
)

func newShippingService(env *testEnv) *ShippingService {
	return NewShippingService(env.scope, env.numberer, zap.NewNop())
}

// pickAndPack drives an order line's counters so shipping has something to draw from
func pickAndPack(t *testing.T, env *testEnv, orderID, lineID uuid.UUID, quantity int64) {
	t.Helper()
	order := env.orders.get(orderID)
	line := order.GetLine(lineID)
	require.NotNil(t, line)
	require.NoError(t, line.AddPicked(decimal.NewFromInt(quantity)))
	require.NoError(t, line.RecordPacked(decimal.NewFromInt(quantity)))
	env.orders.put(order)
}

func TestShippingService_CreateShipment(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 100, 40)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 60)

	dto, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID:       order.ID,
		FreightAmount: decimal.NewFromFloat(25.00),
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(60)},
		},
	}, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "SH-20240115-0001", dto.ShipmentNumber)
	assert.Equal(t, fulfillment.ShipmentStatusPreparing.String(), dto.Status)
	require.Len(t, dto.Lines, 1)
	assert.True(t, dto.Lines[0].QuantityShipped.Equal(decimal.NewFromInt(60)))

	stored := env.orders.get(order.ID)
	assert.True(t, stored.Lines[0].Shipped.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 1, stored.ShipmentCount)
	assert.Equal(t, fulfillment.OrderStatusPartiallyShipped, stored.Status)
}

func TestShippingService_CreateShipment_BoundedByPacked(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 100)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 50)

	_, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(80)},
		},
	}, uuid.New())

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestShippingService_CreateShipment_DropsZeroLinesRejectsAllZero(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 100, 40)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 60)

	// A zero line alongside a real one is dropped
	dto, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(60)},
			{OrderLineID: order.Lines[1].ID, Quantity: decimal.Zero},
		},
	}, uuid.New())
	require.NoError(t, err)
	assert.Len(t, dto.Lines, 1)

	// All zero is rejected
	_, err = service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[1].ID, Quantity: decimal.Zero},
		},
	}, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestShippingService_CatchUpReachesShipped(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 100, 40)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 100)
	pickAndPack(t, env, order.ID, order.Lines[1].ID, 40)

	// First shipment covers one line fully and half of the other
	_, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(100)},
			{OrderLineID: order.Lines[1].ID, Quantity: decimal.NewFromInt(20)},
		},
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, fulfillment.OrderStatusPartiallyShipped, env.orders.get(order.ID).Status)

	// The second shipment catches the half-shipped line up to full
	_, err = service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[1].ID, Quantity: decimal.NewFromInt(20)},
		},
	}, uuid.New())
	require.NoError(t, err)

	stored := env.orders.get(order.ID)
	assert.Equal(t, fulfillment.OrderStatusShipped, stored.Status)
	assert.Equal(t, 2, stored.ShipmentCount)
}

func TestShippingService_DispatchLifecycle(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 50)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 50)

	created, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(50)},
		},
	}, uuid.New())
	require.NoError(t, err)

	dispatchedAt := time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC)
	deliveredAt := time.Date(2024, 1, 18, 14, 0, 0, 0, time.UTC)

	// Cannot deliver before shipping
	_, err = service.MarkDelivered(context.Background(), created.ID, deliveredAt)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)

	shipped, err := service.MarkShipped(context.Background(), created.ID, dispatchedAt)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.ShipmentStatusShipped.String(), shipped.Status)
	require.NotNil(t, shipped.ShippedAt)
	assert.True(t, shipped.ShippedAt.Equal(dispatchedAt))

	delivered, err := service.MarkDelivered(context.Background(), created.ID, deliveredAt)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.ShipmentStatusDelivered.String(), delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.True(t, delivered.DeliveredAt.Equal(deliveredAt))
}

func TestShippingService_MarkShipped_LastOpenShipmentRefreshesOrderRollup(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 100)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 100)

	first, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(40)},
		},
	}, uuid.New())
	require.NoError(t, err)

	second, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
		OrderID: order.ID,
		Lines: []CreateShipmentLineRequest{
			{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(60)},
		},
	}, uuid.New())
	require.NoError(t, err)

	// Stale rollup: counters are current but status lags behind
	stale := env.orders.get(order.ID)
	stale.Status = fulfillment.OrderStatusPicked
	env.orders.put(stale)

	// Dispatching while another shipment is still open leaves the order alone
	_, err = service.MarkShipped(context.Background(), first.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fulfillment.OrderStatusPicked, env.orders.get(order.ID).Status)

	// Dispatching the last open shipment recomputes the shipping rollup
	_, err = service.MarkShipped(context.Background(), second.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fulfillment.OrderStatusShipped, env.orders.get(order.ID).Status)
}

func TestShippingService_ListByOrder(t *testing.T) {
	env := newTestEnv()
	service := newShippingService(env)

	order := seedOrder(t, env, 100)
	pickAndPack(t, env, order.ID, order.Lines[0].ID, 100)

	for _, qty := range []int64{30, 70} {
		_, err := service.CreateShipment(context.Background(), &CreateShipmentRequest{
			OrderID: order.ID,
			Lines: []CreateShipmentLineRequest{
				{OrderLineID: order.Lines[0].ID, Quantity: decimal.NewFromInt(qty)},
			},
		}, uuid.New())
		require.NoError(t, err)
	}

	shipments, err := service.ListShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, shipments, 2)
}
