package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms/backend/internal/domain/shared/valueobject"
)

func createTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	invoice, err := NewInvoice(
		"INV-20240115-0001",
		uuid.New(), uuid.New(), uuid.New(),
		"Acme Foods",
		[]InvoiceLineSpec{
			{
				OrderLineID: uuid.New(),
				ProductID:   uuid.New(),
				ProductName: "Frozen Peas 1kg",
				Quantity:    decimal.NewFromFloat(100),
				UnitPrice:   valueobject.NewMoneyUSDFromFloat(4.25),
			},
			{
				OrderLineID: uuid.New(),
				ProductID:   uuid.New(),
				ProductName: "Sweet Corn 500g",
				Quantity:    decimal.NewFromFloat(40),
				UnitPrice:   valueobject.NewMoneyUSDFromFloat(2.10),
			},
		},
		decimal.NewFromFloat(0.08),
		decimal.NewFromFloat(30),
		30,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return invoice
}

func TestNewInvoice(t *testing.T) {
	t.Run("computes financial totals", func(t *testing.T) {
		invoice := createTestInvoice(t)

		// 100*4.25 + 40*2.10 = 425 + 84 = 509
		assert.True(t, invoice.Subtotal.Equal(decimal.NewFromFloat(509)))
		// 509 * 0.08 = 40.72
		assert.True(t, invoice.TaxAmount.Equal(decimal.NewFromFloat(40.72)))
		assert.True(t, invoice.FreightAmount.Equal(decimal.NewFromFloat(30)))
		// 509 + 40.72 + 30 = 579.72
		assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromFloat(579.72)))
		assert.True(t, invoice.BalanceDue.Equal(invoice.TotalAmount))
		assert.Equal(t, PaymentStatusUnpaid, invoice.PaymentStatus)
	})

	t.Run("due date is invoice date plus payment terms", func(t *testing.T) {
		invoice := createTestInvoice(t)
		assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), invoice.DueDate)
	})

	t.Run("rejects empty lines", func(t *testing.T) {
		_, err := NewInvoice("INV-1", uuid.New(), uuid.New(), uuid.New(), "Acme",
			nil, decimal.Zero, decimal.Zero, 30, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects non-positive line quantity", func(t *testing.T) {
		_, err := NewInvoice("INV-1", uuid.New(), uuid.New(), uuid.New(), "Acme",
			[]InvoiceLineSpec{{
				OrderLineID: uuid.New(),
				ProductID:   uuid.New(),
				Quantity:    decimal.Zero,
				UnitPrice:   valueobject.ZeroUSD(),
			}},
			decimal.Zero, decimal.Zero, 30, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects negative tax rate and freight", func(t *testing.T) {
		specs := []InvoiceLineSpec{{
			OrderLineID: uuid.New(),
			ProductID:   uuid.New(),
			Quantity:    decimal.NewFromFloat(1),
			UnitPrice:   valueobject.ZeroUSD(),
		}}
		_, err := NewInvoice("INV-1", uuid.New(), uuid.New(), uuid.New(), "Acme",
			specs, decimal.NewFromFloat(-0.1), decimal.Zero, 30, time.Now())
		assert.Error(t, err)
		_, err = NewInvoice("INV-1", uuid.New(), uuid.New(), uuid.New(), "Acme",
			specs, decimal.Zero, decimal.NewFromFloat(-5), 30, time.Now())
		assert.Error(t, err)
	})
}

func TestInvoiceRecordPayment(t *testing.T) {
	t.Run("partial payment moves to partially paid", func(t *testing.T) {
		invoice := createTestInvoice(t)
		err := invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(100), time.Now())
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPartiallyPaid, invoice.PaymentStatus)
		assert.True(t, invoice.BalanceDue.Equal(decimal.NewFromFloat(479.72)))
		assert.Nil(t, invoice.PaidAt)
	})

	t.Run("full payment moves to paid", func(t *testing.T) {
		invoice := createTestInvoice(t)
		require.NoError(t, invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(100), time.Now()))
		require.NoError(t, invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(479.72), time.Now()))
		assert.Equal(t, PaymentStatusPaid, invoice.PaymentStatus)
		assert.True(t, invoice.BalanceDue.IsZero())
		assert.NotNil(t, invoice.PaidAt)
	})

	t.Run("rejects overpayment", func(t *testing.T) {
		invoice := createTestInvoice(t)
		err := invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(600), time.Now())
		assert.Error(t, err)
		assert.Equal(t, PaymentStatusUnpaid, invoice.PaymentStatus)
	})

	t.Run("rejects payment on a paid invoice", func(t *testing.T) {
		invoice := createTestInvoice(t)
		require.NoError(t, invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(579.72), time.Now()))
		err := invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(1), time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects non-positive payment", func(t *testing.T) {
		invoice := createTestInvoice(t)
		assert.Error(t, invoice.RecordPayment(valueobject.ZeroUSD(), time.Now()))
	})
}

func TestInvoiceIsOverdue(t *testing.T) {
	invoice := createTestInvoice(t)

	t.Run("not overdue before due date", func(t *testing.T) {
		assert.False(t, invoice.IsOverdue(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("overdue past due date with balance outstanding", func(t *testing.T) {
		assert.True(t, invoice.IsOverdue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("never overdue once paid", func(t *testing.T) {
		require.NoError(t, invoice.RecordPayment(valueobject.NewMoneyUSDFromFloat(579.72), time.Now()))
		assert.False(t, invoice.IsOverdue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	})
}

func TestInvoiceNotificationCounters(t *testing.T) {
	t.Run("email counter increments, never overwrites", func(t *testing.T) {
		invoice := createTestInvoice(t)
		first := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
		second := time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)

		invoice.RecordEmailSent(first)
		invoice.RecordEmailSent(second)

		assert.Equal(t, 2, invoice.EmailCount)
		require.NotNil(t, invoice.LastEmailedAt)
		assert.Equal(t, second, *invoice.LastEmailedAt)
	})

	t.Run("print counter increments", func(t *testing.T) {
		invoice := createTestInvoice(t)
		invoice.RecordPrinted(time.Now())
		invoice.RecordPrinted(time.Now())
		invoice.RecordPrinted(time.Now())
		assert.Equal(t, 3, invoice.PrintCount)
	})
}

func TestPriceListEntryAppliesTo(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	entry := PriceListEntry{
		ProductID:   uuid.New(),
		MinQuantity: decimal.NewFromFloat(10),
		UnitPrice:   decimal.NewFromFloat(3.99),
		ValidFrom:   from,
		ValidTo:     &to,
	}

	t.Run("applies within window and tier", func(t *testing.T) {
		assert.True(t, entry.AppliesTo(decimal.NewFromFloat(50), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("below quantity tier", func(t *testing.T) {
		assert.False(t, entry.AppliesTo(decimal.NewFromFloat(5), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("outside date window", func(t *testing.T) {
		assert.False(t, entry.AppliesTo(decimal.NewFromFloat(50), time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)))
		assert.False(t, entry.AppliesTo(decimal.NewFromFloat(50), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("open-ended entry has no end date", func(t *testing.T) {
		open := PriceListEntry{ProductID: uuid.New(), UnitPrice: decimal.NewFromFloat(1), ValidFrom: from}
		assert.True(t, open.AppliesTo(decimal.NewFromFloat(1), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	})
}
