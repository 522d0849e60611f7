package billing

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

	"github.com/wms/backend/internal/domain/billing"
	"github.com/wms/backend/internal/domain/shared"
)

// memPriceListRepo is an in-memory PriceListRepository
type memPriceListRepo struct {
	mu      sync.Mutex
	entries []billing.PriceListEntry
}

func (r *memPriceListRepo) FindCandidates(_ context.Context, customerID, productID uuid.UUID, asOf time.Time) ([]billing.PriceListEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]billing.PriceListEntry, 0)
	for _, entry := range r.entries {
		if entry.ProductID != productID {
			continue
		}
		if entry.CustomerID != nil && *entry.CustomerID != customerID {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (r *memPriceListRepo) Save(_ context.Context, entry *billing.PriceListEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func addEntry(t *testing.T, service *PriceListService, customerID *uuid.UUID, productID uuid.UUID, minQty int64, price float64) {
	t.Helper()
	err := service.AddEntry(context.Background(), &billing.PriceListEntry{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		ProductID:   productID,
		MinQuantity: decimal.NewFromInt(minQty),
		UnitPrice:   decimal.NewFromFloat(price),
		ValidFrom:   time.Now().Add(-30 * 24 * time.Hour),
	})
	require.NoError(t, err)
}

func TestPriceListService_CustomerSpecificBeatsBase(t *testing.T) {
	repo := &memPriceListRepo{}
	service := NewPriceListService(repo, zap.NewNop())

	customerID := uuid.New()
	productID := uuid.New()
	addEntry(t, service, nil, productID, 0, 5.00)
	addEntry(t, service, &customerID, productID, 0, 4.25)

	price, err := service.PriceFor(context.Background(), customerID, productID, decimal.NewFromInt(10), time.Now())

	require.NoError(t, err)
	assert.True(t, price.Amount().Equal(decimal.NewFromFloat(4.25)))
}

func TestPriceListService_HigherTierWins(t *testing.T) {
	repo := &memPriceListRepo{}
	service := NewPriceListService(repo, zap.NewNop())

	productID := uuid.New()
	addEntry(t, service, nil, productID, 0, 5.00)
	addEntry(t, service, nil, productID, 100, 4.10)

	small, err := service.PriceFor(context.Background(), uuid.New(), productID, decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)
	assert.True(t, small.Amount().Equal(decimal.NewFromFloat(5.00)))

	bulk, err := service.PriceFor(context.Background(), uuid.New(), productID, decimal.NewFromInt(150), time.Now())
	require.NoError(t, err)
	assert.True(t, bulk.Amount().Equal(decimal.NewFromFloat(4.10)))
}

func TestPriceListService_NoCoverage(t *testing.T) {
	repo := &memPriceListRepo{}
	service := NewPriceListService(repo, zap.NewNop())

	_, err := service.PriceFor(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(10), time.Now())

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestPriceListService_ExpiredWindowExcluded(t *testing.T) {
	repo := &memPriceListRepo{}
	service := NewPriceListService(repo, zap.NewNop())

	productID := uuid.New()
	ended := time.Now().Add(-24 * time.Hour)
	err := service.AddEntry(context.Background(), &billing.PriceListEntry{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		MinQuantity: decimal.Zero,
		UnitPrice:   decimal.NewFromFloat(3.99),
		ValidFrom:   time.Now().Add(-60 * 24 * time.Hour),
		ValidTo:     &ended,
	})
	require.NoError(t, err)

	_, err = service.PriceFor(context.Background(), uuid.New(), productID, decimal.NewFromInt(10), time.Now())
	assert.Error(t, err)
}

func TestPriceListService_AddEntry_Validation(t *testing.T) {
	repo := &memPriceListRepo{}
	service := NewPriceListService(repo, zap.NewNop())

	before := time.Now().Add(-time.Hour)
	err := service.AddEntry(context.Background(), &billing.PriceListEntry{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  uuid.New(),
		UnitPrice:  decimal.NewFromFloat(1.00),
		ValidFrom:  time.Now(),
		ValidTo:    &before,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}
