package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// AllocationLine is one planned deduction against one stock unit
type AllocationLine struct {
	StockUnitID     uuid.UUID       // Unit to deduct from
	LotNumber       string          // Lot number for display and traceability
	LotExpiry       *time.Time      // Expiry of the lot, nil if it never expires
	Quantity        decimal.Decimal // Quantity to deduct
	RemainingInUnit decimal.Decimal // Quantity left on the unit after deduction
	FullyConsumed   bool            // True if the unit is depleted by this line
}

// AllocationPlan is the complete result of planning an allocation in FEFO order
type AllocationPlan struct {
	ProductID      uuid.UUID
	Lines          []AllocationLine
	TotalPlanned   decimal.Decimal
	Shortfall      decimal.Decimal // Quantity that could not be covered
	FullyFulfilled bool
}

// EmptyPlan returns a plan with no lines, used for zero-quantity requests
func EmptyPlan(productID uuid.UUID) *AllocationPlan {
	return &AllocationPlan{
		ProductID:      productID,
		Lines:          make([]AllocationLine, 0),
		TotalPlanned:   decimal.Zero,
		Shortfall:      decimal.Zero,
		FullyFulfilled: true,
	}
}

// SortFEFO orders stock units for allocation: earliest lot expiry first, units
// without an expiry last (they never expire, so they are picked last to
// preserve rotation discipline), ties broken by receipt time then creation time.
func SortFEFO(units []StockUnit) []StockUnit {
	sorted := make([]StockUnit, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LotExpiry != nil && sorted[j].LotExpiry != nil {
			if !sorted[i].LotExpiry.Equal(*sorted[j].LotExpiry) {
				return sorted[i].LotExpiry.Before(*sorted[j].LotExpiry)
			}
		} else if sorted[i].LotExpiry != nil {
			return true
		} else if sorted[j].LotExpiry != nil {
			return false
		}
		if !sorted[i].ReceivedAt.Equal(sorted[j].ReceivedAt) {
			return sorted[i].ReceivedAt.Before(sorted[j].ReceivedAt)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// PlanAllocation walks candidate units in FEFO order, taking
// min(remaining, unit.AvailableQuantity) from each until the requested
// quantity is covered or the candidates run out. The plan is pure
// computation; applying it against the ledger is the allocation service's
// concern.
//
// A zero request returns an empty plan, not an error. A plan with a
// shortfall is still returned so the caller can report requested versus
// available.
func PlanAllocation(productID uuid.UUID, requested decimal.Decimal, units []StockUnit) (*AllocationPlan, error) {
	if requested.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Requested quantity cannot be negative")
	}
	if requested.IsZero() {
		return EmptyPlan(productID), nil
	}

	usable := make([]StockUnit, 0, len(units))
	for _, u := range units {
		if u.IsUsable() {
			usable = append(usable, u)
		}
	}
	sorted := SortFEFO(usable)

	lines := make([]AllocationLine, 0, len(sorted))
	remaining := requested
	total := decimal.Zero

	for _, unit := range sorted {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, unit.AvailableQuantity)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		remainingInUnit := unit.AvailableQuantity.Sub(take)
		lines = append(lines, AllocationLine{
			StockUnitID:     unit.ID,
			LotNumber:       unit.LotNumber,
			LotExpiry:       unit.LotExpiry,
			Quantity:        take,
			RemainingInUnit: remainingInUnit,
			FullyConsumed:   remainingInUnit.IsZero(),
		})
		total = total.Add(take)
		remaining = remaining.Sub(take)
	}

	return &AllocationPlan{
		ProductID:      productID,
		Lines:          lines,
		TotalPlanned:   total,
		Shortfall:      remaining,
		FullyFulfilled: remaining.IsZero(),
	}, nil
}

// TotalAvailable sums available quantity across usable units
func TotalAvailable(units []StockUnit) decimal.Decimal {
	total := decimal.Zero
	for _, u := range units {
		if u.IsUsable() {
			total = total.Add(u.AvailableQuantity)
		}
	}
	return total
}
