package fulfillment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/shared"
)

// PickSourceType routes a pick request to an internal or external
// (third-party warehouse) fulfillment path
type PickSourceType string

const (
	PickSourceInternal PickSourceType = "INTERNAL"
	PickSourceExternal PickSourceType = "EXTERNAL"
)

// IsValid checks if the source type is valid
func (t PickSourceType) IsValid() bool {
	switch t {
	case PickSourceInternal, PickSourceExternal:
		return true
	}
	return false
}

// String returns the string representation
func (t PickSourceType) String() string {
	return string(t)
}

// PickRequestStatus represents the state of a pick request
type PickRequestStatus string

const (
	PickRequestStatusPending    PickRequestStatus = "PENDING"
	PickRequestStatusInProgress PickRequestStatus = "IN_PROGRESS"
	PickRequestStatusCompleted  PickRequestStatus = "COMPLETED"
)

// IsValid checks if the status is valid
func (s PickRequestStatus) IsValid() bool {
	switch s {
	case PickRequestStatusPending, PickRequestStatusInProgress, PickRequestStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation
func (s PickRequestStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// The internal path is PENDING -> IN_PROGRESS -> COMPLETED; the external path
// goes PENDING -> COMPLETED on external confirmation.
func (s PickRequestStatus) CanTransitionTo(target PickRequestStatus) bool {
	switch s {
	case PickRequestStatusPending:
		return target == PickRequestStatusInProgress || target == PickRequestStatusCompleted
	case PickRequestStatusInProgress:
		return target == PickRequestStatusCompleted
	case PickRequestStatusCompleted:
		return false
	}
	return false
}

// IsOpen returns true for non-terminal statuses
func (s PickRequestStatus) IsOpen() bool {
	return s == PickRequestStatusPending || s == PickRequestStatusInProgress
}

// PickRequestLine tracks requested versus picked quantity for one order line
type PickRequestLine struct {
	ID            uuid.UUID
	PickRequestID uuid.UUID
	OrderLineID   uuid.UUID
	ProductID     uuid.UUID
	Requested     decimal.Decimal
	Picked        decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Touch bumps the update timestamp at the point of a domain change
func (l *PickRequestLine) Touch() {
	l.UpdatedAt = time.Now()
}

// IsFullyPicked returns true when picked has reached requested
func (l *PickRequestLine) IsFullyPicked() bool {
	return l.Picked.GreaterThanOrEqual(l.Requested)
}

// Shortfall returns requested minus picked, never negative
func (l *PickRequestLine) Shortfall() decimal.Decimal {
	s := l.Requested.Sub(l.Picked)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

// PickRecord mirrors one consumption record for this stage: which stock unit
// was picked, how much, by whom
type PickRecord struct {
	ID                uuid.UUID
	PickRequestID     uuid.UUID
	PickRequestLineID uuid.UUID
	StockUnitID       uuid.UUID
	LotNumber         string
	Quantity          decimal.Decimal
	PickedBy          uuid.UUID
	PickedAt          time.Time
}

// PickRequest orchestrates the picking stage for one order. At most one open
// request exists per order at a time; the application service enforces that
// against the repository before creating a new one.
type PickRequest struct {
	shared.BaseAggregateRoot
	RequestNumber  string
	OrderID        uuid.UUID
	SourceType     PickSourceType
	Status         PickRequestStatus
	Lines          []PickRequestLine
	Records        []PickRecord
	ForceCompleted bool   // Completed with lines still under-picked
	ShortfallNote  string // Operator note recorded on force completion
	CompletedBy    *uuid.UUID
	CompletedAt    *time.Time
}

// PickRequestLineSpec describes one line to include when creating a request
type PickRequestLineSpec struct {
	OrderLineID uuid.UUID
	ProductID   uuid.UUID
	Requested   decimal.Decimal
}

// NewPickRequest creates a pending pick request covering the given lines
func NewPickRequest(requestNumber string, orderID uuid.UUID, sourceType PickSourceType, lineSpecs []PickRequestLineSpec) (*PickRequest, error) {
	if requestNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Request number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Order ID cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invalid pick source type")
	}
	if len(lineSpecs) == 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Pick request needs at least one line")
	}

	request := &PickRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequestNumber:     requestNumber,
		OrderID:           orderID,
		SourceType:        sourceType,
		Status:            PickRequestStatusPending,
		Lines:             make([]PickRequestLine, 0, len(lineSpecs)),
		Records:           make([]PickRecord, 0),
	}

	now := time.Now()
	for _, spec := range lineSpecs {
		if spec.Requested.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("VALIDATION_FAILED", "Requested quantity must be positive")
		}
		request.Lines = append(request.Lines, PickRequestLine{
			ID:            uuid.New(),
			PickRequestID: request.ID,
			OrderLineID:   spec.OrderLineID,
			ProductID:     spec.ProductID,
			Requested:     spec.Requested,
			Picked:        decimal.Zero,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	request.AddDomainEvent(NewPickRequestCreatedEvent(request))

	return request, nil
}

// IsOpen returns true while the request is not completed
func (r *PickRequest) IsOpen() bool {
	return r.Status.IsOpen()
}

// GetLine returns a request line by its ID
func (r *PickRequest) GetLine(lineID uuid.UUID) *PickRequestLine {
	for idx := range r.Lines {
		if r.Lines[idx].ID == lineID {
			return &r.Lines[idx]
		}
	}
	return nil
}

// GetLineByOrderLine returns the request line covering an order line
func (r *PickRequest) GetLineByOrderLine(orderLineID uuid.UUID) *PickRequestLine {
	for idx := range r.Lines {
		if r.Lines[idx].OrderLineID == orderLineID {
			return &r.Lines[idx]
		}
	}
	return nil
}

// RecordPick books a picked quantity against a request line and appends one
// pick record per stock unit touched. The internal path transitions
// PENDING -> IN_PROGRESS on the first recorded pick.
func (r *PickRequest) RecordPick(lineID, stockUnitID uuid.UUID, lotNumber string, quantity decimal.Decimal, actor uuid.UUID, at time.Time) (*PickRecord, error) {
	if !r.IsOpen() {
		return nil, shared.NewDomainError("INVALID_STATE", "Pick request is already completed")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Pick quantity must be positive")
	}

	line := r.GetLine(lineID)
	if line == nil {
		return nil, shared.ErrNotFound
	}
	if line.Picked.Add(quantity).GreaterThan(line.Requested) {
		return nil, shared.NewDomainError("OVER_FULFILLMENT",
			fmt.Sprintf("Picking %s would exceed requested quantity %s", quantity, line.Requested))
	}

	line.Picked = line.Picked.Add(quantity)
	line.Touch()

	record := PickRecord{
		ID:                uuid.New(),
		PickRequestID:     r.ID,
		PickRequestLineID: line.ID,
		StockUnitID:       stockUnitID,
		LotNumber:         lotNumber,
		Quantity:          quantity,
		PickedBy:          actor,
		PickedAt:          at,
	}
	r.Records = append(r.Records, record)

	if r.Status == PickRequestStatusPending && r.SourceType == PickSourceInternal {
		r.Status = PickRequestStatusInProgress
	}
	r.Touch()

	return &record, nil
}

// AllLinesFullyPicked returns true when every line has picked >= requested
func (r *PickRequest) AllLinesFullyPicked() bool {
	for _, line := range r.Lines {
		if !line.IsFullyPicked() {
			return false
		}
	}
	return true
}

// Complete transitions the request to COMPLETED. A request with under-picked
// lines requires force with an operator note; the shortfall is recorded, not
// silently dropped.
func (r *PickRequest) Complete(force bool, note string, actor uuid.UUID, at time.Time) error {
	if !r.Status.CanTransitionTo(PickRequestStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete pick request in %s status", r.Status))
	}
	if !r.AllLinesFullyPicked() {
		if !force {
			return shared.NewDomainError("VALIDATION_FAILED",
				"Pick request has under-picked lines; force completion with a note to accept the shortfall")
		}
		if note == "" {
			return shared.NewDomainError("VALIDATION_FAILED",
				"Force completion requires a shortfall note")
		}
		r.ForceCompleted = true
		r.ShortfallNote = note
	}

	r.Status = PickRequestStatusCompleted
	r.CompletedBy = &actor
	r.CompletedAt = &at
	r.Touch()

	r.AddDomainEvent(NewPickRequestCompletedEvent(r))

	return nil
}
