package shared

// BaseAggregateRoot adds optimistic-lock versioning and domain event
// collection on top of BaseEntity. Events accumulate on the aggregate during
// a transaction and are published by the application service after commit.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot creates an aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// AddDomainEvent queues an event for publication after the transaction commits
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the queue once events have been published
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
