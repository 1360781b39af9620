package repository

import (
	"context"

	"dispatch/internal/domain"
)

// DefaultListLimit caps list queries that do not set a limit.
const DefaultListLimit = 100

// JourneyFilter selects journeys for List. Empty fields match everything.
type JourneyFilter struct {
	RiderID  string
	DriverID string
	Status   domain.JourneyStatus
	Limit    int
}

// Match is the precondition of a conditional journey update.
type Match struct {
	Status        domain.JourneyStatus
	PaymentStatus domain.PaymentStatus
}

// JourneyRepository defines the persistence operations for journeys.
type JourneyRepository interface {
	// Create persists a new journey.
	Create(ctx context.Context, journey *domain.Journey) error

	// GetByID retrieves a journey by ID.
	GetByID(ctx context.Context, id string) (*domain.Journey, error)

	// List returns journeys matching the filter, newest request first.
	List(ctx context.Context, filter JourneyFilter) ([]*domain.Journey, error)

	// UpdateIfMatch writes journey only if the stored status and payment
	// status still equal m, as a single atomic operation. It returns
	// ErrPreconditionFailed when the record exists but does not match.
	UpdateIfMatch(ctx context.Context, journey *domain.Journey, m Match) error
}
