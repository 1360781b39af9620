package repository

import "context"

// Stores groups the repositories that may take part in one transaction.
type Stores struct {
	Journeys JourneyRepository
	Drivers  DriverRepository
}

// UnitOfWork runs fn against transaction-scoped repositories. Either every
// write inside fn commits or none does.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
