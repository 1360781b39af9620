package repository

import (
	"context"

	"dispatch/internal/domain"
)

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	// Create adds a new driver profile. Returns ErrAlreadyExists if the
	// account already has one.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver profile by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByAccountID retrieves the driver profile owned by an account.
	GetByAccountID(ctx context.Context, accountID string) (*domain.Driver, error)

	// Update overwrites the mutable fields of a driver profile.
	Update(ctx context.Context, driver *domain.Driver) error

	// IncrementTotalRides atomically adds one completed ride to the driver's stats.
	IncrementTotalRides(ctx context.Context, id string) error
}
