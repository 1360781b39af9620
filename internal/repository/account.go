package repository

import (
	"context"

	"dispatch/internal/domain"
)

// AccountRepository defines the persistence operations for accounts.
type AccountRepository interface {
	// Create adds a new account. Returns ErrAlreadyExists on a duplicate email or phone.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}
