package postgres

import (
	"context"
	"database/sql"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db *sql.DB
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create adds a new account.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, name, email, phone, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.Email, a.Phone, a.Role, a.CreatedAt)
	return mapError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, name, email, phone, role, created_at FROM accounts WHERE id = $1`

	var a domain.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Role, &a.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}
