package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"dispatch/internal/repository"
)

// UnitOfWork runs callbacks inside a single PostgreSQL transaction.
type UnitOfWork struct {
	db *sql.DB
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do begins a transaction, hands tx-scoped repositories to fn and commits
// if fn succeeds.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stores := repository.Stores{
		Journeys: NewJourneyRepositoryWithTx(tx),
		Drivers:  NewDriverRepositoryWithTx(tx),
	}

	if err = fn(ctx, stores); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
