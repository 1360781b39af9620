package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PaymentIntent is what a rider owes for a completed journey. It is the
// payload rendered into a scannable payment code.
type PaymentIntent struct {
	JourneyID string               `json:"journey_id"`
	Amount    int64                `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	IssuedAt  time.Time            `json:"issued_at"`
}

// PaymentConfirmation is the result of confirming payment.
type PaymentConfirmation struct {
	JourneyID   string               `json:"journey_id"`
	Amount      int64                `json:"amount"`
	Method      domain.PaymentMethod `json:"method"`
	AlreadyPaid bool                 `json:"already_paid"`
}

// PaymentReconciler issues payment intents and applies idempotent confirmations.
type PaymentReconciler struct {
	journeyRepo repository.JourneyRepository
}

// NewPaymentReconciler creates a new PaymentReconciler.
func NewPaymentReconciler(journeyRepo repository.JourneyRepository) *PaymentReconciler {
	return &PaymentReconciler{journeyRepo: journeyRepo}
}

// GenerateIntent builds the payment payload for a completed, unpaid journey.
func (r *PaymentReconciler) GenerateIntent(j *domain.Journey, now time.Time) (*PaymentIntent, error) {
	if j.Status != domain.JourneyStatusCompleted {
		return nil, ErrJourneyNotCompleted
	}
	if j.PaymentStatus == domain.PaymentStatusCompleted {
		return nil, ErrAlreadyPaid
	}

	return &PaymentIntent{
		JourneyID: j.ID,
		Amount:    j.PayableAmount(),
		Method:    j.PaymentMethod,
		IssuedAt:  now,
	}, nil
}

// Confirm marks a completed journey as paid. Confirming an already paid
// journey returns AlreadyPaid without writing.
func (r *PaymentReconciler) Confirm(ctx context.Context, j *domain.Journey, now time.Time) (*PaymentConfirmation, error) {
	if j.Status != domain.JourneyStatusCompleted {
		return nil, ErrJourneyNotCompleted
	}
	if j.PaymentStatus == domain.PaymentStatusCompleted {
		return alreadyPaid(j), nil
	}

	next := j.Clone()
	next.PaymentStatus = domain.PaymentStatusCompleted
	next.UpdatedAt = now

	err := r.journeyRepo.UpdateIfMatch(ctx, next, repository.Match{
		Status:        domain.JourneyStatusCompleted,
		PaymentStatus: j.PaymentStatus,
	})
	if errors.Is(err, repository.ErrPreconditionFailed) {
		// A concurrent confirmation may have won; that still means paid.
		current, getErr := r.journeyRepo.GetByID(ctx, j.ID)
		if getErr != nil {
			return nil, fmt.Errorf("reload journey: %w", getErr)
		}
		if current.PaymentStatus == domain.PaymentStatusCompleted {
			return alreadyPaid(current), nil
		}
		return nil, ErrJourneyStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	return &PaymentConfirmation{
		JourneyID: next.ID,
		Amount:    next.PayableAmount(),
		Method:    next.PaymentMethod,
	}, nil
}

func alreadyPaid(j *domain.Journey) *PaymentConfirmation {
	return &PaymentConfirmation{
		JourneyID:   j.ID,
		Amount:      j.PayableAmount(),
		Method:      j.PaymentMethod,
		AlreadyPaid: true,
	}
}
