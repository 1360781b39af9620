// Package lifecycle holds the journey state machine. Functions operate on
// snapshots and return new snapshots; nothing here touches storage.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/domain"
)

var (
	// ErrInvalidTransition is returned for any edge outside the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotCancellable is returned when cancelling from STARTED or a terminal state.
	ErrNotCancellable = fmt.Errorf("%w: journey cannot be cancelled in current status", ErrInvalidTransition)

	// ErrDriverRequired is returned when accepting without a driver.
	ErrDriverRequired = errors.New("driver is required to accept a journey")

	// ErrInvalidCompletion is returned for negative completion figures.
	ErrInvalidCompletion = errors.New("invalid completion details")
)

// Targets returns the statuses reachable from s in one step.
func Targets(s domain.JourneyStatus) []domain.JourneyStatus {
	switch s {
	case domain.JourneyStatusRequested:
		return []domain.JourneyStatus{domain.JourneyStatusAccepted, domain.JourneyStatusCancelled}
	case domain.JourneyStatusAccepted:
		return []domain.JourneyStatus{domain.JourneyStatusArrived, domain.JourneyStatusCancelled}
	case domain.JourneyStatusArrived:
		return []domain.JourneyStatus{domain.JourneyStatusStarted, domain.JourneyStatusCancelled}
	case domain.JourneyStatusStarted:
		return []domain.JourneyStatus{domain.JourneyStatusCompleted, domain.JourneyStatusCancelled}
	case domain.JourneyStatusCompleted, domain.JourneyStatusCancelled:
		return nil
	default:
		panic(fmt.Sprintf("lifecycle: unhandled journey status %q", s))
	}
}

// CanTransition reports whether current -> target is an edge of the lifecycle graph.
func CanTransition(current, target domain.JourneyStatus) bool {
	if !current.Valid() {
		return false
	}
	for _, t := range Targets(current) {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s domain.JourneyStatus) bool {
	return s.Valid() && len(Targets(s)) == 0
}

// CanBeCancelled reports whether a journey in status s may be cancelled.
// STARTED has a CANCELLED edge in the graph but a started ride can only be completed.
func CanBeCancelled(s domain.JourneyStatus) bool {
	switch s {
	case domain.JourneyStatusRequested, domain.JourneyStatusAccepted, domain.JourneyStatusArrived:
		return true
	}
	return false
}

// Transition moves j to target and stamps the matching timestamp.
// The input snapshot is not modified.
func Transition(j *domain.Journey, target domain.JourneyStatus, now time.Time) (*domain.Journey, error) {
	if !CanTransition(j.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, target)
	}

	next := j.Clone()
	next.Status = target
	next.UpdatedAt = now

	switch target {
	case domain.JourneyStatusAccepted:
		stamp(&next.AcceptedAt, now)
	case domain.JourneyStatusArrived:
		stamp(&next.ArrivedAt, now)
	case domain.JourneyStatusStarted:
		stamp(&next.StartedAt, now)
	case domain.JourneyStatusCompleted:
		stamp(&next.CompletedAt, now)
	case domain.JourneyStatusCancelled:
		stamp(&next.CancelledAt, now)
	}

	return next, nil
}

// Accept assigns driverID to a REQUESTED journey.
func Accept(j *domain.Journey, driverID string, now time.Time) (*domain.Journey, error) {
	if driverID == "" {
		return nil, ErrDriverRequired
	}

	next, err := Transition(j, domain.JourneyStatusAccepted, now)
	if err != nil {
		return nil, err
	}
	next.DriverID = driverID
	return next, nil
}

// Completion carries the figures recorded when a journey completes.
type Completion struct {
	ActualFare      int64
	DistanceKm      float64
	DurationMinutes int64
}

// Complete moves a STARTED journey to COMPLETED and records the actuals.
func Complete(j *domain.Journey, c Completion, now time.Time) (*domain.Journey, error) {
	if c.ActualFare < 0 || c.DistanceKm < 0 || c.DurationMinutes < 0 {
		return nil, ErrInvalidCompletion
	}

	next, err := Transition(j, domain.JourneyStatusCompleted, now)
	if err != nil {
		return nil, err
	}
	next.ActualFare = &c.ActualFare
	next.DistanceKm = &c.DistanceKm
	next.DurationMinutes = &c.DurationMinutes
	return next, nil
}

// Cancel moves a cancellable journey to CANCELLED.
func Cancel(j *domain.Journey, by domain.Party, reason string, now time.Time) (*domain.Journey, error) {
	if !CanBeCancelled(j.Status) {
		return nil, fmt.Errorf("%w (status %s)", ErrNotCancellable, j.Status)
	}

	next, err := Transition(j, domain.JourneyStatusCancelled, now)
	if err != nil {
		return nil, err
	}
	next.CancelledBy = by
	next.CancellationReason = reason
	return next, nil
}

func stamp(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}
