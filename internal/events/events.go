// Package events publishes journey lifecycle events to other services.
package events

import (
	"context"
	"strings"
	"time"

	"dispatch/internal/domain"
)

// Kind names a lifecycle event.
type Kind string

const (
	KindRequested Kind = "requested"
	KindAccepted  Kind = "accepted"
	KindArrived   Kind = "arrived"
	KindStarted   Kind = "started"
	KindCompleted Kind = "completed"
	KindCancelled Kind = "cancelled"
	KindPaid      Kind = "paid"
)

// KindFor maps a journey status to the event emitted on entering it.
func KindFor(s domain.JourneyStatus) Kind {
	switch s {
	case domain.JourneyStatusRequested:
		return KindRequested
	case domain.JourneyStatusAccepted:
		return KindAccepted
	case domain.JourneyStatusArrived:
		return KindArrived
	case domain.JourneyStatusStarted:
		return KindStarted
	case domain.JourneyStatusCompleted:
		return KindCompleted
	case domain.JourneyStatusCancelled:
		return KindCancelled
	}
	return Kind(strings.ToLower(string(s)))
}

// JourneyEvent is the message body published for every journey change.
// It carries no rider or driver PII.
type JourneyEvent struct {
	Kind          Kind                 `json:"event"`
	JourneyID     string               `json:"journeyId"`
	RiderID       string               `json:"riderId"`
	DriverID      string               `json:"driverId,omitempty"`
	VehicleClass  domain.VehicleClass  `json:"vehicleClass"`
	Status        domain.JourneyStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Amount        int64                `json:"amount"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// NewJourneyEvent snapshots j into an event of the given kind.
func NewJourneyEvent(kind Kind, j *domain.Journey, at time.Time) JourneyEvent {
	return JourneyEvent{
		Kind:          kind,
		JourneyID:     j.ID,
		RiderID:       j.RiderID,
		DriverID:      j.DriverID,
		VehicleClass:  j.VehicleClass,
		Status:        j.Status,
		PaymentStatus: j.PaymentStatus,
		Amount:        j.PayableAmount(),
		OccurredAt:    at,
	}
}

// RoutingKey is journey.<event>.<vehicle class>, lower case.
func (e JourneyEvent) RoutingKey() string {
	return "journey." + string(e.Kind) + "." + strings.ToLower(string(e.VehicleClass))
}

// Publisher delivers journey events.
type Publisher interface {
	Publish(ctx context.Context, e JourneyEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, JourneyEvent) error { return nil }
