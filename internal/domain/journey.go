package domain

import "time"

// JourneyStatus represents the lifecycle state of a journey.
type JourneyStatus string

const (
	JourneyStatusRequested JourneyStatus = "REQUESTED"
	JourneyStatusAccepted  JourneyStatus = "ACCEPTED"
	JourneyStatusArrived   JourneyStatus = "ARRIVED"
	JourneyStatusStarted   JourneyStatus = "STARTED"
	JourneyStatusCompleted JourneyStatus = "COMPLETED"
	JourneyStatusCancelled JourneyStatus = "CANCELLED"
)

// Valid reports whether s is a known journey status.
func (s JourneyStatus) Valid() bool {
	switch s {
	case JourneyStatusRequested, JourneyStatusAccepted, JourneyStatusArrived,
		JourneyStatusStarted, JourneyStatusCompleted, JourneyStatusCancelled:
		return true
	}
	return false
}

// VehicleClass is the class of vehicle requested for a journey.
type VehicleClass string

const (
	VehicleClassCar             VehicleClass = "CAR"
	VehicleClassBike            VehicleClass = "BIKE"
	VehicleClassAuto            VehicleClass = "AUTO"
	VehicleClassERickshaw       VehicleClass = "E_RICKSHAW"
	VehicleClassElectricScooter VehicleClass = "ELECTRIC_SCOOTER"
)

// PaymentMethod represents the payment method for a journey.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodUPI    PaymentMethod = "UPI"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodWallet:
		return true
	}
	return false
}

// PaymentStatus represents the settlement state of a journey.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Party identifies which side of a journey performed an action.
type Party string

const (
	PartyRider  Party = "RIDER"
	PartyDriver Party = "DRIVER"
)

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lng float64
	Lat float64
}

// Place is an address with its coordinates.
type Place struct {
	Address string
	Point   Point
}

// Journey is a single rider-to-driver transport request.
type Journey struct {
	ID           string
	RiderID      string
	DriverID     string // empty until claimed
	VehicleClass VehicleClass
	Status       JourneyStatus
	Pickup       Place
	Dropoff      Place

	EstimatedFare       int64
	EstimatedDistanceKm float64

	// Set only on completion.
	ActualFare      *int64
	DistanceKm      *float64
	DurationMinutes *int64

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	RequestedAt time.Time
	AcceptedAt  *time.Time
	ArrivedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	CancellationReason string
	CancelledBy        Party

	Rating   *int
	Feedback string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the journey.
func (j *Journey) Clone() *Journey {
	c := *j
	c.ActualFare = clonePtr(j.ActualFare)
	c.DistanceKm = clonePtr(j.DistanceKm)
	c.DurationMinutes = clonePtr(j.DurationMinutes)
	c.AcceptedAt = clonePtr(j.AcceptedAt)
	c.ArrivedAt = clonePtr(j.ArrivedAt)
	c.StartedAt = clonePtr(j.StartedAt)
	c.CompletedAt = clonePtr(j.CompletedAt)
	c.CancelledAt = clonePtr(j.CancelledAt)
	c.Rating = clonePtr(j.Rating)
	return &c
}

// PayableAmount is the amount owed: the actual fare when known, else the estimate.
func (j *Journey) PayableAmount() int64 {
	if j.ActualFare != nil {
		return *j.ActualFare
	}
	return j.EstimatedFare
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
