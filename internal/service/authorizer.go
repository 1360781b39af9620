package service

import (
	"dispatch/internal/domain"
	"dispatch/internal/eligibility"
	"dispatch/internal/lifecycle"
)

// Authorizer decides whether an actor may act on a journey. Every method is
// side-effect free; the caller loads the journey and, for drivers, the
// actor's own driver profile (nil when the actor has none).
type Authorizer struct{}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// CanCreate checks that the actor is a rider.
func (a *Authorizer) CanCreate(actor domain.Actor) error {
	if actor.AccountID == "" || actor.Role != domain.RoleRider {
		return ErrUnauthorized
	}
	return nil
}

// CanClaim checks that driver belongs to actor, may receive offers, drives
// the requested vehicle class and that j is still open.
func (a *Authorizer) CanClaim(actor domain.Actor, driver *domain.Driver, j *domain.Journey) error {
	if actor.Role != domain.RoleDriver || !owns(actor, driver) {
		return ErrUnauthorized
	}
	if !eligibility.CanReceiveOffers(driver) {
		return ErrDriverNotEligible
	}
	if j.Status != domain.JourneyStatusRequested {
		return ErrJourneyNoLongerAvailable
	}
	if driver.VehicleInfo.VehicleType != j.VehicleClass {
		return ErrVehicleMismatch
	}
	return nil
}

// CanDrive checks that the actor owns the driver profile assigned to j.
// It guards status advances and completion.
func (a *Authorizer) CanDrive(actor domain.Actor, driver *domain.Driver, j *domain.Journey) error {
	if !isAssigned(actor, driver, j) {
		return ErrNotAssigned
	}
	return nil
}

// CanCancel resolves which party the actor cancels as and checks the
// cancellable-state rule.
func (a *Authorizer) CanCancel(actor domain.Actor, driver *domain.Driver, j *domain.Journey) (domain.Party, error) {
	var by domain.Party
	switch {
	case actor.AccountID != "" && actor.AccountID == j.RiderID:
		by = domain.PartyRider
	case isAssigned(actor, driver, j):
		by = domain.PartyDriver
	default:
		return "", ErrUnauthorized
	}

	if !lifecycle.CanBeCancelled(j.Status) {
		return "", lifecycle.ErrNotCancellable
	}
	return by, nil
}

// CanPay checks that the actor is the journey's rider.
func (a *Authorizer) CanPay(actor domain.Actor, j *domain.Journey) error {
	if actor.AccountID == "" || actor.AccountID != j.RiderID {
		return ErrUnauthorized
	}
	return nil
}

// CanView allows the rider, the assigned driver and admins.
func (a *Authorizer) CanView(actor domain.Actor, driver *domain.Driver, j *domain.Journey) error {
	switch {
	case actor.Role == domain.RoleAdmin:
		return nil
	case actor.AccountID != "" && actor.AccountID == j.RiderID:
		return nil
	case isAssigned(actor, driver, j):
		return nil
	}
	return ErrUnauthorized
}

func owns(actor domain.Actor, driver *domain.Driver) bool {
	return driver != nil && actor.AccountID != "" && driver.AccountID == actor.AccountID
}

func isAssigned(actor domain.Actor, driver *domain.Driver, j *domain.Journey) bool {
	return owns(actor, driver) && j.DriverID != "" && j.DriverID == driver.ID
}
