package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidJourneyID is returned when journey ID is empty.
	ErrInvalidJourneyID = errors.New("invalid journey id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidAddress is returned when a pickup or dropoff address is blank.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidPaymentMethod is returned when payment method is invalid.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidStatus is returned for an unknown journey status.
	ErrInvalidStatus = errors.New("invalid journey status")

	// ErrInvalidProfile is returned when a driver profile is missing a mandatory field.
	ErrInvalidProfile = errors.New("invalid driver profile")

	// ErrUnauthorized is returned when the actor may not perform the action.
	ErrUnauthorized = errors.New("not authorized for this journey")

	// ErrNotAssigned is returned when the actor is not the journey's assigned driver.
	ErrNotAssigned = errors.New("driver not assigned to this journey")

	// ErrDriverNotEligible is returned when an offline or unverified driver tries to claim.
	ErrDriverNotEligible = fmt.Errorf("%w: driver must be online and verified", ErrUnauthorized)

	// ErrVehicleMismatch is returned when the driver's vehicle differs from the requested class.
	ErrVehicleMismatch = errors.New("driver vehicle does not match requested vehicle class")

	// ErrJourneyNoLongerAvailable is returned when another driver claimed the journey first.
	ErrJourneyNoLongerAvailable = errors.New("journey is no longer available")

	// ErrJourneyStateChanged is returned when a concurrent write changed the journey.
	ErrJourneyStateChanged = errors.New("journey changed concurrently, reload and retry")

	// ErrCompletionDetailsRequired is returned when advancing to COMPLETED without fare details.
	ErrCompletionDetailsRequired = errors.New("completion requires actual fare, distance and duration")

	// ErrJourneyNotCompleted is returned for payment actions before completion.
	ErrJourneyNotCompleted = errors.New("journey is not completed")

	// ErrAlreadyPaid is returned when generating an intent for a settled journey.
	ErrAlreadyPaid = errors.New("journey is already paid")

	// ErrProfileExists is returned when an account already owns a driver profile.
	ErrProfileExists = errors.New("driver profile already exists")
)
