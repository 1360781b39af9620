package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/fare"
	"dispatch/internal/lifecycle"
	"dispatch/internal/repository"
)

// DispatchDeps contains the collaborators of DispatchService.
type DispatchDeps struct {
	JourneyRepo repository.JourneyRepository
	DriverRepo  repository.DriverRepository
	AccountRepo repository.AccountRepository
	UnitOfWork  repository.UnitOfWork
	Publisher   events.Publisher
	Logger      *logrus.Logger
	Now         func() time.Time
}

// DispatchService orchestrates journeys: creation, claiming, the status
// lifecycle and payment.
type DispatchService struct {
	journeyRepo repository.JourneyRepository
	driverRepo  repository.DriverRepository
	accountRepo repository.AccountRepository
	uow         repository.UnitOfWork
	authz       *Authorizer
	payments    *PaymentReconciler
	publisher   events.Publisher
	logger      *logrus.Logger
	now         func() time.Time
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(deps DispatchDeps) *DispatchService {
	s := &DispatchService{
		journeyRepo: deps.JourneyRepo,
		driverRepo:  deps.DriverRepo,
		accountRepo: deps.AccountRepo,
		uow:         deps.UnitOfWork,
		authz:       NewAuthorizer(),
		payments:    NewPaymentReconciler(deps.JourneyRepo),
		publisher:   deps.Publisher,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// EstimateFareRequest contains the parameters for a fare quote.
type EstimateFareRequest struct {
	Pickup       domain.Point
	Dropoff      domain.Point
	VehicleClass domain.VehicleClass
}

// EstimateFare quotes distance and fare without creating a journey.
func (s *DispatchService) EstimateFare(req EstimateFareRequest) (fare.Estimate, error) {
	if !isValidPoint(req.Pickup) || !isValidPoint(req.Dropoff) {
		return fare.Estimate{}, ErrInvalidLocation
	}
	return fare.EstimateFare(req.Pickup, req.Dropoff, req.VehicleClass)
}

// CreateJourneyRequest contains the parameters for requesting a journey.
type CreateJourneyRequest struct {
	Pickup        domain.Place
	Dropoff       domain.Place
	VehicleClass  domain.VehicleClass
	PaymentMethod domain.PaymentMethod // Optional: defaults to CASH
}

// CreateJourney creates a REQUESTED journey with an immutable fare estimate.
func (s *DispatchService) CreateJourney(ctx context.Context, actor domain.Actor, req CreateJourneyRequest) (*domain.Journey, error) {
	if err := s.authz.CanCreate(actor); err != nil {
		return nil, err
	}

	paymentMethod, err := ValidatePaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return nil, err
	}
	if err := validatePlace(req.Pickup); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	if err := validatePlace(req.Dropoff); err != nil {
		return nil, fmt.Errorf("dropoff: %w", err)
	}

	if _, err := s.accountRepo.GetByID(ctx, actor.AccountID); err != nil {
		return nil, fmt.Errorf("rider %s: %w", actor.AccountID, err)
	}

	estimate, err := fare.EstimateFare(req.Pickup.Point, req.Dropoff.Point, req.VehicleClass)
	if err != nil {
		return nil, err
	}

	now := s.now()
	journey := &domain.Journey{
		ID:                  uuid.New().String(),
		RiderID:             actor.AccountID,
		VehicleClass:        req.VehicleClass,
		Status:              domain.JourneyStatusRequested,
		Pickup:              req.Pickup,
		Dropoff:             req.Dropoff,
		EstimatedFare:       estimate.Fare,
		EstimatedDistanceKm: estimate.DistanceKm,
		PaymentMethod:       paymentMethod,
		PaymentStatus:       domain.PaymentStatusPending,
		RequestedAt:         now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.journeyRepo.Create(ctx, journey); err != nil {
		return nil, fmt.Errorf("create journey: %w", err)
	}

	s.log(journey).WithField("estimated_fare", journey.EstimatedFare).Info("journey requested")
	s.publish(ctx, events.KindRequested, journey)
	return journey, nil
}

// ClaimJourney assigns the actor's driver profile to a REQUESTED journey.
// Of several concurrent claims on the same journey exactly one succeeds; the
// others fail with ErrJourneyNoLongerAvailable.
func (s *DispatchService) ClaimJourney(ctx context.Context, actor domain.Actor, journeyID string) (*domain.Journey, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}

	driver, err := s.driverFor(ctx, actor)
	if err != nil {
		observeClaim(claimError)
		return nil, err
	}

	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		observeClaim(claimError)
		return nil, err
	}

	if err := s.authz.CanClaim(actor, driver, journey); err != nil {
		observeClaim(claimRejected)
		return nil, err
	}

	next, err := lifecycle.Accept(journey, driver.ID, s.now())
	if err != nil {
		observeClaim(claimRejected)
		return nil, err
	}

	err = s.journeyRepo.UpdateIfMatch(ctx, next, repository.Match{
		Status:        domain.JourneyStatusRequested,
		PaymentStatus: journey.PaymentStatus,
	})
	if errors.Is(err, repository.ErrPreconditionFailed) {
		observeClaim(claimLost)
		s.log(journey).WithField("driver_id", driver.ID).Info("journey claim lost")
		return nil, ErrJourneyNoLongerAvailable
	}
	if err != nil {
		observeClaim(claimError)
		return nil, fmt.Errorf("claim journey: %w", err)
	}

	observeClaim(claimWon)
	s.log(next).Info("journey accepted")
	s.publish(ctx, events.KindAccepted, next)
	return next, nil
}

// AdvanceJourneyStatus moves an assigned journey forward to ARRIVED or
// STARTED. Only the assigned driver may call it. COMPLETED requires
// CompleteJourney; CANCELLED then follows the cancel rules.
func (s *DispatchService) AdvanceJourneyStatus(ctx context.Context, actor domain.Actor, journeyID string, target domain.JourneyStatus) (*domain.Journey, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	driver, err := s.driverFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.CanDrive(actor, driver, journey); err != nil {
		return nil, err
	}
	if target == domain.JourneyStatusCancelled {
		return s.cancel(ctx, actor, driver, journey, "")
	}

	if !lifecycle.CanTransition(journey.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", lifecycle.ErrInvalidTransition, journey.Status, target)
	}
	switch target {
	case domain.JourneyStatusCompleted:
		return nil, ErrCompletionDetailsRequired
	case domain.JourneyStatusAccepted:
		return nil, fmt.Errorf("%w: journeys are accepted by claiming", lifecycle.ErrInvalidTransition)
	}

	next, err := lifecycle.Transition(journey, target, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, s.journeyRepo, journey, next); err != nil {
		return nil, err
	}

	s.log(next).Info("journey status advanced")
	s.publish(ctx, events.KindFor(next.Status), next)
	return next, nil
}

// CompleteJourney records the actual fare, distance and duration of a
// STARTED journey and credits the driver with a completed ride. Both writes
// commit together.
func (s *DispatchService) CompleteJourney(ctx context.Context, actor domain.Actor, journeyID string, details lifecycle.Completion) (*domain.Journey, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}

	driver, err := s.driverFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.CanDrive(actor, driver, journey); err != nil {
		return nil, err
	}

	next, err := lifecycle.Complete(journey, details, s.now())
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, stores repository.Stores) error {
		if err := s.write(ctx, stores.Journeys, journey, next); err != nil {
			return err
		}
		if err := stores.Drivers.IncrementTotalRides(ctx, driver.ID); err != nil {
			return fmt.Errorf("increment total rides: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(next).WithField("actual_fare", details.ActualFare).Info("journey completed")
	s.publish(ctx, events.KindCompleted, next)
	return next, nil
}

// CancelJourney cancels a journey on behalf of its rider or assigned driver.
func (s *DispatchService) CancelJourney(ctx context.Context, actor domain.Actor, journeyID, reason string) (*domain.Journey, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}

	driver, err := s.driverFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	return s.cancel(ctx, actor, driver, journey, reason)
}

func (s *DispatchService) cancel(ctx context.Context, actor domain.Actor, driver *domain.Driver, journey *domain.Journey, reason string) (*domain.Journey, error) {
	by, err := s.authz.CanCancel(actor, driver, journey)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Cancel(journey, by, strings.TrimSpace(reason), s.now())
	if err != nil {
		return nil, err
	}

	if err := s.write(ctx, s.journeyRepo, journey, next); err != nil {
		return nil, err
	}

	s.log(next).WithField("cancelled_by", by).Info("journey cancelled")
	s.publish(ctx, events.KindCancelled, next)
	return next, nil
}

// GetJourney returns a journey visible to the actor.
func (s *DispatchService) GetJourney(ctx context.Context, actor domain.Actor, journeyID string) (*domain.Journey, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}

	driver, err := s.driverFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.CanView(actor, driver, journey); err != nil {
		return nil, err
	}
	return journey, nil
}

// ListJourneysForRider returns the actor's journeys as a rider, newest first.
func (s *DispatchService) ListJourneysForRider(ctx context.Context, actor domain.Actor, status domain.JourneyStatus) ([]*domain.Journey, error) {
	if actor.AccountID == "" {
		return nil, ErrUnauthorized
	}
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	return s.journeyRepo.List(ctx, repository.JourneyFilter{
		RiderID: actor.AccountID,
		Status:  status,
	})
}

// ListJourneysForDriver returns journeys assigned to the actor's driver
// profile, newest first.
func (s *DispatchService) ListJourneysForDriver(ctx context.Context, actor domain.Actor, status domain.JourneyStatus) ([]*domain.Journey, error) {
	if actor.Role != domain.RoleDriver {
		return nil, ErrUnauthorized
	}
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	driver, err := s.driverFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, fmt.Errorf("driver profile: %w", repository.ErrNotFound)
	}

	return s.journeyRepo.List(ctx, repository.JourneyFilter{
		DriverID: driver.ID,
		Status:   status,
	})
}

// GeneratePaymentIntent returns the payment payload of a completed journey.
func (s *DispatchService) GeneratePaymentIntent(ctx context.Context, actor domain.Actor, journeyID string) (*PaymentIntent, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}

	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanPay(actor, journey); err != nil {
		return nil, err
	}

	return s.payments.GenerateIntent(journey, s.now())
}

// ConfirmPayment marks a completed journey as paid. Repeated calls report
// AlreadyPaid and do not write.
func (s *DispatchService) ConfirmPayment(ctx context.Context, actor domain.Actor, journeyID string) (*PaymentConfirmation, error) {
	if journeyID == "" {
		return nil, ErrInvalidJourneyID
	}

	journey, err := s.getJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanPay(actor, journey); err != nil {
		return nil, err
	}

	now := s.now()
	confirmation, err := s.payments.Confirm(ctx, journey, now)
	if err != nil {
		return nil, err
	}

	if !confirmation.AlreadyPaid {
		paid := journey.Clone()
		paid.PaymentStatus = domain.PaymentStatusCompleted
		s.log(paid).WithField("amount", confirmation.Amount).Info("journey paid")
		s.publish(ctx, events.KindPaid, paid)
	}
	return confirmation, nil
}

// write persists next only if the stored journey still has prev's status
// and payment status.
func (s *DispatchService) write(ctx context.Context, repo repository.JourneyRepository, prev, next *domain.Journey) error {
	err := repo.UpdateIfMatch(ctx, next, repository.Match{
		Status:        prev.Status,
		PaymentStatus: prev.PaymentStatus,
	})
	if errors.Is(err, repository.ErrPreconditionFailed) {
		return ErrJourneyStateChanged
	}
	if err != nil {
		return fmt.Errorf("update journey: %w", err)
	}
	return nil
}

func (s *DispatchService) getJourney(ctx context.Context, id string) (*domain.Journey, error) {
	journey, err := s.journeyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("journey %s: %w", id, err)
	}
	return journey, nil
}

// driverFor loads the actor's own driver profile. Non-drivers and drivers
// without a profile get nil.
func (s *DispatchService) driverFor(ctx context.Context, actor domain.Actor) (*domain.Driver, error) {
	if actor.Role != domain.RoleDriver || actor.AccountID == "" {
		return nil, nil
	}

	driver, err := s.driverRepo.GetByAccountID(ctx, actor.AccountID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	return driver, nil
}

func (s *DispatchService) publish(ctx context.Context, kind events.Kind, j *domain.Journey) {
	if err := s.publisher.Publish(ctx, events.NewJourneyEvent(kind, j, s.now())); err != nil {
		s.log(j).WithError(err).WithField("event", kind).Warn("failed to publish journey event")
	}
}

func (s *DispatchService) log(j *domain.Journey) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"journey_id":    j.ID,
		"status":        j.Status,
		"vehicle_class": j.VehicleClass,
		"driver_id":     j.DriverID,
	})
}

// ValidatePaymentMethod validates a payment method string.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	if method == "" {
		return domain.PaymentMethodCash, nil
	}
	m := domain.PaymentMethod(strings.ToUpper(method))
	if !m.Valid() {
		return "", ErrInvalidPaymentMethod
	}
	return m, nil
}

func validatePlace(p domain.Place) error {
	if strings.TrimSpace(p.Address) == "" {
		return ErrInvalidAddress
	}
	if !isValidPoint(p.Point) {
		return ErrInvalidLocation
	}
	return nil
}

func isValidPoint(p domain.Point) bool {
	return isValidLatitude(p.Lat) && isValidLongitude(p.Lng)
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
