package service

import (
	"context"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// AccountSummary is the contact block of an account.
type AccountSummary struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// DriverSummary describes the driver and vehicle assigned to a journey. It
// never carries the national ID.
type DriverSummary struct {
	ID            string
	Name          string
	Phone         string
	VehicleType   domain.VehicleClass
	VehicleNumber string
	VehicleModel  string
	VehicleColor  string
	Rating        float64
}

// JourneyView is a journey with its rider and assigned driver resolved.
// Rider or Driver is nil when it is absent or could not be loaded.
type JourneyView struct {
	Journey *domain.Journey
	Rider   *AccountSummary
	Driver  *DriverSummary
}

func newAccountSummary(a *domain.Account) *AccountSummary {
	if a == nil {
		return nil
	}
	return &AccountSummary{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone}
}

// DescribeJourneys resolves the rider and driver of each journey. Lookups
// are shared across the batch. A failed lookup is logged and leaves the
// summary empty; the journey itself is always returned.
func (s *DispatchService) DescribeJourneys(ctx context.Context, journeys ...*domain.Journey) []*JourneyView {
	r := &summaryResolver{
		s:        s,
		accounts: make(map[string]*domain.Account),
		drivers:  make(map[string]*domain.Driver),
	}

	views := make([]*JourneyView, 0, len(journeys))
	for _, j := range journeys {
		view := &JourneyView{Journey: j}
		view.Rider = newAccountSummary(r.account(ctx, j.RiderID))

		if j.DriverID != "" {
			if driver := r.driver(ctx, j.DriverID); driver != nil {
				summary := &DriverSummary{
					ID:            driver.ID,
					VehicleType:   driver.VehicleInfo.VehicleType,
					VehicleNumber: driver.VehicleInfo.VehicleNumber,
					VehicleModel:  driver.VehicleInfo.VehicleModel,
					VehicleColor:  driver.VehicleInfo.VehicleColor,
					Rating:        driver.Stats.Rating,
				}
				if acc := r.account(ctx, driver.AccountID); acc != nil {
					summary.Name = acc.Name
					summary.Phone = acc.Phone
				}
				view.Driver = summary
			}
		}
		views = append(views, view)
	}
	return views
}

// summaryResolver memoizes lookups for one DescribeJourneys call. Misses
// are cached as nil.
type summaryResolver struct {
	s        *DispatchService
	accounts map[string]*domain.Account
	drivers  map[string]*domain.Driver
}

func (r *summaryResolver) account(ctx context.Context, id string) *domain.Account {
	if id == "" {
		return nil
	}
	if a, ok := r.accounts[id]; ok {
		return a
	}

	a, err := r.s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.s.logger.WithError(err).WithField("account_id", id).Warn("failed to load account summary")
		}
		a = nil
	}
	r.accounts[id] = a
	return a
}

func (r *summaryResolver) driver(ctx context.Context, id string) *domain.Driver {
	if d, ok := r.drivers[id]; ok {
		return d
	}

	d, err := r.s.driverRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.s.logger.WithError(err).WithField("driver_id", id).Warn("failed to load driver summary")
		}
		d = nil
	}
	r.drivers[id] = d
	return d
}
