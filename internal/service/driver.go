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
	"dispatch/internal/eligibility"
	"dispatch/internal/fare"
	"dispatch/internal/pii"
	"dispatch/internal/repository"
)

// DefaultDriverRating is the rating every new driver starts with.
const DefaultDriverRating = 5.0

// DriverCache caches driver profiles by account ID. Get returns nil, nil on
// a miss.
type DriverCache interface {
	Get(ctx context.Context, accountID string) (*domain.Driver, error)
	Set(ctx context.Context, driver *domain.Driver) error
	Invalidate(ctx context.Context, accountID string) error
}

// DriverService handles driver profile operations.
type DriverService struct {
	driverRepo  repository.DriverRepository
	accountRepo repository.AccountRepository
	protector   pii.Protector
	cache       DriverCache
	logger      *logrus.Logger
	now         func() time.Time
}

// NewDriverService creates a new DriverService. cache may be nil.
func NewDriverService(
	driverRepo repository.DriverRepository,
	accountRepo repository.AccountRepository,
	protector pii.Protector,
	cache DriverCache,
	logger *logrus.Logger,
) *DriverService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DriverService{
		driverRepo:  driverRepo,
		accountRepo: accountRepo,
		protector:   protector,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// DriverProfile is a driver as shown to callers: the national ID is masked.
// Account is nil when the owning account cannot be loaded.
type DriverProfile struct {
	Driver           *domain.Driver
	MaskedNationalID string
	Account          *AccountSummary
}

// ProfileCompletion summarizes how far a driver is from going online.
type ProfileCompletion struct {
	Percentage    int
	MissingFields []eligibility.MissingField
	CanGoOnline   bool
	IsVerified    bool
}

// CreateProfileRequest contains the parameters for registering as a driver.
type CreateProfileRequest struct {
	LanguagePreference string
	City               string
	ProfilePicture     string
	NationalID         string
	LicenseNumber      string
	LicenseExpiry      *time.Time
	RCNumber           string
	RCExpiry           *time.Time
	VehicleType        domain.VehicleClass
	VehicleNumber      string
	VehicleModel       string
	VehicleColor       string
}

// UpdateProfileRequest carries optional profile changes. Nil fields are left
// untouched. Identity documents and vehicle type cannot be changed here.
type UpdateProfileRequest struct {
	LanguagePreference *string
	City               *string
	ProfilePicture     *string
	LicenseExpiry      *time.Time
	RCExpiry           *time.Time
	VehicleNumber      *string
	VehicleModel       *string
	VehicleColor       *string
}

// CreateProfile registers the actor's driver profile. An account has at
// most one profile.
func (s *DriverService) CreateProfile(ctx context.Context, actor domain.Actor, req CreateProfileRequest) (*DriverProfile, error) {
	if actor.AccountID == "" || actor.Role != domain.RoleDriver {
		return nil, ErrUnauthorized
	}
	if err := validateCreateProfile(req); err != nil {
		return nil, err
	}

	if _, err := s.driverRepo.GetByAccountID(ctx, actor.AccountID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}

	nationalID, err := s.protector.Encrypt(req.NationalID)
	if err != nil {
		return nil, fmt.Errorf("encrypt national id: %w", err)
	}

	now := s.now()
	driver := &domain.Driver{
		ID:        uuid.New().String(),
		AccountID: actor.AccountID,
		PersonalInfo: domain.PersonalInfo{
			LanguagePreference: strings.TrimSpace(req.LanguagePreference),
			City:               strings.TrimSpace(req.City),
			ProfilePicture:     strings.TrimSpace(req.ProfilePicture),
			NationalID:         nationalID,
		},
		Documents: domain.Documents{
			LicenseNumber: strings.TrimSpace(req.LicenseNumber),
			LicenseExpiry: req.LicenseExpiry,
			RCNumber:      strings.TrimSpace(req.RCNumber),
			RCExpiry:      req.RCExpiry,
		},
		VehicleInfo: domain.VehicleInfo{
			VehicleType:   req.VehicleType,
			VehicleNumber: strings.TrimSpace(req.VehicleNumber),
			VehicleModel:  strings.TrimSpace(req.VehicleModel),
			VehicleColor:  strings.TrimSpace(req.VehicleColor),
		},
		Stats:     domain.DriverStats{Rating: DefaultDriverRating},
		CreatedAt: now,
		UpdatedAt: now,
	}
	eligibility.Refresh(driver)

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("create driver profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id":  driver.ID,
		"account_id": driver.AccountID,
		"completion": driver.Status.ProfileCompletionPercentage,
	}).Info("driver profile created")

	return s.view(ctx, driver), nil
}

// GetProfile returns the actor's driver profile.
func (s *DriverService) GetProfile(ctx context.Context, actor domain.Actor) (*DriverProfile, error) {
	driver, err := s.load(ctx, actor, true)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, driver), nil
}

// UpdateProfile applies optional field changes and recomputes completion.
func (s *DriverService) UpdateProfile(ctx context.Context, actor domain.Actor, req UpdateProfileRequest) (*DriverProfile, error) {
	driver, err := s.load(ctx, actor, false)
	if err != nil {
		return nil, err
	}

	if req.LanguagePreference != nil {
		if strings.TrimSpace(*req.LanguagePreference) == "" {
			return nil, fmt.Errorf("%w: languagePreference is required", ErrInvalidProfile)
		}
		driver.PersonalInfo.LanguagePreference = strings.TrimSpace(*req.LanguagePreference)
	}
	if req.City != nil {
		if strings.TrimSpace(*req.City) == "" {
			return nil, fmt.Errorf("%w: city is required", ErrInvalidProfile)
		}
		driver.PersonalInfo.City = strings.TrimSpace(*req.City)
	}
	setOptional(&driver.PersonalInfo.ProfilePicture, req.ProfilePicture)
	setOptional(&driver.VehicleInfo.VehicleNumber, req.VehicleNumber)
	setOptional(&driver.VehicleInfo.VehicleModel, req.VehicleModel)
	setOptional(&driver.VehicleInfo.VehicleColor, req.VehicleColor)
	if req.LicenseExpiry != nil {
		driver.Documents.LicenseExpiry = req.LicenseExpiry
	}
	if req.RCExpiry != nil {
		driver.Documents.RCExpiry = req.RCExpiry
	}

	if err := s.save(ctx, driver); err != nil {
		return nil, err
	}
	return s.view(ctx, driver), nil
}

// SetOnline toggles availability. Going online requires a complete enough,
// verified profile; going offline is always allowed.
func (s *DriverService) SetOnline(ctx context.Context, actor domain.Actor, online bool) (*DriverProfile, error) {
	driver, err := s.load(ctx, actor, false)
	if err != nil {
		return nil, err
	}

	if online {
		if err := eligibility.CheckGoOnline(driver); err != nil {
			return nil, err
		}
	}
	driver.Status.IsOnline = online

	if err := s.save(ctx, driver); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"online":    online,
	}).Info("driver availability changed")

	return s.view(ctx, driver), nil
}

// GetCompletion reports the completion score, the optional fields still
// missing and whether the driver may go online.
func (s *DriverService) GetCompletion(ctx context.Context, actor domain.Actor) (*ProfileCompletion, error) {
	driver, err := s.load(ctx, actor, true)
	if err != nil {
		return nil, err
	}

	return &ProfileCompletion{
		Percentage:    driver.Status.ProfileCompletionPercentage,
		MissingFields: eligibility.MissingOptionalFields(driver),
		CanGoOnline:   eligibility.CanGoOnline(driver),
		IsVerified:    driver.Status.IsVerified,
	}, nil
}

// Verify marks a driver profile as verified. Admins only.
func (s *DriverService) Verify(ctx context.Context, actor domain.Actor, driverID string) (*DriverProfile, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, ErrUnauthorized
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", driverID, err)
	}

	driver.Status.IsVerified = true
	if err := s.save(ctx, driver); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id":   driver.ID,
		"verified_by": actor.AccountID,
	}).Info("driver verified")

	return s.view(ctx, driver), nil
}

// load fetches the actor's profile and recomputes its completion. Only
// read paths may be served from the cache.
func (s *DriverService) load(ctx context.Context, actor domain.Actor, cached bool) (*domain.Driver, error) {
	if actor.AccountID == "" || actor.Role != domain.RoleDriver {
		return nil, ErrUnauthorized
	}

	if cached && s.cache != nil {
		if driver, err := s.cache.Get(ctx, actor.AccountID); err == nil && driver != nil {
			eligibility.Refresh(driver)
			return driver, nil
		}
	}

	driver, err := s.driverRepo.GetByAccountID(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("driver profile: %w", err)
	}
	eligibility.Refresh(driver)

	if cached && s.cache != nil {
		if err := s.cache.Set(ctx, driver); err != nil {
			s.logger.WithError(err).Warn("failed to cache driver profile")
		}
	}
	return driver, nil
}

func (s *DriverService) save(ctx context.Context, driver *domain.Driver) error {
	eligibility.Refresh(driver)
	driver.UpdatedAt = s.now()

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return fmt.Errorf("update driver profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, driver.AccountID); err != nil {
			s.logger.WithError(err).Warn("failed to invalidate driver cache")
		}
	}
	return nil
}

func (s *DriverService) view(ctx context.Context, driver *domain.Driver) *DriverProfile {
	profile := &DriverProfile{
		Driver:           driver,
		MaskedNationalID: pii.MaskCiphertext(s.protector, driver.PersonalInfo.NationalID),
	}
	if s.accountRepo == nil {
		return profile
	}

	account, err := s.accountRepo.GetByID(ctx, driver.AccountID)
	switch {
	case err == nil:
		profile.Account = newAccountSummary(account)
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.WithError(err).WithField("account_id", driver.AccountID).Warn("failed to load driver account")
	}
	return profile
}

func validateCreateProfile(req CreateProfileRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"languagePreference", req.LanguagePreference},
		{"city", req.City},
		{"nationalId", req.NationalID},
		{"licenseNumber", req.LicenseNumber},
		{"rcNumber", req.RCNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidProfile, f.name)
		}
	}
	if !fare.ValidClass(req.VehicleType) {
		return fare.ErrUnknownVehicleClass
	}
	return nil
}

func setOptional(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
