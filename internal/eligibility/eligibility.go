// Package eligibility decides whether a driver may go online and how
// complete their profile is.
package eligibility

import (
	"errors"
	"fmt"

	"dispatch/internal/domain"
)

// MinCompletionToGoOnline is the completion score required to go online.
const MinCompletionToGoOnline = 70

var (
	// ErrNotEligibleToGoOnline is the parent of every go-online refusal.
	ErrNotEligibleToGoOnline = errors.New("driver is not eligible to go online")

	// ErrProfileIncomplete is returned when the completion score is below the minimum.
	ErrProfileIncomplete = fmt.Errorf("%w: profile must be at least %d%% complete", ErrNotEligibleToGoOnline, MinCompletionToGoOnline)

	// ErrPendingVerification is returned when the profile has not been verified.
	ErrPendingVerification = fmt.Errorf("%w: profile is pending verification", ErrNotEligibleToGoOnline)
)

// MissingField describes an optional profile field that is not filled in.
type MissingField struct {
	Field  string `json:"field"`
	Weight int    `json:"weight"`
	Label  string `json:"label"`
}

type weightedField struct {
	field   string
	label   string
	weight  int
	present func(d *domain.Driver) bool
}

var mandatory = []weightedField{
	{"languagePreference", "Language Preference", 10, func(d *domain.Driver) bool { return d.PersonalInfo.LanguagePreference != "" }},
	{"city", "City", 10, func(d *domain.Driver) bool { return d.PersonalInfo.City != "" }},
	{"nationalId", "National ID", 15, func(d *domain.Driver) bool { return d.PersonalInfo.NationalID != "" }},
	{"licenseNumber", "License Number", 15, func(d *domain.Driver) bool { return d.Documents.LicenseNumber != "" }},
	{"rcNumber", "RC Number", 10, func(d *domain.Driver) bool { return d.Documents.RCNumber != "" }},
	{"vehicleType", "Vehicle Type", 10, func(d *domain.Driver) bool { return d.VehicleInfo.VehicleType != "" }},
}

var optional = []weightedField{
	{"profilePicture", "Profile Picture", 10, func(d *domain.Driver) bool { return d.PersonalInfo.ProfilePicture != "" }},
	{"licenseExpiry", "License Expiry Date", 5, func(d *domain.Driver) bool { return d.Documents.LicenseExpiry != nil }},
	{"rcExpiry", "RC Expiry Date", 5, func(d *domain.Driver) bool { return d.Documents.RCExpiry != nil }},
	{"vehicleModel", "Vehicle Model", 5, func(d *domain.Driver) bool { return d.VehicleInfo.VehicleModel != "" }},
	{"vehicleColor", "Vehicle Color", 5, func(d *domain.Driver) bool { return d.VehicleInfo.VehicleColor != "" }},
}

// CompletionScore sums the weights of the fields present on the profile.
func CompletionScore(d *domain.Driver) int {
	score := 0
	for _, f := range mandatory {
		if f.present(d) {
			score += f.weight
		}
	}
	for _, f := range optional {
		if f.present(d) {
			score += f.weight
		}
	}
	return score
}

// MissingOptionalFields lists the optional fields still to be filled in.
func MissingOptionalFields(d *domain.Driver) []MissingField {
	missing := make([]MissingField, 0, len(optional))
	for _, f := range optional {
		if !f.present(d) {
			missing = append(missing, MissingField{Field: f.field, Weight: f.weight, Label: f.label})
		}
	}
	return missing
}

// CanGoOnline reports whether the driver is complete enough and verified.
func CanGoOnline(d *domain.Driver) bool {
	return CheckGoOnline(d) == nil
}

// CheckGoOnline explains why a driver cannot go online. Completion is
// checked before verification.
func CheckGoOnline(d *domain.Driver) error {
	if CompletionScore(d) < MinCompletionToGoOnline {
		return ErrProfileIncomplete
	}
	if !d.Status.IsVerified {
		return ErrPendingVerification
	}
	return nil
}

// CanReceiveOffers reports whether the driver may claim journeys right now.
func CanReceiveOffers(d *domain.Driver) bool {
	return d.Status.IsOnline && d.Status.IsVerified
}

// Refresh recomputes the derived completion percentage on d.
func Refresh(d *domain.Driver) {
	d.Status.ProfileCompletionPercentage = CompletionScore(d)
}
