package handler

import (
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/eligibility"
	"dispatch/internal/service"
)

// PlaceRequest is an address with [lng, lat] coordinates.
type PlaceRequest struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates"`
}

// toPlace converts the request into a domain.Place. ok is false when the
// coordinates are not a [lng, lat] pair.
func (p PlaceRequest) toPlace() (domain.Place, bool) {
	if len(p.Coordinates) != 2 {
		return domain.Place{}, false
	}
	return domain.Place{
		Address: p.Address,
		Point:   domain.Point{Lng: p.Coordinates[0], Lat: p.Coordinates[1]},
	}, true
}

// PlaceResponse is an address with [lng, lat] coordinates.
type PlaceResponse struct {
	Address     string     `json:"address"`
	Coordinates [2]float64 `json:"coordinates"`
}

func newPlaceResponse(p domain.Place) PlaceResponse {
	return PlaceResponse{Address: p.Address, Coordinates: [2]float64{p.Point.Lng, p.Point.Lat}}
}

// JourneyResponse is the HTTP representation of a journey.
type JourneyResponse struct {
	ID                  string        `json:"id"`
	RiderID             string        `json:"rider_id"`
	DriverID            string        `json:"driver_id,omitempty"`
	VehicleClass        string        `json:"vehicle_class"`
	Status              string        `json:"status"`
	Pickup              PlaceResponse `json:"pickup"`
	Dropoff             PlaceResponse `json:"dropoff"`
	EstimatedFare       int64         `json:"estimated_fare"`
	EstimatedDistanceKm float64       `json:"estimated_distance_km"`
	ActualFare          *int64        `json:"actual_fare,omitempty"`
	DistanceKm          *float64      `json:"distance_km,omitempty"`
	DurationMinutes     *int64        `json:"duration_minutes,omitempty"`
	PaymentMethod       string        `json:"payment_method"`
	PaymentStatus       string        `json:"payment_status"`
	RequestedAt         time.Time     `json:"requested_at"`
	AcceptedAt          *time.Time    `json:"accepted_at,omitempty"`
	ArrivedAt           *time.Time    `json:"arrived_at,omitempty"`
	StartedAt           *time.Time    `json:"started_at,omitempty"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty"`
	CancellationReason  string        `json:"cancellation_reason,omitempty"`
	CancelledBy         string        `json:"cancelled_by,omitempty"`
	Rating              *int          `json:"rating,omitempty"`
	Feedback            string        `json:"feedback,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`

	Rider  *AccountSummaryResponse `json:"rider,omitempty"`
	Driver *DriverSummaryResponse  `json:"driver,omitempty"`
}

// AccountSummaryResponse is the contact block of a rider or driver account.
type AccountSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func newAccountSummaryResponse(a *service.AccountSummary) *AccountSummaryResponse {
	if a == nil {
		return nil
	}
	return &AccountSummaryResponse{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone}
}

// DriverSummaryResponse is the assigned driver and vehicle shown on a journey.
type DriverSummaryResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	VehicleType   string  `json:"vehicle_type,omitempty"`
	VehicleNumber string  `json:"vehicle_number,omitempty"`
	VehicleModel  string  `json:"vehicle_model,omitempty"`
	VehicleColor  string  `json:"vehicle_color,omitempty"`
	Rating        float64 `json:"rating"`
}

func newDriverSummaryResponse(d *service.DriverSummary) *DriverSummaryResponse {
	if d == nil {
		return nil
	}
	return &DriverSummaryResponse{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		VehicleType:   string(d.VehicleType),
		VehicleNumber: d.VehicleNumber,
		VehicleModel:  d.VehicleModel,
		VehicleColor:  d.VehicleColor,
		Rating:        d.Rating,
	}
}

func newJourneyResponse(v *service.JourneyView) JourneyResponse {
	j := v.Journey
	return JourneyResponse{
		ID:                  j.ID,
		RiderID:             j.RiderID,
		DriverID:            j.DriverID,
		VehicleClass:        string(j.VehicleClass),
		Status:              string(j.Status),
		Pickup:              newPlaceResponse(j.Pickup),
		Dropoff:             newPlaceResponse(j.Dropoff),
		EstimatedFare:       j.EstimatedFare,
		EstimatedDistanceKm: j.EstimatedDistanceKm,
		ActualFare:          j.ActualFare,
		DistanceKm:          j.DistanceKm,
		DurationMinutes:     j.DurationMinutes,
		PaymentMethod:       string(j.PaymentMethod),
		PaymentStatus:       string(j.PaymentStatus),
		RequestedAt:         j.RequestedAt,
		AcceptedAt:          j.AcceptedAt,
		ArrivedAt:           j.ArrivedAt,
		StartedAt:           j.StartedAt,
		CompletedAt:         j.CompletedAt,
		CancelledAt:         j.CancelledAt,
		CancellationReason:  j.CancellationReason,
		CancelledBy:         string(j.CancelledBy),
		Rating:              j.Rating,
		Feedback:            j.Feedback,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
		Rider:               newAccountSummaryResponse(v.Rider),
		Driver:              newDriverSummaryResponse(v.Driver),
	}
}

func newJourneyList(views []*service.JourneyView) []JourneyResponse {
	out := make([]JourneyResponse, 0, len(views))
	for _, v := range views {
		out = append(out, newJourneyResponse(v))
	}
	return out
}

// DriverProfileResponse is the HTTP representation of a driver profile. The
// national ID is always masked.
type DriverProfileResponse struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	PersonalInfo struct {
		LanguagePreference string `json:"language_preference,omitempty"`
		City               string `json:"city,omitempty"`
		ProfilePicture     string `json:"profile_picture,omitempty"`
		NationalID         string `json:"national_id,omitempty"`
	} `json:"personal_info"`
	Documents struct {
		LicenseNumber string     `json:"license_number,omitempty"`
		LicenseExpiry *time.Time `json:"license_expiry,omitempty"`
		RCNumber      string     `json:"rc_number,omitempty"`
		RCExpiry      *time.Time `json:"rc_expiry,omitempty"`
	} `json:"documents"`
	VehicleInfo struct {
		VehicleType   string `json:"vehicle_type,omitempty"`
		VehicleNumber string `json:"vehicle_number,omitempty"`
		VehicleModel  string `json:"vehicle_model,omitempty"`
		VehicleColor  string `json:"vehicle_color,omitempty"`
	} `json:"vehicle_info"`
	Status struct {
		IsOnline                    bool `json:"is_online"`
		IsVerified                  bool `json:"is_verified"`
		ProfileCompletionPercentage int  `json:"profile_completion_percentage"`
	} `json:"status"`
	Stats struct {
		Rating     float64 `json:"rating"`
		TotalRides int64   `json:"total_rides"`
	} `json:"stats"`
	Account *AccountSummaryResponse `json:"account,omitempty"`
}

func newDriverProfileResponse(p *service.DriverProfile) DriverProfileResponse {
	d := p.Driver
	var r DriverProfileResponse
	r.ID = d.ID
	r.AccountID = d.AccountID
	r.PersonalInfo.LanguagePreference = d.PersonalInfo.LanguagePreference
	r.PersonalInfo.City = d.PersonalInfo.City
	r.PersonalInfo.ProfilePicture = d.PersonalInfo.ProfilePicture
	r.PersonalInfo.NationalID = p.MaskedNationalID
	r.Documents.LicenseNumber = d.Documents.LicenseNumber
	r.Documents.LicenseExpiry = d.Documents.LicenseExpiry
	r.Documents.RCNumber = d.Documents.RCNumber
	r.Documents.RCExpiry = d.Documents.RCExpiry
	r.VehicleInfo.VehicleType = string(d.VehicleInfo.VehicleType)
	r.VehicleInfo.VehicleNumber = d.VehicleInfo.VehicleNumber
	r.VehicleInfo.VehicleModel = d.VehicleInfo.VehicleModel
	r.VehicleInfo.VehicleColor = d.VehicleInfo.VehicleColor
	r.Status.IsOnline = d.Status.IsOnline
	r.Status.IsVerified = d.Status.IsVerified
	r.Status.ProfileCompletionPercentage = d.Status.ProfileCompletionPercentage
	r.Stats.Rating = d.Stats.Rating
	r.Stats.TotalRides = d.Stats.TotalRides
	r.Account = newAccountSummaryResponse(p.Account)
	return r
}

// MissingFieldResponse names an optional profile field that would raise the score.
type MissingFieldResponse struct {
	Field  string `json:"field"`
	Weight int    `json:"weight"`
	Label  string `json:"label"`
}

// CompletionResponse is the HTTP representation of profile completion.
type CompletionResponse struct {
	Percentage    int                    `json:"percentage"`
	MissingFields []MissingFieldResponse `json:"missing_fields"`
	CanGoOnline   bool                   `json:"can_go_online"`
	IsVerified    bool                   `json:"is_verified"`
}

func newCompletionResponse(c *service.ProfileCompletion) CompletionResponse {
	return CompletionResponse{
		Percentage:    c.Percentage,
		MissingFields: newMissingFields(c.MissingFields),
		CanGoOnline:   c.CanGoOnline,
		IsVerified:    c.IsVerified,
	}
}

func newMissingFields(fields []eligibility.MissingField) []MissingFieldResponse {
	out := make([]MissingFieldResponse, 0, len(fields))
	for _, f := range fields {
		out = append(out, MissingFieldResponse{Field: f.Field, Weight: f.Weight, Label: f.Label})
	}
	return out
}
