package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// DriverProfileService is the driver behaviour the driver endpoints need.
type DriverProfileService interface {
	CreateProfile(ctx context.Context, actor domain.Actor, req service.CreateProfileRequest) (*service.DriverProfile, error)
	GetProfile(ctx context.Context, actor domain.Actor) (*service.DriverProfile, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, req service.UpdateProfileRequest) (*service.DriverProfile, error)
	SetOnline(ctx context.Context, actor domain.Actor, online bool) (*service.DriverProfile, error)
	GetCompletion(ctx context.Context, actor domain.Actor) (*service.ProfileCompletion, error)
	Verify(ctx context.Context, actor domain.Actor, driverID string) (*service.DriverProfile, error)
}

// DriverHandler handles HTTP requests for driver profiles.
type DriverHandler struct {
	drivers DriverProfileService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(drivers DriverProfileService) *DriverHandler {
	return &DriverHandler{drivers: drivers}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	LanguagePreference string     `json:"language_preference"`
	City               string     `json:"city"`
	ProfilePicture     string     `json:"profile_picture,omitempty"`
	NationalID         string     `json:"national_id"`
	LicenseNumber      string     `json:"license_number"`
	LicenseExpiry      *time.Time `json:"license_expiry,omitempty"`
	RCNumber           string     `json:"rc_number"`
	RCExpiry           *time.Time `json:"rc_expiry,omitempty"`
	VehicleType        string     `json:"vehicle_type"`
	VehicleNumber      string     `json:"vehicle_number,omitempty"`
	VehicleModel       string     `json:"vehicle_model,omitempty"`
	VehicleColor       string     `json:"vehicle_color,omitempty"`
}

// UpdateDriverRequest is the HTTP request body for a profile update. Absent
// fields are left unchanged.
type UpdateDriverRequest struct {
	LanguagePreference *string    `json:"language_preference,omitempty"`
	City               *string    `json:"city,omitempty"`
	ProfilePicture     *string    `json:"profile_picture,omitempty"`
	LicenseExpiry      *time.Time `json:"license_expiry,omitempty"`
	RCExpiry           *time.Time `json:"rc_expiry,omitempty"`
	VehicleNumber      *string    `json:"vehicle_number,omitempty"`
	VehicleModel       *string    `json:"vehicle_model,omitempty"`
	VehicleColor       *string    `json:"vehicle_color,omitempty"`
}

// SetStatusRequest is the HTTP request body for going online or offline.
type SetStatusRequest struct {
	IsOnline *bool `json:"is_online"`
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	profile, err := h.drivers.CreateProfile(c.Request.Context(), a, service.CreateProfileRequest{
		LanguagePreference: req.LanguagePreference,
		City:               req.City,
		ProfilePicture:     req.ProfilePicture,
		NationalID:         req.NationalID,
		LicenseNumber:      req.LicenseNumber,
		LicenseExpiry:      req.LicenseExpiry,
		RCNumber:           req.RCNumber,
		RCExpiry:           req.RCExpiry,
		VehicleType:        domain.VehicleClass(strings.ToUpper(req.VehicleType)),
		VehicleNumber:      req.VehicleNumber,
		VehicleModel:       req.VehicleModel,
		VehicleColor:       req.VehicleColor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newDriverProfileResponse(profile))
}

// GetProfile handles GET /v1/drivers/me
func (h *DriverHandler) GetProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	profile, err := h.drivers.GetProfile(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newDriverProfileResponse(profile))
}

// UpdateProfile handles PATCH /v1/drivers/me
func (h *DriverHandler) UpdateProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	profile, err := h.drivers.UpdateProfile(c.Request.Context(), a, service.UpdateProfileRequest{
		LanguagePreference: req.LanguagePreference,
		City:               req.City,
		ProfilePicture:     req.ProfilePicture,
		LicenseExpiry:      req.LicenseExpiry,
		RCExpiry:           req.RCExpiry,
		VehicleNumber:      req.VehicleNumber,
		VehicleModel:       req.VehicleModel,
		VehicleColor:       req.VehicleColor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newDriverProfileResponse(profile))
}

// SetStatus handles PATCH /v1/drivers/me/status
func (h *DriverHandler) SetStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsOnline == nil {
		badRequest(c, "is_online is required")
		return
	}

	profile, err := h.drivers.SetOnline(c.Request.Context(), a, *req.IsOnline)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newDriverProfileResponse(profile))
}

// GetCompletion handles GET /v1/drivers/me/completion
func (h *DriverHandler) GetCompletion(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	completion, err := h.drivers.GetCompletion(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newCompletionResponse(completion))
}

// Verify handles POST /v1/drivers/:id/verify
func (h *DriverHandler) Verify(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	profile, err := h.drivers.Verify(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newDriverProfileResponse(profile))
}
