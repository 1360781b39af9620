package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/fare"
	"dispatch/internal/lifecycle"
	"dispatch/internal/service"
)

// JourneyService is the dispatch behaviour the journey endpoints need.
type JourneyService interface {
	EstimateFare(req service.EstimateFareRequest) (fare.Estimate, error)
	CreateJourney(ctx context.Context, actor domain.Actor, req service.CreateJourneyRequest) (*domain.Journey, error)
	ClaimJourney(ctx context.Context, actor domain.Actor, journeyID string) (*domain.Journey, error)
	AdvanceJourneyStatus(ctx context.Context, actor domain.Actor, journeyID string, target domain.JourneyStatus) (*domain.Journey, error)
	CompleteJourney(ctx context.Context, actor domain.Actor, journeyID string, details lifecycle.Completion) (*domain.Journey, error)
	CancelJourney(ctx context.Context, actor domain.Actor, journeyID, reason string) (*domain.Journey, error)
	GetJourney(ctx context.Context, actor domain.Actor, journeyID string) (*domain.Journey, error)
	ListJourneysForRider(ctx context.Context, actor domain.Actor, status domain.JourneyStatus) ([]*domain.Journey, error)
	ListJourneysForDriver(ctx context.Context, actor domain.Actor, status domain.JourneyStatus) ([]*domain.Journey, error)
	GeneratePaymentIntent(ctx context.Context, actor domain.Actor, journeyID string) (*service.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, actor domain.Actor, journeyID string) (*service.PaymentConfirmation, error)
	DescribeJourneys(ctx context.Context, journeys ...*domain.Journey) []*service.JourneyView
}

// PaymentCodeRenderer turns a payment intent into a scannable image.
type PaymentCodeRenderer interface {
	DataURL(payload any) (string, error)
}

// JourneyHandler handles HTTP requests for journeys.
type JourneyHandler struct {
	journeys JourneyService
	codes    PaymentCodeRenderer
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(journeys JourneyService, codes PaymentCodeRenderer) *JourneyHandler {
	return &JourneyHandler{journeys: journeys, codes: codes}
}

// EstimateFareRequest is the HTTP request body for a fare quote.
type EstimateFareRequest struct {
	Pickup       []float64 `json:"pickup"`
	Dropoff      []float64 `json:"dropoff"`
	VehicleClass string    `json:"vehicle_class"`
}

// EstimateFareResponse is the HTTP response for a fare quote.
type EstimateFareResponse struct {
	VehicleClass string  `json:"vehicle_class"`
	DistanceKm   float64 `json:"distance_km"`
	Fare         int64   `json:"fare"`
}

// CreateJourneyRequest is the HTTP request body for requesting a journey.
type CreateJourneyRequest struct {
	Pickup        PlaceRequest `json:"pickup"`
	Dropoff       PlaceRequest `json:"dropoff"`
	VehicleClass  string       `json:"vehicle_class"`
	PaymentMethod string       `json:"payment_method,omitempty"` // CASH, CARD, UPI, WALLET
}

// AdvanceStatusRequest is the HTTP request body for a status change.
type AdvanceStatusRequest struct {
	Status string `json:"status"`
}

// CompleteJourneyRequest is the HTTP request body for completing a journey.
type CompleteJourneyRequest struct {
	ActualFare      int64   `json:"actual_fare"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int64   `json:"duration_minutes"`
}

// CancelJourneyRequest is the HTTP request body for cancelling a journey.
type CancelJourneyRequest struct {
	Reason string `json:"reason,omitempty"`
}

// PaymentCodeResponse is the HTTP response for a payment code.
type PaymentCodeResponse struct {
	Intent *service.PaymentIntent `json:"intent"`
	QRCode string                 `json:"qr_code"`
}

// EstimateFare handles POST /v1/fares/estimate
func (h *JourneyHandler) EstimateFare(c *gin.Context) {
	var req EstimateFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if len(req.Pickup) != 2 || len(req.Dropoff) != 2 {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	class := domain.VehicleClass(strings.ToUpper(req.VehicleClass))
	estimate, err := h.journeys.EstimateFare(service.EstimateFareRequest{
		Pickup:       domain.Point{Lng: req.Pickup[0], Lat: req.Pickup[1]},
		Dropoff:      domain.Point{Lng: req.Dropoff[0], Lat: req.Dropoff[1]},
		VehicleClass: class,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EstimateFareResponse{
		VehicleClass: string(class),
		DistanceKm:   estimate.DistanceKm,
		Fare:         estimate.Fare,
	})
}

// CreateJourney handles POST /v1/journeys
func (h *JourneyHandler) CreateJourney(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req CreateJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	pickup, okPickup := req.Pickup.toPlace()
	dropoff, okDropoff := req.Dropoff.toPlace()
	if !okPickup || !okDropoff {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	journey, err := h.journeys.CreateJourney(c.Request.Context(), a, service.CreateJourneyRequest{
		Pickup:        pickup,
		Dropoff:       dropoff,
		VehicleClass:  domain.VehicleClass(strings.ToUpper(req.VehicleClass)),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	views := h.journeys.DescribeJourneys(c.Request.Context(), journey)
	respondJSON(c, http.StatusCreated, newJourneyResponse(views[0]))
}

// GetJourney handles GET /v1/journeys/:id
func (h *JourneyHandler) GetJourney(c *gin.Context) {
	h.withJourney(c, h.journeys.GetJourney)
}

// ClaimJourney handles POST /v1/journeys/:id/accept
func (h *JourneyHandler) ClaimJourney(c *gin.Context) {
	h.withJourney(c, h.journeys.ClaimJourney)
}

// AdvanceStatus handles PATCH /v1/journeys/:id/status
func (h *JourneyHandler) AdvanceStatus(c *gin.Context) {
	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	target := domain.JourneyStatus(strings.ToUpper(req.Status))
	h.withJourney(c, func(ctx context.Context, a domain.Actor, id string) (*domain.Journey, error) {
		return h.journeys.AdvanceJourneyStatus(ctx, a, id, target)
	})
}

// CompleteJourney handles POST /v1/journeys/:id/complete
func (h *JourneyHandler) CompleteJourney(c *gin.Context) {
	var req CompleteJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	details := lifecycle.Completion{
		ActualFare:      req.ActualFare,
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
	}
	h.withJourney(c, func(ctx context.Context, a domain.Actor, id string) (*domain.Journey, error) {
		return h.journeys.CompleteJourney(ctx, a, id, details)
	})
}

// CancelJourney handles POST /v1/journeys/:id/cancel
func (h *JourneyHandler) CancelJourney(c *gin.Context) {
	var req CancelJourneyRequest
	// Body is optional.
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "invalid request body")
			return
		}
	}

	h.withJourney(c, func(ctx context.Context, a domain.Actor, id string) (*domain.Journey, error) {
		return h.journeys.CancelJourney(ctx, a, id, req.Reason)
	})
}

// RiderHistory handles GET /v1/journeys/rider/history
func (h *JourneyHandler) RiderHistory(c *gin.Context) {
	h.history(c, h.journeys.ListJourneysForRider)
}

// DriverHistory handles GET /v1/journeys/driver/history
func (h *JourneyHandler) DriverHistory(c *gin.Context) {
	h.history(c, h.journeys.ListJourneysForDriver)
}

// PaymentCode handles GET /v1/journeys/:id/payment-qr
func (h *JourneyHandler) PaymentCode(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	intent, err := h.journeys.GeneratePaymentIntent(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	code, err := h.codes.DataURL(intent)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentCodeResponse{Intent: intent, QRCode: code})
}

// ConfirmPayment handles POST /v1/journeys/:id/confirm-payment
func (h *JourneyHandler) ConfirmPayment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	confirmation, err := h.journeys.ConfirmPayment(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, confirmation)
}

type journeyOp func(ctx context.Context, actor domain.Actor, journeyID string) (*domain.Journey, error)

func (h *JourneyHandler) withJourney(c *gin.Context, op journeyOp) {
	a, ok := actor(c)
	if !ok {
		return
	}

	journey, err := op(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	views := h.journeys.DescribeJourneys(c.Request.Context(), journey)
	respondJSON(c, http.StatusOK, newJourneyResponse(views[0]))
}

type historyOp func(ctx context.Context, actor domain.Actor, status domain.JourneyStatus) ([]*domain.Journey, error)

func (h *JourneyHandler) history(c *gin.Context, op historyOp) {
	a, ok := actor(c)
	if !ok {
		return
	}

	status := domain.JourneyStatus(strings.ToUpper(c.Query("status")))
	journeys, err := op(c.Request.Context(), a, status)
	if err != nil {
		respondError(c, err)
		return
	}

	views := h.journeys.DescribeJourneys(c.Request.Context(), journeys...)
	respondJSON(c, http.StatusOK, gin.H{"journeys": newJourneyList(views)})
}
