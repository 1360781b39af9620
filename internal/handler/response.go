package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/eligibility"
	"dispatch/internal/fare"
	"dispatch/internal/lifecycle"
	"dispatch/internal/middleware"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// badRequest rejects a malformed request body.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// actor returns the authenticated caller, aborting with 401 when absent.
func actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	return a, ok
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidJourneyID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, service.ErrCompletionDetailsRequired),
		errors.Is(err, lifecycle.ErrInvalidCompletion),
		errors.Is(err, fare.ErrUnknownVehicleClass):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrJourneyNoLongerAvailable),
		errors.Is(err, service.ErrJourneyStateChanged),
		errors.Is(err, service.ErrJourneyNotCompleted),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrProfileExists),
		errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrPreconditionFailed):
		return http.StatusConflict

	// Forbidden errors
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrNotAssigned):
		return http.StatusForbidden

	// Business rule errors
	case errors.Is(err, service.ErrVehicleMismatch),
		errors.Is(err, eligibility.ErrNotEligibleToGoOnline):
		return http.StatusUnprocessableEntity

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
