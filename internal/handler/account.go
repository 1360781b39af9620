package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dispatch/internal/domain"
	"dispatch/internal/middleware"
	"dispatch/internal/repository"
)

// TokenRevoker revokes access tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AccountHandler handles account registration and logout.
type AccountHandler struct {
	accountRepo repository.AccountRepository
	revoker     TokenRevoker
	jwtSecret   string
	tokenTTL    time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountRepo repository.AccountRepository,
	revoker TokenRevoker,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *logrus.Logger,
) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
		revoker:     revoker,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterAccountRequest is the HTTP request body for account registration.
type RegisterAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// AccountResponse is the HTTP response for a registered account.
type AccountResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Role        string    `json:"role"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register handles POST /v1/accounts
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" || req.Phone == "" {
		badRequest(c, "name, email and phone are required")
		return
	}

	// Admin accounts are provisioned out of band.
	role := domain.Role(strings.ToUpper(req.Role))
	if role != domain.RoleRider && role != domain.RoleDriver {
		badRequest(c, "role must be RIDER or DRIVER")
		return
	}

	account := &domain.Account{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      role,
		CreatedAt: h.now(),
	}
	if err := h.accountRepo.Create(c.Request.Context(), account); err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := middleware.IssueToken(h.jwtSecret, domain.Actor{AccountID: account.ID, Role: role}, h.tokenTTL, h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       role,
	}).Info("account registered")

	respondJSON(c, http.StatusCreated, AccountResponse{
		ID:          account.ID,
		Name:        account.Name,
		Email:       account.Email,
		Phone:       account.Phone,
		Role:        string(account.Role),
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}

// Logout handles POST /v1/auth/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	tokenID, expiresAt, ok := middleware.TokenFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	if err := h.revoker.Revoke(c.Request.Context(), tokenID, expiresAt.Sub(h.now())); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
