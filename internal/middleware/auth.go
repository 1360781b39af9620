package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"dispatch/internal/domain"
)

const (
	actorKey   = "actor"
	tokenIDKey = "token_id"
	expiresKey = "token_expires_at"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims carried by an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IssueToken signs an access token for actor valid for ttl from now.
func IssueToken(secret string, actor domain.Actor, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: actor.AccountID,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   actor.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || !domain.Role(claims.Role).Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthMiddleware resolves the bearer token into a domain.Actor. Requests
// without a valid, unrevoked token are rejected with 401.
func AuthMiddleware(secret string, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		if revocations != nil && claims.ID != "" {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "token revocation check unavailable"})
				return
			}
			if revoked {
				abortUnauthorized(c, "token revoked")
				return
			}
		}

		c.Set(actorKey, domain.Actor{AccountID: claims.UserID, Role: domain.Role(claims.Role)})
		c.Set(tokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(expiresKey, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// RequireRole rejects actors whose role is not one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abortUnauthorized(c, "missing actor")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not permitted"})
	}
}

// ActorFrom returns the authenticated actor stored by AuthMiddleware.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// TokenFrom returns the current token's ID and expiry.
func TokenFrom(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(tokenIDKey)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(expiresKey), true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
