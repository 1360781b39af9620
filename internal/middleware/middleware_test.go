package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/domain"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRevocations struct {
	revoked map[string]bool
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(&strings.Builder{})
	return l
}

func newAuthedRouter(revocations RevocationChecker) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret, revocations))
	r.GET("/me", func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		id, _, _ := TokenFrom(c)
		c.JSON(http.StatusOK, gin.H{"account_id": actor.AccountID, "role": actor.Role, "token_id": id})
	})
	r.GET("/admin", RequireRole(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ResolvesActor(t *testing.T) {
	token, expiresAt, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-1", Role: domain.RoleRider}, time.Hour, time.Now())
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	w := doRequest(newAuthedRouter(nil), http.MethodGet, "/me", token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"account_id":"acc-1"`)
	assert.Contains(t, w.Body.String(), `"role":"RIDER"`)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	now := time.Now()
	valid, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-1", Role: domain.RoleDriver}, time.Hour, now)
	require.NoError(t, err)
	expired, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-1", Role: domain.RoleDriver}, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	foreign, _, err := IssueToken("other-secret", domain.Actor{AccountID: "acc-1", Role: domain.RoleDriver}, time.Hour, now)
	require.NoError(t, err)
	badRole, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-1", Role: "PILOT"}, time.Hour, now)
	require.NoError(t, err)

	r := newAuthedRouter(nil)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong secret", foreign},
		{"unknown role", badRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/me", tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	w := doRequest(r, http.MethodGet, "/me", valid)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	token, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-1", Role: domain.RoleRider}, time.Hour, time.Now())
	require.NoError(t, err)
	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)

	revocations := &stubRevocations{revoked: map[string]bool{claims.ID: true}}
	w := doRequest(newAuthedRouter(revocations), http.MethodGet, "/me", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestRequireRole(t *testing.T) {
	rider, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-1", Role: domain.RoleRider}, time.Hour, time.Now())
	require.NoError(t, err)
	admin, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-9", Role: domain.RoleAdmin}, time.Hour, time.Now())
	require.NoError(t, err)

	r := newAuthedRouter(nil)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/admin", rider).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodGet, "/admin", admin).Code)
}

func TestIdempotencyMiddleware_ReplaysPerAccount(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	calls := 0
	r := gin.New()
	r.Use(AuthMiddleware(testSecret, nil))
	r.Use(IdempotencyMiddleware(client, quietLogger()))
	r.POST("/journeys", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	tokenA, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-a", Role: domain.RoleRider}, time.Hour, time.Now())
	require.NoError(t, err)
	tokenB, _, err := IssueToken(testSecret, domain.Actor{AccountID: "acc-b", Role: domain.RoleRider}, time.Hour, time.Now())
	require.NoError(t, err)

	post := func(token, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/journeys", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(idempotencyHeader, key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := post(tokenA, "k1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.JSONEq(t, `{"call":1}`, first.Body.String())

	replay := post(tokenA, "k1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, `{"call":1}`, replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get(idempotencyReplayHeader))

	other := post(tokenB, "k1")
	assert.JSONEq(t, `{"call":2}`, other.Body.String())
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_DoesNotStoreServerErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	calls := 0
	r := gin.New()
	r.Use(IdempotencyMiddleware(client, quietLogger()))
	r.POST("/flaky", func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/flaky", nil)
		req.Header.Set(idempotencyHeader, "k1")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_KeyIsScopedToConcretePath(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var claimed []string
	r := gin.New()
	r.Use(IdempotencyMiddleware(client, quietLogger()))
	r.POST("/journeys/:id/accept", func(c *gin.Context) {
		claimed = append(claimed, c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	accept := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(idempotencyHeader, "retry-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := accept("/journeys/j-1/accept")
	second := accept("/journeys/j-2/accept")

	assert.Equal(t, []string{"j-1", "j-2"}, claimed)
	assert.JSONEq(t, `{"id":"j-1"}`, first.Body.String())
	assert.JSONEq(t, `{"id":"j-2"}`, second.Body.String())
	assert.Empty(t, second.Header().Get(idempotencyReplayHeader))

	replay := accept("/journeys/j-1/accept")
	assert.JSONEq(t, `{"id":"j-1"}`, replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get(idempotencyReplayHeader))
	assert.Len(t, claimed, 2)
}
