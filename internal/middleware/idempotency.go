package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	idempotencyReplayHeader = "Idempotent-Replay"
	idempotencyTTL          = 24 * time.Hour
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response when a mutating request
// repeats an Idempotency-Key. Keys are scoped to the authenticated account so
// two callers can never see each other's responses. Only 2xx and 4xx
// responses are stored; a 5xx may be retried.
func IdempotencyMiddleware(redisClient *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		scope := "anonymous"
		if actor, ok := ActorFrom(c); ok {
			scope = actor.AccountID
		}
		cacheKey := "idempotency:" + scope + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		ctx := c.Request.Context()

		cached, err := getCachedResponse(ctx, redisClient, cacheKey)
		if err != nil && err != redis.Nil {
			logger.WithError(err).Warn("idempotency lookup failed, processing request")
			c.Next()
			return
		}

		if cached != nil {
			c.Header(idempotencyReplayHeader, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 500 {
			return
		}
		response := cachedResponse{
			StatusCode:  status,
			Body:        w.body.Bytes(),
			ContentType: c.Writer.Header().Get("Content-Type"),
		}
		if err := setCachedResponse(ctx, redisClient, cacheKey, &response, idempotencyTTL); err != nil {
			logger.WithError(err).Warn("failed to store idempotent response")
		}
	}
}

func getCachedResponse(ctx context.Context, client *redis.Client, key string) (*cachedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func setCachedResponse(ctx context.Context, client *redis.Client, key string, response *cachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, ttl).Err()
}
