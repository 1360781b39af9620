package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows browser clients on any origin to call the API with a
// bearer token.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader},
		ExposeHeaders:   []string{"Content-Length", idempotencyReplayHeader},
		MaxAge:          12 * time.Hour,
	})
}
