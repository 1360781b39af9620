package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dispatch/internal/domain"
	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	JourneyHandler *handler.JourneyHandler
	DriverHandler  *handler.DriverHandler
	AccountHandler *handler.AccountHandler
	RedisClient    *redis.Client
	Revocations    middleware.RevocationChecker
	JWTSecret      string
	NewRelicApp    *newrelic.Application
	Logger         *logrus.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/accounts", deps.AccountHandler.Register)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.Revocations))
	if deps.RedisClient != nil {
		authed.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))
	}
	{
		authed.POST("/auth/logout", deps.AccountHandler.Logout)
		authed.POST("/fares/estimate", deps.JourneyHandler.EstimateFare)

		journeys := authed.Group("/journeys")
		{
			journeys.POST("", middleware.RequireRole(domain.RoleRider), deps.JourneyHandler.CreateJourney)
			journeys.GET("/rider/history", deps.JourneyHandler.RiderHistory)
			journeys.GET("/driver/history", middleware.RequireRole(domain.RoleDriver), deps.JourneyHandler.DriverHistory)
			journeys.GET("/:id", deps.JourneyHandler.GetJourney)
			journeys.POST("/:id/accept", middleware.RequireRole(domain.RoleDriver), deps.JourneyHandler.ClaimJourney)
			journeys.PATCH("/:id/status", deps.JourneyHandler.AdvanceStatus)
			journeys.POST("/:id/complete", middleware.RequireRole(domain.RoleDriver), deps.JourneyHandler.CompleteJourney)
			journeys.POST("/:id/cancel", deps.JourneyHandler.CancelJourney)
			journeys.GET("/:id/payment-qr", middleware.RequireRole(domain.RoleRider), deps.JourneyHandler.PaymentCode)
			journeys.POST("/:id/confirm-payment", middleware.RequireRole(domain.RoleRider), deps.JourneyHandler.ConfirmPayment)
		}

		drivers := authed.Group("/drivers")
		{
			drivers.POST("/register", middleware.RequireRole(domain.RoleDriver), deps.DriverHandler.Register)
			drivers.GET("/me", deps.DriverHandler.GetProfile)
			drivers.PATCH("/me", deps.DriverHandler.UpdateProfile)
			drivers.PATCH("/me/status", deps.DriverHandler.SetStatus)
			drivers.GET("/me/completion", deps.DriverHandler.GetCompletion)
			drivers.POST("/:id/verify", middleware.RequireRole(domain.RoleAdmin), deps.DriverHandler.Verify)
		}
	}

	return router
}
