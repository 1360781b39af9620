package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/events"
	"dispatch/internal/handler"
	"dispatch/internal/logger"
	"dispatch/internal/pii"
	"dispatch/internal/qrcode"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	cipher, err := pii.NewCipher(cfg.PII.EncryptionKey)
	if err != nil {
		log.WithError(err).Fatal("invalid PII_ENCRYPTION_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// appCtx outlives startup; it stops the broker reconnect loop on exit.
	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	publisher := newPublisher(appCtx, cfg.RabbitMQ, log)
	defer publisher.Close()

	server := wireServer(db, redisClient, publisher, cipher, nrApp, cfg, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

type closablePublisher interface {
	events.Publisher
	Close() error
}

type nopCloser struct{ events.NopPublisher }

func (nopCloser) Close() error { return nil }

// newPublisher connects to RabbitMQ. Without a broker, journey events are
// dropped and dispatch keeps working.
func newPublisher(ctx context.Context, cfg config.RabbitMQConfig, log *logrus.Logger) closablePublisher {
	if cfg.URL == "" {
		log.Warn("RABBITMQ_URL not set, journey events disabled")
		return nopCloser{}
	}
	mq, err := events.NewRabbitMQ(ctx, cfg.URL, log)
	if err != nil {
		log.WithError(err).Warn("failed to connect to RabbitMQ, journey events disabled")
		return nopCloser{}
	}
	log.Info("connected to RabbitMQ")
	return mq
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher events.Publisher,
	cipher *pii.Cipher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	log *logrus.Logger,
) *http.Server {
	// Redis stores.
	driverCache := internalRedis.NewDriverCache(redisClient)
	revocations := internalRedis.NewRevocationStore(redisClient)

	// Repositories.
	accountRepo := postgres.NewAccountRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	journeyRepo := postgres.NewJourneyRepository(db)
	uow := postgres.NewUnitOfWork(db)

	// Services.
	dispatchService := service.NewDispatchService(service.DispatchDeps{
		JourneyRepo: journeyRepo,
		DriverRepo:  driverRepo,
		AccountRepo: accountRepo,
		UnitOfWork:  uow,
		Publisher:   publisher,
		Logger:      log,
	})
	driverService := service.NewDriverService(driverRepo, accountRepo, cipher, driverCache, log)

	// Handlers.
	journeyHandler := handler.NewJourneyHandler(dispatchService, qrcode.NewRenderer(qrcode.DefaultSize))
	driverHandler := handler.NewDriverHandler(driverService)
	accountHandler := handler.NewAccountHandler(accountRepo, revocations, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)

	router := app.NewRouter(app.RouterDeps{
		JourneyHandler: journeyHandler,
		DriverHandler:  driverHandler,
		AccountHandler: accountHandler,
		RedisClient:    redisClient,
		Revocations:    revocations,
		JWTSecret:      cfg.Auth.JWTSecret,
		NewRelicApp:    nrApp,
		Logger:         log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
