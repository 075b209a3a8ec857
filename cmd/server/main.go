package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetbook/internal/audit"
	"fleetbook/internal/booking"
	"fleetbook/internal/booking/adapters"
	"fleetbook/internal/booking/adapters/notifier"
	"fleetbook/internal/booking/adapters/payment"
	bookinghandler "fleetbook/internal/booking/handler"
	bookingmetrics "fleetbook/internal/booking/metrics"
	"fleetbook/internal/booking/ports"
	"fleetbook/internal/booking/store/idempotency"
	"fleetbook/internal/identity"
	identityhandler "fleetbook/internal/identity/handler"
	jwttoken "fleetbook/internal/jwt_token"
	"fleetbook/internal/ledger"
	"fleetbook/internal/platform/config"
	"fleetbook/internal/platform/httpserver"
	"fleetbook/internal/platform/logger"
	platformmetrics "fleetbook/internal/platform/metrics"
	platformredis "fleetbook/internal/platform/redis"
	httptransport "fleetbook/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	adminID, err := loadAdminIdentity(cfg)
	if err != nil {
		log.Error("failed to load administrative identity", "error", err)
		os.Exit(1)
	}
	log.Info("administrative identity ready", "principal", adminID.Principal().String())

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var claims ports.IdempotencyStore
	if redisClient != nil {
		claims = idempotency.NewRedis(redisClient.Client)
		log.Info("using redis idempotency store")
	} else {
		claims = idempotency.NewMemory()
		log.Info("using in-memory idempotency store")
	}

	auditSvc, auditWorker := audit.NewQueued(audit.NewMemoryStore(), 256)
	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		_ = auditWorker.Run(auditCtx)
	}()

	ledgerClient := ledger.NewClient(cfg)
	bookingSvc := booking.NewService(
		adapters.NewLedgerAdapter(ledgerClient, adminID),
		payment.NewRazorpay(cfg.Payment, cfg.RemoteTimeout),
		notifier.NewEmail(cfg.Email, cfg.RemoteTimeout),
		claims,
		auditSvc,
		bookingmetrics.New(),
		log,
	)

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "fleetbook", "fleetbook-internal")

	router := httptransport.NewRouter(httptransport.Deps{
		Booking:        bookinghandler.New(bookingSvc, log),
		Identity:       identityhandler.New(adminID, auditSvc, log),
		JWT:            jwttoken.NewJWTServiceAdapter(jwtSvc),
		Logger:         log,
		Metrics:        platformmetrics.New(),
		RequestTimeout: 2 * cfg.RemoteTimeout,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting fleetbook", "addr", cfg.Addr, "ledger_url", cfg.LedgerURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	stopAudit()
	<-auditDone
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// loadAdminIdentity reads the administrative root key from configuration. A
// missing key falls back to an ephemeral identity so local development works
// out of the box; delegations minted from it die with the process.
func loadAdminIdentity(cfg config.Server) (*identity.Identity, error) {
	if cfg.AdminKeyPEM != "" {
		return identity.FromPEM([]byte(cfg.AdminKeyPEM))
	}
	return identity.Generate()
}
