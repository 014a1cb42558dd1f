// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"auditgate/internal/audit"
	auditpg "auditgate/internal/audit/store/postgres"
	"auditgate/internal/events"
	"auditgate/internal/jwtauth"
	"auditgate/internal/platform/config"
	"auditgate/internal/platform/httpserver"
	"auditgate/internal/platform/logger"
	"auditgate/internal/platform/metrics"
	"auditgate/internal/platform/postgres"
	platformredis "auditgate/internal/platform/redis"
	ratelimit "auditgate/internal/ratelimit/service"
	httptransport "auditgate/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := auditpg.Migrate(ctx, db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	auditService, err := audit.NewService(auditpg.New(db),
		audit.WithLogger(log),
		audit.WithMetrics(m),
	)
	if err != nil {
		log.Error("audit service init failed", "error", err)
		os.Exit(1)
	}

	limiter, err := ratelimit.New(auditService,
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(m),
		ratelimit.WithConfig(cfg.LoginLimit),
	)
	if err != nil {
		log.Error("rate limiter init failed", "error", err)
		os.Exit(1)
	}

	tokens := jwtauth.NewService(cfg.JWTSigningKey, "auditgate")

	// The event bus is optional: without a Redis URL the service still
	// serves HTTP and records only what the API receives.
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var bus httptransport.HealthChecker
	if redisClient != nil {
		defer redisClient.Close()
		bus = redisClient
	}

	handler := httptransport.NewHandler(auditService, limiter, log)
	router := httptransport.NewRouter(handler, tokens, db, bus)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting auditgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if redisClient != nil {
		subscriber, err := events.New(redisClient.Client, auditService, log)
		if err != nil {
			log.Error("event subscriber init failed", "error", err)
			os.Exit(1)
		}
		g.Go(func() error {
			if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
