package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bulletin/internal/audit"
	"bulletin/internal/email"
	jwttoken "bulletin/internal/jwt_token"
	"bulletin/internal/platform/config"
	"bulletin/internal/platform/httpserver"
	"bulletin/internal/platform/logger"
	"bulletin/internal/platform/metrics"
	"bulletin/internal/platform/postgres"
	platformredis "bulletin/internal/platform/redis"
	"bulletin/internal/platform/telemetry"
	"bulletin/internal/ratelimit"
	"bulletin/internal/subscription/handler"
	"bulletin/internal/subscription/service"
	"bulletin/internal/subscription/store"
	"bulletin/pkg/platform/tx"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Setup(ctx, "bulletin")
	if err != nil {
		log.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	auditInbox := make(chan audit.Event, auditInboxSize)
	auditWorker := audit.NewWorker(audit.NewPostgresStore(db), auditInbox, log)
	auditPublisher := audit.NewPublisher(auditInbox, log)

	subscriberStore := store.NewPostgres(db)
	runner := tx.NewRunner(db)
	sender := email.NewClient(cfg.Email.BaseURL, cfg.Email.Sender, cfg.Email.ServerToken, cfg.Email.SendTimeout)
	subscriptionService := service.New(subscriberStore, runner, sender, auditPublisher, m, log, cfg.BaseURL)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "bulletin", "bulletin-admin")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	var bucketStore ratelimit.BucketStore
	if redisClient != nil {
		bucketStore = ratelimit.NewRedisBucketStore(redisClient.Client)
	} else {
		bucketStore = ratelimit.NewMemoryBucketStore()
	}
	limiter := ratelimit.NewLimiter(bucketStore, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	limitMiddleware := ratelimit.NewMiddleware(limiter, log, m, cfg.RateLimit.Disabled)

	router := chi.NewRouter()
	router.Get("/health_check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(limitMiddleware.Limit)
		handler.New(subscriptionService, log, m, validator).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		log.Info("starting bulletin", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return telemetryShutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
