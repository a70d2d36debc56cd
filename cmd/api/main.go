package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/expensehub/internal/config"
	"github.com/geocoder89/expensehub/internal/db"
	httpx "github.com/geocoder89/expensehub/internal/http"
	"github.com/geocoder89/expensehub/internal/http/middlewares"
	"github.com/geocoder89/expensehub/internal/observability"
	"github.com/geocoder89/expensehub/internal/redisclient"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing is best-effort: the API runs fine without a collector
	shutdownTracer, err := observability.InitTracer(context.Background(), "expensehub", cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracer init failed", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	migrateCtx, cancelMigrate := config.WithTimeout(10 * time.Second)
	defer cancelMigrate()

	if err := db.Migrate(migrateCtx, pool); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	var limiter middlewares.Limiter
	if cfg.RedisAddr != "" {
		redisCli := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()

		pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
		defer cancelPing()

		if err := redisCli.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, falling back to in-memory rate limiter", "err", err)
			limiter = middlewares.NewMemoryLimiter(cfg.RateLimit, cfg.RateLimitWindow)
		} else {
			limiter = middlewares.NewRedisLimiter(redisCli.Raw(), cfg.RateLimit, cfg.RateLimitWindow)
		}
	} else {
		limiter = middlewares.NewMemoryLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	}

	router := httpx.NewRouter(log, pool, cfg, prom, registry, limiter)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)

		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}

		_ = shutdownTracer(ctx)
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
