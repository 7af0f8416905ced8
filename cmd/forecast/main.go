// Command forecast serves /weatherforecast backed by a Redis (or in-memory)
// record cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/recordcache"
	"github.com/unkn0wn-root/recordcache/backend"
	"github.com/unkn0wn-root/recordcache/backend/memory"
	rbackend "github.com/unkn0wn-root/recordcache/backend/redis"
	asynchook "github.com/unkn0wn-root/recordcache/hooks/async"
	promhook "github.com/unkn0wn-root/recordcache/hooks/prometheus"
	"github.com/unkn0wn-root/recordcache/internal/config"
	"github.com/unkn0wn-root/recordcache/internal/forecast"
	"github.com/unkn0wn-root/recordcache/internal/logging"
	slogadapter "github.com/unkn0wn-root/recordcache/log/slog"
	"github.com/unkn0wn-root/recordcache/sloghooks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("forecast exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	log, flush, err := logging.New(os.Stdout, logging.Config{
		Level: logging.ParseLevel(cfg.LogLevel),
		SentryConfig: sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
		},
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer flush()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := promhook.New(promhook.Options{Namespace: "forecast", Cache: "weather", Registerer: reg})
	if err != nil {
		return err
	}
	events := asynchook.New(sloghooks.New(log, sloghooks.Options{HitMissEvery: 100}), 1, 1024)
	defer events.Close()

	cache, err := recordcache.New(recordcache.Options[[]forecast.Forecast]{
		Backend:   be,
		Namespace: cfg.Namespace,
		Logger:    slogadapter.New(log),
		Hooks:     recordcache.MultiHooks(metrics, events),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(context.Background()); err != nil {
			log.Warn("close cache", "err", err)
		}
	}()

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: forecast.Routes(
			&forecast.Handler{Cache: cache, Gen: &forecast.Generator{}, Log: log},
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openBackend(ctx context.Context, cfg config.Config) (backend.Backend, error) {
	if cfg.Backend == "memory" {
		return memory.New(memory.Config{CleanupInterval: time.Minute}), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return rbackend.New(rbackend.Config{Client: rdb, CloseClient: true})
}
