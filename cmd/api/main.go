package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "taskhub-api"

type stores struct {
	users service.UserStore
	tasks service.TaskStore
	ping  handlers.PingFunc
	close func()
}

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Env:         cfg.Env,
		Enabled:     cfg.OtelEnabled,
		Endpoint:    cfg.OtelEndpoint,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, reg, prom, log)
	if err != nil {
		return err
	}
	defer st.close()

	statsCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	hasher := security.DefaultHasher()
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())

	seedCtx, cancelSeed := context.WithTimeout(ctx, 5*time.Second)
	err = db.EnsureAdminUser(seedCtx, st.users, hasher, cfg, log)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	var draining atomic.Bool

	router := httpx.NewRouter(log, httpx.Deps{
		Config:   cfg,
		Auth:     service.NewAuthService(st.users, tokens, hasher, prom, log),
		Tasks:    service.NewTaskService(st.tasks, st.users, statsCache, prom, log),
		Users:    service.NewUserService(st.users, st.tasks, statsCache, prom, log),
		Tokens:   tokens,
		Prom:     prom,
		Gatherer: reg,
		Ping:     st.ping,
		Draining: draining.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	draining.Store(true)

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStores(ctx context.Context, cfg config.Config, reg prometheus.Registerer, prom *observability.Prom, log *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		users := memory.NewUsersRepo()
		log.Warn("using in-memory store, data is lost on restart")

		return stores{
			users: users,
			tasks: memory.NewTasksRepo(),
			ping:  users.Ping,
			close: func() {},
		}, nil

	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{
			MaxConns:        int32(cfg.DBMaxConns),
			MinConns:        int32(cfg.DBMinConns),
			MaxConnLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			return stores{}, fmt.Errorf("db connect: %w", err)
		}
		observability.RegisterPoolStats(reg, pool)

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return stores{}, fmt.Errorf("migrate: %w", err)
			}
		}

		return stores{
			users: postgres.NewUsersRepo(pool, prom),
			tasks: postgres.NewTasksRepo(pool, prom),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil
	}

	return stores{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openCache prefers Redis and falls back to an in-process cache when Redis
// is not configured or does not answer at startup.
func openCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		return cache.New(cfg.StatsCacheTTL), func() {}
	}

	rs := cache.NewRedisStore(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.StatsCacheTTL)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rs.Ping(pctx); err != nil {
		log.Warn("redis unavailable, using in-process stats cache", "addr", cfg.RedisAddr, "err", err)
		_ = rs.Close()
		return cache.New(cfg.StatsCacheTTL), func() {}
	}

	return cache.NewBreaker(rs, cache.BreakerConfig{}), func() { _ = rs.Close() }
}
