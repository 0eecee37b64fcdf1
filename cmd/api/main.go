package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/portalops/ledger-backend/internal/api"
	"github.com/portalops/ledger-backend/internal/auth"
	"github.com/portalops/ledger-backend/internal/config"
	"github.com/portalops/ledger-backend/internal/db"
	"github.com/portalops/ledger-backend/internal/events"
	"github.com/portalops/ledger-backend/internal/idempotency"
	"github.com/portalops/ledger-backend/internal/logger"
	"github.com/portalops/ledger-backend/internal/metrics"
	"github.com/portalops/ledger-backend/internal/repository/postgres"
	"github.com/portalops/ledger-backend/internal/services"
	"github.com/portalops/ledger-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	// optional idempotency fast-path cache
	var idemCache *idempotency.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("redis url", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		idemCache = idempotency.New(rdb, 24*time.Hour)
	}

	// optional event publishing
	var pub *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Error("nats connect", "err", err)
			os.Exit(1)
		}
		defer nc.Drain()
		pub = events.NewPublisher(nc)
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	userSvc := services.NewUserService(repos.Users, tm)
	clientSvc := services.NewClientService(repos.Clients)
	balanceSvc := services.NewBalanceService(repos.Ledger, repos.Clients, repos.AuditLogs, idemCache, pub, wp)

	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		UserSvc:    userSvc,
		ClientSvc:  clientSvc,
		BalanceSvc: balanceSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
