package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/cache"
	"github.com/oggyb/fall-in/internal/config"
	"github.com/oggyb/fall-in/internal/db"
	"github.com/oggyb/fall-in/internal/handler"
	"github.com/oggyb/fall-in/internal/logger"
	"github.com/oggyb/fall-in/internal/metrics"
	"github.com/oggyb/fall-in/internal/server"
	"github.com/oggyb/fall-in/internal/service/ledger"
)

func main() {
	cfg := config.Load()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.App.Env == "development" && config.IsTruthy(os.Getenv("SEED_ON_START")) {
		if err := db.SeedSampleData(database); err != nil {
			log.Error("failed to seed", "err", err)
		} else {
			log.Info("sample data seeded")
		}
	}

	m := metrics.New("fallin")
	h := handler.New(appCtx, m)
	grpcServer := server.NewGRPCServer(log, m, h.Accounts(), ledger.NewRegistrar(appCtx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port)
		return server.StartHTTPServer(gctx, cfg, h.Router())
	})
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gctx, cfg, grpcServer)
	})
	g.Go(func() error {
		h.RunCleanup(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
