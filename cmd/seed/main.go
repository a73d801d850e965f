package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/oggyb/fall-in/internal/cache"
	"github.com/oggyb/fall-in/internal/config"
	"github.com/oggyb/fall-in/internal/db"
	"github.com/oggyb/fall-in/internal/logger"
)

func main() {
	check := flag.Bool("check", false, "verify configuration and connectivity without seeding")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if !cfg.MailEnabled() {
		log.Warn("mail is not configured, verification codes will only be logged")
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if *check {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ok := true
		if sqlDB, err := database.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			log.Error("database unreachable", "driver", cfg.DB.Driver)
			ok = false
		} else {
			log.Info("database reachable", "driver", cfg.DB.Driver)
		}
		rdb := cache.NewRedisCache(cfg)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			log.Error("redis unreachable", "addr", cfg.Redis.Addr, "err", err)
			ok = false
		} else {
			log.Info("redis reachable", "addr", cfg.Redis.Addr)
		}
		if !ok {
			os.Exit(1)
		}
		log.Info("setup check passed")
		return
	}

	if err := db.SeedSampleData(database); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding completed", "users", len(db.SampleUsers))
}
