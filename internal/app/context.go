package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/auth"
	"github.com/oggyb/fall-in/internal/cache"
	"github.com/oggyb/fall-in/internal/config"
	"github.com/oggyb/fall-in/internal/mail"
	"github.com/oggyb/fall-in/internal/repository"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	Store      *repository.Store
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Mailer     mail.Sender
	Tokens     *auth.Manager
	// Now is the clock used for server-assigned timestamps. Always UTC.
	Now func() time.Time
}

// New creates a new AppContext. The mailer and token manager are derived from cfg.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		Store:      repository.NewStore(db),
		RedisCache: rdb,
		Logger:     logger,
		Mailer:     mail.New(cfg, logger),
		Tokens:     auth.NewManager(cfg.Session.Secret, cfg.Session.TTL, cfg.App.Name),
		Now:        func() time.Time { return time.Now().UTC() },
	}
}
