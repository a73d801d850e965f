// Package apptest builds an AppContext backed by an in-memory SQLite database
// and miniredis for service and handler tests.
package apptest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/auth"
	"github.com/oggyb/fall-in/internal/cache"
	"github.com/oggyb/fall-in/internal/config"
	"github.com/oggyb/fall-in/internal/db"
	"github.com/oggyb/fall-in/internal/logger"
	"github.com/oggyb/fall-in/internal/repository"
)

// Mailbox records the last code sent to each address.
type Mailbox struct {
	mu    sync.Mutex
	codes map[string]string
	Err   error
}

func (m *Mailbox) SendOTP(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
	return m.Err
}

// Code returns the last code mailed to addr.
func (m *Mailbox) Code(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[addr]
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type Env struct {
	App   *app.AppContext
	DB    *gorm.DB
	Store *repository.Store
	Redis *miniredis.Miniredis
	Mail  *Mailbox
	Clock *Clock
}

// Start is the initial time of every Env clock.
var Start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// New returns a fresh environment scoped to t.
func New(t testing.TB) *Env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	mr := miniredis.RunT(t)
	rc := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { rc.Close() })

	cfg := config.New()
	cfg.App.Env = "test"
	cfg.DB.Driver = "sqlite"
	cfg.Session.Secret = "test-secret"
	cfg.Session.TTL = time.Hour
	cfg.OTP.TTL = 10 * time.Minute
	cfg.OTP.Length = 6
	cfg.OTP.MaxSends = 3
	cfg.OTP.Window = 15 * time.Minute
	cfg.Upload.PhotoSize = 400
	cfg.Upload.MaxBytes = 5 << 20
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Rate.PerSecond = 1000
	cfg.Rate.Burst = 1000

	clock := &Clock{now: Start}
	mail := &Mailbox{}
	appCtx := &app.AppContext{
		Config:     cfg,
		DB:         database,
		Store:      repository.NewStore(database),
		RedisCache: rc,
		Logger:     logger.Discard(),
		Mailer:     mail,
		Tokens:     auth.NewManager(cfg.Session.Secret, cfg.Session.TTL, "fall-in"),
		Now:        clock.Now,
	}
	return &Env{App: appCtx, DB: database, Store: appCtx.Store, Redis: mr, Mail: mail, Clock: clock}
}

// User inserts a complete, verified profile named name.
func (e *Env) User(t testing.TB, name string) *db.User {
	t.Helper()
	u := &db.User{
		Email:      strings.ToLower(name) + "@uni.edu",
		Name:       name,
		Age:        21,
		LookingFor: "dating",
		IsVerified: true,
	}
	require.NoError(t, e.DB.Create(u).Error)
	return u
}

// Notifications returns every notification addressed to userID, oldest first.
func (e *Env) Notifications(t testing.TB, userID string) []db.Notification {
	t.Helper()
	var out []db.Notification
	require.NoError(t, e.DB.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&out).Error)
	return out
}
