// Package handler exposes the services over the JSON HTTP API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/metrics"
	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
	"github.com/oggyb/fall-in/internal/service/account"
	"github.com/oggyb/fall-in/internal/service/confession"
	"github.com/oggyb/fall-in/internal/service/ledger"
	"github.com/oggyb/fall-in/internal/service/messaging"
	"github.com/oggyb/fall-in/internal/service/notify"
)

// Handler handles HTTP requests for every API area.
type Handler struct {
	appCtx      *app.AppContext
	accounts    *account.Service
	ledger      *ledger.Service
	feed        *notify.Service
	messages    *messaging.Service
	confessions *confession.Service
	metrics     *metrics.Metrics

	general *middleware.IPRateLimiter
	strict  *middleware.IPRateLimiter
}

// New wires the services on top of appCtx.
func New(appCtx *app.AppContext, m *metrics.Metrics) *Handler {
	l := ledger.NewService(appCtx)
	cfg := appCtx.Config
	return &Handler{
		appCtx:      appCtx,
		accounts:    account.NewService(appCtx, l),
		ledger:      l,
		feed:        notify.NewService(appCtx),
		messages:    messaging.NewService(appCtx, l),
		confessions: confession.NewService(appCtx),
		metrics:     m,
		general:     middleware.NewIPRateLimiter(rate.Limit(cfg.Rate.PerSecond), cfg.Rate.Burst),
		// auth endpoints: 20 requests per minute
		strict: middleware.NewIPRateLimiter(rate.Limit(20.0/60.0), 10),
	}
}

// Accounts exposes the session gate for other transports.
func (h *Handler) Accounts() *account.Service { return h.accounts }

// RunCleanup sweeps the rate limiters until ctx is done.
func (h *Handler) RunCleanup(ctx context.Context) {
	go h.strict.RunCleanup(ctx)
	h.general.RunCleanup(ctx)
}

// Router builds the gin engine with the shared middleware chain.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(h.appCtx.Logger),
		middleware.CORS(h.appCtx.Config.HTTP.AllowedOrigins),
	)
	if h.metrics != nil {
		r.Use(middleware.Metrics(h.metrics))
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	r.GET("/health", h.Health)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all /api routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.RateLimit(h.general))

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(h.strict))
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/signup/verify", h.VerifySignup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/login/verify", h.VerifyLogin)
		authGroup.POST("/logout", h.requireAuth(), h.Logout)
	}

	secured := api.Group("")
	secured.Use(h.requireAuth())
	{
		secured.GET("/me", h.GetMe)
		secured.PUT("/me/profile", h.UpdateProfile)
		secured.GET("/users/:id", h.GetUser)
		secured.GET("/discover", h.Discover)

		secured.POST("/users/:id/like", h.Like)
		secured.POST("/users/:id/accept-like", h.AcceptLike)
		secured.POST("/users/:id/chat-request", h.RequestChat)
		secured.POST("/users/:id/accept-chat", h.AcceptChat)
		secured.DELETE("/users/:id/match", h.Unmatch)
		secured.GET("/matches", h.Matches)
		secured.GET("/chat-requests", h.ChatRequests)
		secured.POST("/chat-requests/:id/accept", h.AcceptChatRequest)
		secured.POST("/chat-requests/:id/reject", h.RejectChatRequest)

		secured.GET("/chats", h.Chats)
		secured.GET("/messages/:id", h.Messages)
		secured.GET("/messages/:id/poll", h.PollMessages)
		secured.POST("/messages/:id", h.SendMessage)

		secured.GET("/notifications", h.Notifications)
		secured.GET("/notifications/overview", h.NotificationOverview)
		secured.GET("/notifications/unread-count", h.UnreadCount)
		secured.DELETE("/notifications/:id", h.DeleteNotification)

		secured.GET("/confessions", h.ConfessionFeed)
		secured.POST("/confessions", h.PostConfession)
		secured.GET("/confessions/:id", h.GetConfession)
		secured.POST("/confessions/:id/like", h.LikeConfession)
		secured.GET("/confessions/:id/comments", h.ConfessionComments)
		secured.POST("/confessions/:id/comments", h.PostComment)
		secured.POST("/confession-comments/:id/like", h.LikeComment)
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return middleware.RequireAuth(h.accounts, h.appCtx.Config.Session.CookieName)
}

// Health reports whether the database and Redis answer.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "redis": "ok"}
	healthy := true
	if sqlDB, err := h.appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"], healthy = "unavailable", false
	}
	if h.appCtx.RedisCache != nil {
		if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
			checks["redis"], healthy = "unavailable", false
		}
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Response{Success: false, Data: checks,
			Error: &response.ErrorInfo{Code: "SERVICE_UNAVAILABLE", Message: "dependency check failed"}})
		return
	}
	response.Success(c, checks)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
