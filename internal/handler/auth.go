package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/logger"
	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
	"github.com/oggyb/fall-in/internal/service/account"
)

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email is required")
		return
	}
	if err := h.accounts.Signup(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	h.codeSent()
	response.Success(c, gin.H{"message": "verification code sent"})
}

func (h *Handler) Login(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email is required")
		return
	}
	if err := h.accounts.Login(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	h.codeSent()
	response.Success(c, gin.H{"message": "verification code sent"})
}

func (h *Handler) codeSent() {
	if h.metrics != nil {
		h.metrics.OTPSent()
	}
}

func (h *Handler) VerifySignup(c *gin.Context) {
	h.verify(c, h.accounts.VerifySignup)
}

func (h *Handler) VerifyLogin(c *gin.Context) {
	h.verify(c, h.accounts.VerifyLogin)
}

func (h *Handler) verify(c *gin.Context, fn func(ctx context.Context, email, code string) (*account.Session, error)) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and code are required")
		return
	}
	sess, err := fn(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		logger.Ctx(c.Request.Context()).Warn("verification failed", "email", req.Email, "err", err)
		response.Fail(c, err)
		return
	}
	h.setSessionCookie(c, sess.Token, int(h.appCtx.Tokens.TTL().Seconds()))
	response.Success(c, sess)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		response.Fail(c, err)
		return
	}
	h.setSessionCookie(c, "", -1)
	response.Success(c, gin.H{"message": "logged out"})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.appCtx.Config.Session.CookieName, value, maxAge, "/", "", h.appCtx.Config.App.Env == "production", true)
}
