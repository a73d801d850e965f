package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/auth"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/response"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// RequireAuth accepts a bearer token or the session cookie and stores the
// user id in the gin context and the request context.
func RequireAuth(a Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			response.Unauthorized(c, "please log in")
			return
		}

		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if svcErr.Is(err, svcErr.KindAuthorization) {
				response.Unauthorized(c, svcErr.Message(err))
				return
			}
			response.Fail(c, err)
			return
		}

		c.Set(ContextUserID, claims.UserID())
		c.Set(ContextClaims, claims)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), claims.UserID()))
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string { return c.GetString(ContextUserID) }

// Claims returns the session claims set by RequireAuth.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
