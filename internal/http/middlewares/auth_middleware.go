package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/relaypoint/rollcall/internal/domain/user"
)

// Keep this small interface so tests can fake it easily.
type SessionStore interface {
	GetBySession(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	sessions SessionStore
}

func NewAuthMiddleware(sessions SessionStore) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Resolve maps a bearer token to a caller identity. It never rejects:
// missing header, malformed header, and unknown token all degrade to
// anonymous, and route gates decide what anonymous may do.
func (m *AuthMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if strings.HasPrefix(authHeader, "Bearer ") {
			raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))

			if raw != "" {
				u, err := m.sessions.GetBySession(c.Request.Context(), raw)

				if err == nil {
					c.Set(CtxCaller, &u)
				}
			}
		}

		c.Next()
	}
}

// RequireAuth aborts with 401 when Resolve left the request anonymous.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerFromContext(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid session token",
			})
			return
		}

		c.Next()
	}
}

// CallerFromContext returns the resolved caller, or nil for anonymous.
func CallerFromContext(c *gin.Context) *user.User {
	v, ok := c.Get(CtxCaller)

	if !ok {
		return nil
	}

	u, ok := v.(*user.User)

	if !ok {
		return nil
	}

	return u
}
