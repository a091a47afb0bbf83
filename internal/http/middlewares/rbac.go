package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole distinguishes the two failure modes: no identity at all is
// 401, an authenticated caller without the role is 403.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFromContext(c)

		if caller == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid session token",
			})
			return
		}

		if !caller.HasRole(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": required + " role required",
			})
			return
		}

		c.Next()
	}
}
