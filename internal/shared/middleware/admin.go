package middleware

import (
	"github.com/gin-gonic/gin"

	"beautybook-backend/internal/shared/response"
)

// AdminMiddleware restricts a route group to actors with the admin role.
// Must run after AuthMiddleware, which puts the role into the context.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get("userRole")
		if !exists {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		role, ok := roleValue.(string)
		if !ok || role != "admin" {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
