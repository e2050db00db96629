package middlewares

import (
	"slices"

	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireRole admits callers holding any of roles. It must run after
// RequireAuth; a missing identity is 401, a wrong role 403.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			m.prom.AuthResult("authorize", "missing")
			handlers.RespondUnauthorized(c, "unauthorized", "Not authorized, no token")
			return
		}

		if !slices.Contains(roles, role) {
			m.prom.AuthResult("authorize", "forbidden")
			handlers.RespondForbidden(c, "User role "+role+" is not authorized to access this route")
			return
		}

		c.Next()
	}
}
