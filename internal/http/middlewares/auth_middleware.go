package middlewares

import (
	"errors"
	"strings"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt  TokenVerifier
	prom *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, prom: prom}
}

// RequireAuth verifies the bearer token and puts the caller on both the gin
// context and the request context. No store lookup happens here.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.prom.AuthResult("verify", "missing")
			handlers.RespondUnauthorized(c, "unauthorized", "Not authorized, no token")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			m.prom.AuthResult("verify", "missing")
			handlers.RespondUnauthorized(c, "unauthorized", "Not authorized, no token")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				m.prom.AuthResult("verify", "expired")
				handlers.RespondUnauthorized(c, "token_expired", "Token expired")
				return
			}
			m.prom.AuthResult("verify", "invalid")
			handlers.RespondUnauthorized(c, "invalid_token", "Not authorized, token failed")
			return
		}

		actor := actorctx.Actor{UserID: claims.UserID(), Role: claims.Role}

		c.Set(CtxUserID, actor.UserID)
		c.Set(CtxRole, actor.Role)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}

func RoleFromContext(c *gin.Context) (string, bool) {
	role := c.GetString(CtxRole)
	return role, role != ""
}
