package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	readTimeout  = 2 * time.Second
	writeTimeout = 3 * time.Second
)

// withTimeout bounds store work while keeping the request's trace and actor.
func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

// requireActor returns the authenticated caller, answering 401 when the
// route was mounted without the auth middleware.
func requireActor(ctx *gin.Context) (actorctx.Actor, bool) {
	actor, ok := actorctx.From(ctx.Request.Context())
	if !ok || actor.UserID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return actorctx.Actor{}, false
	}
	return actor, true
}

func idParam(ctx *gin.Context, what string) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "Invalid "+what+" id", nil)
		return "", false
	}
	return id, true
}
