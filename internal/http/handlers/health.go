package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc reports whether the backing store answers.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping     PingFunc
	draining func() bool
}

// NewHealthHandler takes an optional draining probe so load balancers stop
// routing here once shutdown begins.
func NewHealthHandler(ping PingFunc, draining func() bool) *HealthHandler {
	return &HealthHandler{ping: ping, draining: draining}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	RespondSuccess(ctx, http.StatusOK, "ok", gin.H{"status": "ok"})
}

// Readyz fails while draining or while the store is unreachable.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining != nil && h.draining() {
		RespondError(ctx, http.StatusServiceUnavailable, "shutting_down", "Server is shutting down", nil)
		return
	}

	if h.ping != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		defer cancel()

		if err := h.ping(cctx); err != nil {
			RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Store unavailable", nil)
			return
		}
	}

	RespondSuccess(ctx, http.StatusOK, "ready", gin.H{"status": "ready"})
}
