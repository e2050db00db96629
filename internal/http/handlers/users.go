package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type UserAdmin interface {
	List(ctx context.Context, page, limit int) (service.UserPage, error)
	Get(ctx context.Context, actor actorctx.Actor, id string) (service.UserDetail, error)
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UserAdmin
}

func NewUsersHandler(users UserAdmin) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	var params user.ListParams
	if !BindQuery(ctx, &params) {
		return
	}

	page, limit := params.Values()

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	out, err := h.users.List(cctx, page, limit)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list users")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Users retrieved successfully", out)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, ok := idParam(ctx, "user")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	detail, err := h.users.Get(cctx, actor, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch user")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "User retrieved successfully", detail)
}

func (h *UsersHandler) SetStatus(ctx *gin.Context) {
	id, ok := idParam(ctx, "user")
	if !ok {
		return
	}

	var req user.StatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	u, err := h.users.SetActive(cctx, id, *req.IsActive)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update user status")
		return
	}

	message := "User deactivated successfully"
	if u.IsActive {
		message = "User activated successfully"
	}

	RespondSuccess(ctx, http.StatusOK, message, gin.H{"user": u})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := idParam(ctx, "user")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		RespondServiceError(ctx, err, "Could not delete user")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "User and associated tasks deleted successfully", nil)
}
