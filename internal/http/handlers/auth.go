package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthFlow interface {
	Register(ctx context.Context, req user.RegisterRequest) (service.AuthResult, error)
	Login(ctx context.Context, req user.LoginRequest) (service.AuthResult, error)
	Me(ctx context.Context, userID string) (user.User, error)
	UpdateProfile(ctx context.Context, userID string, req user.ProfileRequest) (user.User, error)
	ChangePassword(ctx context.Context, userID string, req user.ChangePasswordRequest) error
}

type AuthHandler struct {
	auth AuthFlow
}

func NewAuthHandler(auth AuthFlow) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := h.auth.Register(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not register user")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, "User registered successfully", res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := h.auth.Login(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not log in")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Login successful", res)
}

// Logout only acknowledges; tokens are stateless and the client discards its copy.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if _, ok := requireActor(ctx); !ok {
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	u, err := h.auth.Me(cctx, actor.UserID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not load user")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "User retrieved successfully", gin.H{"user": u})
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req user.ProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	u, err := h.auth.UpdateProfile(cctx, actor.UserID, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update profile")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Profile updated successfully", gin.H{"user": u})
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req user.ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if err := h.auth.ChangePassword(cctx, actor.UserID, req); err != nil {
		RespondServiceError(ctx, err, "Could not change password")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Password changed successfully", nil)
}
