package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/google/uuid"
)

type AdminSeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the configured admin account on first start. An
// existing account with that email is never modified, not even promoted.
func EnsureAdminUser(ctx context.Context, users AdminSeedStore, hasher *security.Hasher, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.DebugContext(ctx, "admin seed skipped, no credentials configured")
		return nil
	}

	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			log.WarnContext(ctx, "admin seed email belongs to a non-admin account", "user_id", existing.ID)
		}
		return nil
	case !errors.Is(err, user.ErrNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin, err := users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         cfg.AdminRole,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		// another instance seeded it first
		return nil
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}

	log.InfoContext(ctx, "admin account created", "user_id", admin.ID)
	return nil
}
