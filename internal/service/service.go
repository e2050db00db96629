// Package service holds the authenticated core: the auth flow, the task
// query engine and statistics, and admin user management. Every operation
// returns a value or one of the sentinel errors declared by the domain
// packages (or ErrForbidden); the HTTP layer maps those to status codes.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

var ErrForbidden = errors.New("forbidden")

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, p user.ProfileUpdate) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
	List(ctx context.Context, f user.ListFilter) ([]user.User, int, error)
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetForOwner(ctx context.Context, id, ownerID string) (task.Task, error)
	Update(ctx context.Context, t task.Task) (task.Task, error)
	DeleteForOwner(ctx context.Context, id, ownerID string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	List(ctx context.Context, q task.Query) ([]task.Task, int, error)
	Counts(ctx context.Context, ownerID string, now time.Time) (task.Counts, error)
}

type TokenIssuer interface {
	Issue(userID, role string) (token string, expiresAt time.Time, err error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}
