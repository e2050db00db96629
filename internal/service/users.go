package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
)

type UserPagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalUsers  int  `json:"totalUsers"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

type UserPage struct {
	Users      []user.User    `json:"users"`
	Pagination UserPagination `json:"pagination"`
}

type UserDetail struct {
	User      user.User        `json:"user"`
	TaskStats task.StatusStats `json:"taskStats"`
}

// UserService is the admin side of user management. Route-level role checks
// happen in middleware; Get also serves a user reading their own record.
type UserService struct {
	users UserStore
	tasks TaskStore
	stats statsCache
	log   *slog.Logger
	now   func() time.Time
}

func NewUserService(users UserStore, tasks TaskStore, statsStore cache.Store, prom *observability.Prom, log *slog.Logger) *UserService {
	return &UserService{
		users: users,
		tasks: tasks,
		stats: statsCache{store: statsStore, prom: prom, log: log},
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func (s *UserService) List(ctx context.Context, page, limit int) (UserPage, error) {
	if page < 1 || limit < 1 || limit > task.MaxLimit {
		return UserPage{}, fmt.Errorf("%w: page must be >= 1 and limit between 1 and %d", task.ErrInvalidQuery, task.MaxLimit)
	}

	users, total, err := s.users.List(ctx, user.ListFilter{Limit: limit, Offset: (page - 1) * limit})
	if err != nil {
		return UserPage{}, err
	}

	p := task.NewPagination(page, limit, total)

	return UserPage{
		Users: users,
		Pagination: UserPagination{
			CurrentPage: p.CurrentPage,
			TotalPages:  p.TotalPages,
			TotalUsers:  p.TotalTasks,
			HasNext:     p.HasNext,
			HasPrev:     p.HasPrev,
		},
	}, nil
}

// Get is open to admins and to the user the record belongs to.
func (s *UserService) Get(ctx context.Context, actor actorctx.Actor, id string) (UserDetail, error) {
	if actor.Role != user.RoleAdmin && actor.UserID != id {
		return UserDetail{}, ErrForbidden
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}

	counts, err := s.stats.counts(ctx, s.tasks, u.ID, s.now())
	if err != nil {
		return UserDetail{}, err
	}

	return UserDetail{User: u, TaskStats: counts.Stats().StatusStats}, nil
}

func (s *UserService) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	u, err := s.users.SetActive(ctx, id, active)
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user status changed", "target_user_id", id, "is_active", active)

	return u, nil
}

// Delete removes the user's tasks first, then the user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}

	removed, err := s.tasks.DeleteByOwner(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.stats.invalidate(ctx, id)
	s.log.InfoContext(ctx, "user deleted", "target_user_id", id, "tasks_removed", removed)

	return nil
}
