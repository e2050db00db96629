package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	users  *memory.UsersRepo
	tasks  *memory.TasksRepo
	cache  *cache.Cache
	tokens *auth.Manager
	auth   *service.AuthService
	task   *service.TaskService
	admin  *service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUsersRepo()
	tasks := memory.NewTasksRepo()
	c := cache.New(time.Minute)
	tokens := auth.NewManager("test-secret", time.Hour)
	hasher := security.NewHasher(bcrypt.MinCost)
	clock := func() time.Time { return fixedNow }

	return &fixture{
		users:  users,
		tasks:  tasks,
		cache:  c,
		tokens: tokens,
		auth:   service.NewAuthService(users, tokens, hasher, nil, log).WithClock(clock),
		task:   service.NewTaskService(tasks, users, c, nil, log).WithClock(clock),
		admin:  service.NewUserService(users, tasks, c, nil, log).WithClock(clock),
	}
}

func (f *fixture) register(t *testing.T, name, email string) service.AuthResult {
	t.Helper()

	res, err := f.auth.Register(context.Background(), user.RegisterRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return res
}

func (f *fixture) createTask(t *testing.T, ownerID string, req task.CreateRequest) task.View {
	t.Helper()

	v, err := f.task.Create(context.Background(), ownerID, req)
	require.NoError(t, err)
	return v
}

func ptr[T any](v T) *T {
	return &v
}
