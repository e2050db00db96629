package memory

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seedTask(t *testing.T, r *TasksRepo, id, owner string, offset time.Duration) task.Task {
	t.Helper()

	out, err := r.Create(context.Background(), task.Task{
		ID:        id,
		OwnerID:   owner,
		Title:     id,
		Status:    task.StatusPending,
		Priority:  task.PriorityMedium,
		CreatedAt: base.Add(offset),
		UpdatedAt: base.Add(offset),
	})
	require.NoError(t, err)
	return out
}

func TestTasksRepo_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()
	seedTask(t, r, "t1", "alice", 0)

	_, err := r.GetForOwner(ctx, "t1", "bob")
	assert.ErrorIs(t, err, task.ErrNotFound)

	assert.ErrorIs(t, r.DeleteForOwner(ctx, "t1", "bob"), task.ErrNotFound)

	_, err = r.Update(ctx, task.Task{ID: "t1", OwnerID: "bob", Title: "hijack"})
	assert.ErrorIs(t, err, task.ErrNotFound)

	got, err := r.GetForOwner(ctx, "t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.Title)
	assert.Equal(t, []string{}, got.Tags)
}

func TestTasksRepo_ReturnsDetachedCopies(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()

	due := base.Add(24 * time.Hour)
	_, err := r.Create(ctx, task.Task{ID: "t1", OwnerID: "alice", Tags: []string{"a"}, DueDate: &due})
	require.NoError(t, err)

	got, err := r.GetForOwner(ctx, "t1", "alice")
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	*got.DueDate = base

	again, err := r.GetForOwner(ctx, "t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Tags)
	assert.Equal(t, due, *again.DueDate)
}

func TestTasksRepo_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()
	orig := seedTask(t, r, "t1", "alice", 0)

	changed := orig
	changed.Title = "renamed"
	changed.CreatedAt = base.Add(time.Hour)

	out, err := r.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "renamed", out.Title)
	assert.Equal(t, orig.CreatedAt, out.CreatedAt)
}

func TestTasksRepo_ListPagesAndCounts(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()
	for i, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		seedTask(t, r, id, "alice", time.Duration(i)*time.Minute)
	}
	seedTask(t, r, "other", "bob", 0)

	q := task.Query{OwnerID: "alice", Page: 2, Limit: 2, SortBy: task.SortCreatedAt, SortOrder: task.SortDesc}
	items, total, err := r.List(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "t3", items[0].ID)
	assert.Equal(t, "t2", items[1].ID)

	q.Page = 4
	items, total, err = r.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, items)
}

func TestTasksRepo_DeleteByOwner(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()
	seedTask(t, r, "t1", "alice", 0)
	seedTask(t, r, "t2", "alice", time.Minute)
	seedTask(t, r, "t3", "bob", 0)

	n, err := r.DeleteByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	c, err := r.Counts(ctx, "bob", base)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Pending)
}

func TestUsersRepo_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	_, err := r.Create(ctx, user.User{ID: "u1", Email: "Ann@Example.com", CreatedAt: base})
	require.NoError(t, err)

	_, err = r.Create(ctx, user.User{ID: "u2", Email: "ann@example.com", CreatedAt: base})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	got, err := r.GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestUsersRepo_UpdateProfileMovesEmailIndex(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	_, err := r.Create(ctx, user.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = r.Create(ctx, user.User{ID: "u2", Email: "b@example.com"})
	require.NoError(t, err)

	taken := "b@example.com"
	_, err = r.UpdateProfile(ctx, "u1", user.ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	fresh := "c@example.com"
	_, err = r.UpdateProfile(ctx, "u1", user.ProfileUpdate{Email: &fresh})
	require.NoError(t, err)

	_, err = r.GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	got, err := r.GetByEmail(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestUsersRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()
	for i, id := range []string{"u1", "u2", "u3"} {
		_, err := r.Create(ctx, user.User{ID: id, Email: id + "@example.com", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	items, total, err := r.List(ctx, user.ListFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "u3", items[0].ID)
	assert.Equal(t, "u2", items[1].ID)

	require.NoError(t, r.Delete(ctx, "u3"))
	assert.ErrorIs(t, r.Delete(ctx, "u3"), user.ErrNotFound)
}
