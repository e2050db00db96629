package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task // {"id": task}
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	t = clone(t)

	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return clone(t), nil
}

func (r *TasksRepo) GetForOwner(_ context.Context, id, ownerID string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}
	return clone(t), nil
}

func (r *TasksRepo) Update(_ context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return task.Task{}, task.ErrNotFound
	}

	// identity and creation time are not writable
	t.CreatedAt = cur.CreatedAt
	r.items[t.ID] = clone(t)

	return clone(t), nil
}

func (r *TasksRepo) DeleteForOwner(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.OwnerID != ownerID {
		return task.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *TasksRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.items {
		if t.OwnerID == ownerID {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

// List filters and sorts under one read lock.
func (r *TasksRepo) List(_ context.Context, q task.Query) ([]task.Task, int, error) {
	r.mu.RLock()
	matched := make([]task.Task, 0)
	for _, t := range r.items {
		if q.Matches(t) {
			matched = append(matched, clone(t))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, q.Compare)

	return window(matched, q.Offset(), q.Limit), len(matched), nil
}

func (r *TasksRepo) Counts(_ context.Context, ownerID string, now time.Time) (task.Counts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := make([]task.Task, 0)
	for _, t := range r.items {
		if t.OwnerID == ownerID {
			owned = append(owned, t)
		}
	}

	return task.Tally(owned, now), nil
}

// clone detaches slices and pointers so callers cannot mutate stored state.
func clone(t task.Task) task.Task {
	t.Tags = slices.Clone(t.Tags)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	return t
}
