package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OwnerLookup resolves the user summary attached to task views.
type OwnerLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// TaskService scopes every operation to the caller. Ownership is checked by
// the store lookup itself, so a task owned by someone else is ErrNotFound.
type TaskService struct {
	tasks  TaskStore
	owners OwnerLookup
	stats  statsCache
	prom   *observability.Prom
	log    *slog.Logger
	now    func() time.Time
}

func NewTaskService(tasks TaskStore, owners OwnerLookup, statsStore cache.Store, prom *observability.Prom, log *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		owners: owners,
		stats:  statsCache{store: statsStore, prom: prom, log: log},
		prom:   prom,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// List returns one page of the caller's tasks plus their status counts.
func (s *TaskService) List(ctx context.Context, q task.Query) (task.Page, error) {
	if err := q.Validate(); err != nil {
		return task.Page{}, err
	}

	ctx, span := observability.StartSpan(ctx, "tasks.list", trace.WithAttributes(
		attribute.Int("query.page", q.Page),
		attribute.Int("query.limit", q.Limit),
		attribute.String("query.sort_by", string(q.SortBy)),
		attribute.String("query.sort_order", string(q.SortOrder)),
	))
	defer span.End()

	items, total, err := s.tasks.List(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list tasks")
		return task.Page{}, err
	}
	span.SetAttributes(attribute.Int("result.total", total))

	views, err := s.compose(ctx, q.OwnerID, items)
	if err != nil {
		return task.Page{}, err
	}

	counts, err := s.counts(ctx, q.OwnerID)
	if err != nil {
		return task.Page{}, err
	}
	status := counts.Stats().StatusStats

	return task.Page{
		Tasks:      views,
		Pagination: task.NewPagination(q.Page, q.Limit, total),
		Stats:      &status,
	}, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (task.View, error) {
	t, err := s.tasks.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return task.View{}, err
	}

	return s.view(ctx, t)
}

// Create always assigns the task to ownerID, whatever the request carries.
// A token outliving its user gets user.ErrNotFound.
func (s *TaskService) Create(ctx context.Context, ownerID string, req task.CreateRequest) (task.View, error) {
	if s.owners != nil {
		if _, err := s.owners.GetByID(ctx, ownerID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return task.View{}, err
			}
			return task.View{}, fmt.Errorf("lookup owner: %w", err)
		}
	}

	t, err := s.tasks.Create(ctx, task.NewFromCreateRequest(ownerID, req, s.now()))
	if err != nil {
		return task.View{}, err
	}

	s.stats.invalidate(ctx, ownerID)
	s.prom.TaskMutation("create")
	s.log.InfoContext(ctx, "task created", "task_id", t.ID)

	return s.view(ctx, t)
}

func (s *TaskService) Update(ctx context.Context, ownerID, id string, req task.UpdateRequest) (task.View, error) {
	return s.mutate(ctx, "update", ownerID, id, func(t *task.Task, now time.Time) {
		t.Apply(req, now)
	})
}

// Toggle flips between completed and pending.
func (s *TaskService) Toggle(ctx context.Context, ownerID, id string) (task.View, error) {
	return s.mutate(ctx, "toggle", ownerID, id, func(t *task.Task, now time.Time) {
		t.Toggle(now)
	})
}

func (s *TaskService) mutate(ctx context.Context, op, ownerID, id string, fn func(t *task.Task, now time.Time)) (task.View, error) {
	t, err := s.tasks.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return task.View{}, err
	}

	fn(&t, s.now())

	updated, err := s.tasks.Update(ctx, t)
	if err != nil {
		return task.View{}, err
	}

	s.stats.invalidate(ctx, ownerID)
	s.prom.TaskMutation(op)

	return s.view(ctx, updated)
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.tasks.DeleteForOwner(ctx, id, ownerID); err != nil {
		return err
	}

	s.stats.invalidate(ctx, ownerID)
	s.prom.TaskMutation("delete")
	s.log.InfoContext(ctx, "task deleted", "task_id", id)

	return nil
}

// Stats aggregates the caller's tasks: status counts, non-empty priority
// groups ordered low to high, and overdue tasks.
func (s *TaskService) Stats(ctx context.Context, ownerID string) (task.Stats, error) {
	counts, err := s.counts(ctx, ownerID)
	if err != nil {
		return task.Stats{}, err
	}

	return counts.Stats(), nil
}

func (s *TaskService) counts(ctx context.Context, ownerID string) (task.Counts, error) {
	return s.stats.counts(ctx, s.tasks, ownerID, s.now())
}

func (s *TaskService) view(ctx context.Context, t task.Task) (task.View, error) {
	views, err := s.compose(ctx, t.OwnerID, []task.Task{t})
	if err != nil {
		return task.View{}, err
	}

	return views[0], nil
}

// compose attaches the owner summary. Every task in a call shares one owner.
func (s *TaskService) compose(ctx context.Context, ownerID string, items []task.Task) ([]task.View, error) {
	owners := map[string]user.Summary{}

	if len(items) > 0 && s.owners != nil {
		u, err := s.owners.GetByID(ctx, ownerID)
		switch {
		case err == nil:
			owners[u.ID] = u.Summary()
		case errors.Is(err, user.ErrNotFound):
			// owner removed mid-request; views go out without a summary
		default:
			return nil, fmt.Errorf("lookup owner: %w", err)
		}
	}

	return task.Compose(items, owners), nil
}
