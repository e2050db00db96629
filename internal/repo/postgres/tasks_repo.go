package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id::text, owner_id::text, title, description, status, priority, due_date, category, tags, is_completed, completed_at, created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.Category,
		&t.Tags,
		&t.IsCompleted,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if t.Tags == nil {
		t.Tags = []string{}
	}

	return t, err
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task

	err := r.observe("tasks.create", func() error {
		var err error
		out, err = scanTask(r.pool.QueryRow(ctx,
			`INSERT INTO tasks (id, owner_id, title, description, status, priority, due_date, category, tags, is_completed, completed_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+taskColumns,
			t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Category, t.Tags, t.IsCompleted, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return task.Task{}, insertTaskErr(err)
	}

	return out, nil
}

// insertTaskErr maps a missing owner row to user.ErrNotFound.
func insertTaskErr(err error) error {
	if IsForeignKeyViolation(err) {
		return user.ErrNotFound
	}
	return fmt.Errorf("insert task: %w", err)
}

// GetForOwner only finds tasks owned by ownerID.
func (r *TasksRepo) GetForOwner(ctx context.Context, id, ownerID string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_for_owner", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})

	if err != nil {
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}

	if t.ID == "" {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

// Update writes every mutable column of t. The owner stays in the WHERE
// clause so a row that vanished or changed hands reports ErrNotFound.
func (r *TasksRepo) Update(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task

	err := r.observe("tasks.update", func() error {
		var err error
		out, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET title = $3,
					description = $4,
					status = $5,
					priority = $6,
					due_date = $7,
					category = $8,
					tags = $9,
					is_completed = $10,
					completed_at = $11,
					updated_at = $12
			WHERE id = $1 AND owner_id = $2
			RETURNING `+taskColumns,
			t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Category, t.Tags, t.IsCompleted, t.CompletedAt, t.UpdatedAt,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})

	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}

	if out.ID == "" {
		return task.Task{}, task.ErrNotFound
	}

	return out, nil
}

func (r *TasksRepo) DeleteForOwner(ctx context.Context, id, ownerID string) error {
	var affected int64

	err := r.observe("tasks.delete_for_owner", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}

func (r *TasksRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	var affected int64

	err := r.observe("tasks.delete_by_owner", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return 0, fmt.Errorf("delete owner tasks: %w", err)
	}

	return affected, nil
}

// List counts the matches and reads one page inside a single read-only
// snapshot, so total and window agree.
func (r *TasksRepo) List(ctx context.Context, q task.Query) ([]task.Task, int, error) {
	where, args := buildTaskWhere(q)

	output := make([]task.Task, 0, q.Limit)
	total := 0

	err := r.observe("tasks.list", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}

		argsPosition := len(args) + 1
		query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where +
			` ORDER BY ` + orderByClause(q) +
			fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

		rows, err := tx.Query(ctx, query, append(args, q.Limit, q.Offset())...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			output = append(output, t)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	return output, total, nil
}

// Counts gathers status, priority and overdue numbers in one statement.
func (r *TasksRepo) Counts(ctx context.Context, ownerID string, now time.Time) (task.Counts, error) {
	var c task.Counts

	err := r.observe("tasks.counts", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT
				COUNT(*) FILTER (WHERE status = 'pending'),
				COUNT(*) FILTER (WHERE status = 'in-progress'),
				COUNT(*) FILTER (WHERE status = 'completed'),
				COUNT(*) FILTER (WHERE priority = 'low'),
				COUNT(*) FILTER (WHERE priority = 'medium'),
				COUNT(*) FILTER (WHERE priority = 'high'),
				COUNT(*) FILTER (WHERE due_date < $2 AND status <> 'completed')
			FROM tasks
			WHERE owner_id = $1`,
			ownerID, now,
		).Scan(&c.Pending, &c.InProgress, &c.Completed, &c.Low, &c.Medium, &c.High, &c.Overdue)
	})

	if err != nil {
		return task.Counts{}, fmt.Errorf("count tasks: %w", err)
	}

	return c, nil
}

func buildTaskWhere(q task.Query) (string, []any) {
	conds := []string{"owner_id = $1"}
	args := []any{q.OwnerID}

	argsPosition := 2

	if q.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*q.Status))
		argsPosition++
	}

	if q.Priority != nil {
		conds = append(conds, fmt.Sprintf("priority = $%d", argsPosition))
		args = append(args, string(*q.Priority))
		argsPosition++
	}

	// plain substring, no pattern characters
	if q.Category != nil {
		conds = append(conds, fmt.Sprintf("strpos(lower(category), lower($%d)) > 0", argsPosition))
		args = append(args, *q.Category)
	}

	return strings.Join(conds, " AND "), args
}

// orderByClause mirrors task.Query.Compare.
func orderByClause(q task.Query) string {
	dir := "DESC"
	if q.SortOrder == task.SortAsc {
		dir = "ASC"
	}

	var key string
	switch q.SortBy {
	case task.SortUpdatedAt:
		key = "updated_at " + dir
	case task.SortTitle:
		key = `title COLLATE "C" ` + dir
	case task.SortDueDate:
		// a missing due date is the lowest value
		if dir == "ASC" {
			key = "due_date ASC NULLS FIRST"
		} else {
			key = "due_date DESC NULLS LAST"
		}
	case task.SortPriority:
		key = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 0 END " + dir
	default:
		key = "created_at " + dir
	}

	return key + ", id " + dir
}
