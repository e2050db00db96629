package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, email, password_hash, name, role, is_active, last_login, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var out user.User

	err := r.observe("users.create", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, email, password_hash, name, role, is_active, last_login, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+userColumns,
			u.ID, user.NormalizeEmail(u.Email), u.PasswordHash, u.Name, u.Role, u.IsActive, u.LastLogin, u.CreatedAt, u.UpdatedAt,
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail matches case-insensitively.
func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, user.NormalizeEmail(email))
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, arg))
		if errors.Is(err, pgx.ErrNoRows) {
			// a miss is a normal outcome, keep it out of the error metrics
			return nil
		}
		return err
	})

	if err != nil {
		return user.User{}, err
	}

	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// UpdateProfile writes only the supplied fields.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, p user.ProfileUpdate) (user.User, error) {
	var email *string
	if p.Email != nil {
		e := user.NormalizeEmail(*p.Email)
		email = &e
	}

	return r.updateOne(ctx, "users.update_profile",
		`UPDATE users
			SET name = COALESCE($2, name),
				email = COALESCE($3, email),
				updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Name, email,
	)
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.updateOne(ctx, "users.update_password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, passwordHash,
	)
	return err
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.updateOne(ctx, "users.touch_last_login",
		`UPDATE users SET last_login = $2 WHERE id = $1 RETURNING `+userColumns,
		id, at,
	)
	return err
}

func (r *UsersRepo) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	return r.updateOne(ctx, "users.set_active",
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, active,
	)
}

func (r *UsersRepo) updateOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// List pages through users newest first.
func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, int, error) {
	out := make([]user.User, 0, f.Limit)
	total := 0

	err := r.observe("users.list", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
			f.Limit, f.Offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return out, total, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if affected == 0 {
		return user.ErrNotFound
	}

	return nil
}
