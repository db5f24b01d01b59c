package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userrole/auth-api/internal/core/domain"
)

// userSelect joins each user with its role so reads always return both.
const userSelect = `
SELECT u.id, u.username, u.password, u.role_id, u.created_at, u.updated_at,
       r.id, r.name, r.created_at, r.updated_at
FROM users u
JOIN roles r ON r.id = u.role_id`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role domain.Role
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.RoleID, &u.CreatedAt, &u.UpdatedAt,
		&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = &role
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
WITH u AS (
	INSERT INTO users (username, password, role_id) VALUES ($1, $2, $3)
	RETURNING *
)
SELECT u.id, u.username, u.password, u.role_id, u.created_at, u.updated_at,
       r.id, r.name, r.created_at, r.updated_at
FROM u JOIN roles r ON r.id = u.role_id`

	created, err := scanUser(r.db.QueryRow(ctx, query, user.Username, user.PasswordHash, user.RoleID))
	if err != nil {
		return nil, translateUserWriteErr("insert user", err)
	}
	return created, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, userSelect+` ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, userSelect+` WHERE u.id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, userSelect+` WHERE u.username = $1`, username)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// Update applies the non-nil fields of update. NULL parameters keep the
// current column value.
func (r *UserRepository) Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
WITH u AS (
	UPDATE users SET
		username   = COALESCE($2, username),
		password   = COALESCE($3, password),
		role_id    = COALESCE($4, role_id),
		updated_at = now()
	WHERE id = $1
	RETURNING *
)
SELECT u.id, u.username, u.password, u.role_id, u.created_at, u.updated_at,
       r.id, r.name, r.created_at, r.updated_at
FROM u JOIN roles r ON r.id = u.role_id`

	updated, err := scanUser(r.db.QueryRow(ctx, query, id, update.Username, update.PasswordHash, update.RoleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateUserWriteErr("update user", err)
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func translateUserWriteErr(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return domain.ErrUserExists
	case isForeignKeyViolation(err):
		return domain.ErrInvalidRole
	}
	return fmt.Errorf("%s: %w", op, err)
}
