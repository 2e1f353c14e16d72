package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/platform/httpx"
)

// RepositoryPort defines the persistence surface the service consults.
type RepositoryPort interface {
	FindAll(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, user User) (*User, error)
	ApplyUpdate(ctx context.Context, id uuid.UUID, ch Changes) (*User, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

const uniqueViolation = "23505"

// PGRepository implements RepositoryPort using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = ability.Role(role)
	return &u, nil
}

// FindAll returns all users ordered by creation time.
func (r *PGRepository) FindAll(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// FindByID fetches one user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// FindByEmail fetches one user by normalized email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Insert persists a new user and returns the stored row.
func (r *PGRepository) Insert(ctx context.Context, user User) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role))
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return u, nil
}

// ApplyUpdate writes only the given fields and returns the updated row.
// Column names are fixed by the Changes keys; values are parameterized.
func (r *PGRepository) ApplyUpdate(ctx context.Context, id uuid.UUID, ch Changes) (*User, error) {
	if len(ch) == 0 {
		return r.FindByID(ctx, id)
	}
	set := ""
	args := []any{id}
	for _, field := range []struct {
		key    string
		column string
	}{
		{ability.FieldName, "name"},
		{ability.FieldEmail, "email"},
		{ability.FieldPassword, "password_hash"},
		{ability.FieldRole, "role"},
	} {
		value, ok := ch[field.key]
		if !ok {
			continue
		}
		args = append(args, value)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", field.column, len(args))
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET `+set+`, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, args...)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return u, nil
}

// Remove deletes a user. Returns ErrNotFound when nothing was deleted.
func (r *PGRepository) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*PGRepository)(nil)
