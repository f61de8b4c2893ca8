package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

const userColumns = `id, name, email, password, role, avatar, created_at, updated_at`

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// The user's unique name column is email.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Avatar, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserPostgres) queryUser(ctx context.Context, query string, args ...any) (*model.User, bool, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return u, true, nil
}

func (r *UserPostgres) queryUsers(ctx context.Context, query string, args ...any) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, bool, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByName looks a user up by email, their unique name.
func (r *UserPostgres) FindByName(ctx context.Context, email string) (*model.User, bool, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserPostgres) FindByNames(ctx context.Context, emails []string) ([]*model.User, error) {
	if len(emails) == 0 {
		return []*model.User{}, nil
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE email IN (` + placeholders(len(emails), 1) + `)`
	return r.queryUsers(ctx, q, toAnySlice(emails)...)
}

func (r *UserPostgres) FindAll(ctx context.Context) ([]*model.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
}

func (r *UserPostgres) FindAllByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC, id DESC`, string(role))
}

func (r *UserPostgres) Save(ctx context.Context, u *model.User) (*model.User, error) {
	if u.ID == "" {
		const q = `
			INSERT INTO users (name, email, password, role, avatar)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + userColumns
		return scanUser(r.db.QueryRowContext(ctx, q, u.Name, u.Email, u.Password, string(u.Role), u.Avatar))
	}
	const q = `
		UPDATE users
		SET name = $2, email = $3, password = $4, role = $5, avatar = $6, updated_at = $7
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Name, u.Email, u.Password, string(u.Role), u.Avatar, u.UpdatedAt))
}

func (r *UserPostgres) SaveAll(ctx context.Context, users []*model.User) ([]*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO users (name, email, password, role, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	out := make([]*model.User, 0, len(users))
	for _, u := range users {
		stored, err := scanUser(tx.QueryRowContext(ctx, q, u.Name, u.Email, u.Password, string(u.Role), u.Avatar))
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserPostgres) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *UserPostgres) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
