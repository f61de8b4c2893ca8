package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

const categoryColumns = `id, name, icon, created_at, updated_at`

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryPostgres) queryCategory(ctx context.Context, query string, args ...any) (*model.Category, bool, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}

func (r *CategoryPostgres) queryCategories(ctx context.Context, query string, args ...any) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := make([]*model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *CategoryPostgres) FindByID(ctx context.Context, id string) (*model.Category, bool, error) {
	return r.queryCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *CategoryPostgres) FindByName(ctx context.Context, name string) (*model.Category, bool, error) {
	return r.queryCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name)
}

func (r *CategoryPostgres) FindByNames(ctx context.Context, names []string) ([]*model.Category, error) {
	if len(names) == 0 {
		return []*model.Category{}, nil
	}
	q := `SELECT ` + categoryColumns + ` FROM categories WHERE name IN (` + placeholders(len(names), 1) + `)`
	return r.queryCategories(ctx, q, toAnySlice(names)...)
}

func (r *CategoryPostgres) FindAll(ctx context.Context) ([]*model.Category, error) {
	return r.queryCategories(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
}

func (r *CategoryPostgres) Save(ctx context.Context, c *model.Category) (*model.Category, error) {
	if c.ID == "" {
		const q = `
			INSERT INTO categories (name, icon)
			VALUES ($1, $2)
			RETURNING ` + categoryColumns
		return scanCategory(r.db.QueryRowContext(ctx, q, c.Name, c.Icon))
	}
	const q = `
		UPDATE categories
		SET name = $2, icon = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + categoryColumns
	return scanCategory(r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.Icon, c.UpdatedAt))
}

func (r *CategoryPostgres) SaveAll(ctx context.Context, cats []*model.Category) ([]*model.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO categories (name, icon)
		VALUES ($1, $2)
		RETURNING ` + categoryColumns
	out := make([]*model.Category, 0, len(cats))
	for _, c := range cats {
		stored, err := scanCategory(tx.QueryRowContext(ctx, q, c.Name, c.Icon))
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

func (r *CategoryPostgres) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}

func (r *CategoryPostgres) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
