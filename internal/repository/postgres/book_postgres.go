// Package postgres contains the PostgreSQL implementations of the
// repository contracts. database/sql with parameterized queries only;
// no business logic.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

const bookColumns = `
	b.id, b.name, b.description, b.author, b.cover, b.category_id, b.created_at, b.updated_at,
	c.id, c.name, c.icon, c.created_at, c.updated_at`

const bookFrom = `FROM books b JOIN categories c ON c.id = b.category_id`

// BookPostgres is a PostgreSQL implementation of repository.BookRepository.
type BookPostgres struct {
	db *sql.DB
}

// NewBookPostgres creates a new BookPostgres repository.
func NewBookPostgres(db *sql.DB) *BookPostgres {
	return &BookPostgres{db: db}
}

var _ repository.BookRepository = (*BookPostgres)(nil)

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	var c model.Category
	err := row.Scan(
		&b.ID, &b.Name, &b.Description, &b.Author, &b.Cover, &b.CategoryID, &b.CreatedAt, &b.UpdatedAt,
		&c.ID, &c.Name, &c.Icon, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Category = &c
	return &b, nil
}

func (r *BookPostgres) queryBooks(ctx context.Context, query string, args ...any) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]*model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookPostgres) queryBook(ctx context.Context, query string, args ...any) (*model.Book, bool, error) {
	b, err := scanBook(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// FindByID fetches a single book with its category joined in.
func (r *BookPostgres) FindByID(ctx context.Context, id string) (*model.Book, bool, error) {
	return r.queryBook(ctx, `SELECT `+bookColumns+` `+bookFrom+` WHERE b.id = $1`, id)
}

// FindByName fetches a single book by its normalized unique name.
func (r *BookPostgres) FindByName(ctx context.Context, name string) (*model.Book, bool, error) {
	return r.queryBook(ctx, `SELECT `+bookColumns+` `+bookFrom+` WHERE b.name = $1`, name)
}

// FindByNames fetches every book whose name is in the set with one query.
func (r *BookPostgres) FindByNames(ctx context.Context, names []string) ([]*model.Book, error) {
	if len(names) == 0 {
		return []*model.Book{}, nil
	}
	q := `SELECT ` + bookColumns + ` ` + bookFrom + ` WHERE b.name IN (` + placeholders(len(names), 1) + `)`
	return r.queryBooks(ctx, q, toAnySlice(names)...)
}

// FindAll returns every book ordered by creation time.
func (r *BookPostgres) FindAll(ctx context.Context) ([]*model.Book, error) {
	return r.queryBooks(ctx, `SELECT `+bookColumns+` `+bookFrom+` ORDER BY b.created_at DESC, b.id DESC`)
}

// Save inserts the book when its ID is empty, otherwise updates it.
// IDs and the created_at timestamp are assigned by the database.
func (r *BookPostgres) Save(ctx context.Context, b *model.Book) (*model.Book, error) {
	var id string
	if b.ID == "" {
		const q = `
			INSERT INTO books (name, description, author, cover, category_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		if err := r.db.QueryRowContext(ctx, q, b.Name, b.Description, b.Author, b.Cover, b.CategoryID).Scan(&id); err != nil {
			return nil, err
		}
	} else {
		const q = `
			UPDATE books
			SET name = $2, description = $3, author = $4, cover = $5, category_id = $6, updated_at = $7
			WHERE id = $1
			RETURNING id`
		if err := r.db.QueryRowContext(ctx, q, b.ID, b.Name, b.Description, b.Author, b.Cover, b.CategoryID, b.UpdatedAt).Scan(&id); err != nil {
			return nil, err
		}
	}

	stored, found, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("book %s vanished after save", id)
	}
	return stored, nil
}

// SaveAll inserts a batch of new books inside one transaction; either
// every row is persisted or none are.
func (r *BookPostgres) SaveAll(ctx context.Context, books []*model.Book) ([]*model.Book, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO books (name, description, author, cover, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	ids := make([]string, 0, len(books))
	for _, b := range books {
		var id string
		if err := tx.QueryRowContext(ctx, q, b.Name, b.Description, b.Author, b.Cover, b.CategoryID).Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	out := make([]*model.Book, 0, len(ids))
	for _, id := range ids {
		stored, found, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("book %s vanished after save", id)
		}
		out = append(out, stored)
	}
	return out, nil
}

// DeleteByID removes a book. A missing row is not an error.
func (r *BookPostgres) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	return err
}

// ExistsByID reports whether a book row exists.
func (r *BookPostgres) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// FindByCategoryNames returns books whose category name is in the set.
func (r *BookPostgres) FindByCategoryNames(ctx context.Context, names []string) ([]*model.Book, error) {
	if len(names) == 0 {
		return []*model.Book{}, nil
	}
	q := `SELECT ` + bookColumns + ` ` + bookFrom + ` WHERE c.name IN (` + placeholders(len(names), 1) + `)`
	return r.queryBooks(ctx, q, toAnySlice(names)...)
}

// FindByAuthors returns books written by any of the given authors.
func (r *BookPostgres) FindByAuthors(ctx context.Context, authors []string) ([]*model.Book, error) {
	if len(authors) == 0 {
		return []*model.Book{}, nil
	}
	q := `SELECT ` + bookColumns + ` ` + bookFrom + ` WHERE b.author IN (` + placeholders(len(authors), 1) + `)`
	return r.queryBooks(ctx, q, toAnySlice(authors)...)
}

// Search combines the populated filter fields into one query.
func (r *BookPostgres) Search(ctx context.Context, f repository.BookFilter) ([]*model.Book, error) {
	var conds []string
	var args []any

	if len(f.Categories) > 0 {
		conds = append(conds, `c.name IN (`+placeholders(len(f.Categories), len(args)+1)+`)`)
		args = append(args, toAnySlice(f.Categories)...)
	}
	if len(f.Authors) > 0 {
		conds = append(conds, `b.author IN (`+placeholders(len(f.Authors), len(args)+1)+`)`)
		args = append(args, toAnySlice(f.Authors)...)
	}
	if f.CreatedAfter != nil {
		args = append(args, *f.CreatedAfter)
		conds = append(conds, fmt.Sprintf("b.created_at >= $%d", len(args)))
	}
	if f.CreatedBefore != nil {
		args = append(args, *f.CreatedBefore)
		conds = append(conds, fmt.Sprintf("b.created_at <= $%d", len(args)))
	}

	q := `SELECT ` + bookColumns + ` ` + bookFrom
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY b.created_at DESC, b.id DESC`
	return r.queryBooks(ctx, q, args...)
}

// placeholders renders "$start, $start+1, ..." for IN clauses.
func placeholders(n, start int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
