package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookapi/internal/model"
)

var categoryRowColumns = []string{"id", "name", "icon", "created_at", "updated_at"}

func categoryRow(id, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(categoryRowColumns).
		AddRow(id, name, "https://cdn.example.com/icon.svg", now, now)
}

func newCategoryRepo(t *testing.T) (*CategoryPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCategoryPostgres(db), mock
}

func TestCategoryPostgres_FindByName(t *testing.T) {
	repo, mock := newCategoryRepo(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM categories WHERE name = \$1`).
			WithArgs("fantasy").
			WillReturnRows(categoryRow("c1", "fantasy"))

		c, found, err := repo.FindByName(ctx, "fantasy")

		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "c1", c.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM categories WHERE name = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		c, found, err := repo.FindByName(ctx, "ghost")

		assert.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, c)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPostgres_Save(t *testing.T) {
	repo, mock := newCategoryRepo(t)
	ctx := context.Background()

	t.Run("insert", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO categories`).
			WithArgs("fantasy", "https://cdn.example.com/icon.svg").
			WillReturnRows(categoryRow("c1", "fantasy"))

		stored, err := repo.Save(ctx, &model.Category{Name: "fantasy", Icon: "https://cdn.example.com/icon.svg"})

		assert.NoError(t, err)
		assert.Equal(t, "c1", stored.ID)
	})

	t.Run("update", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`UPDATE categories`).
			WithArgs("c1", "sci-fi", "https://cdn.example.com/icon.svg", now).
			WillReturnRows(categoryRow("c1", "sci-fi"))

		stored, err := repo.Save(ctx, &model.Category{
			ID: "c1", Name: "sci-fi", Icon: "https://cdn.example.com/icon.svg", UpdatedAt: now,
		})

		assert.NoError(t, err)
		assert.Equal(t, "sci-fi", stored.Name)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPostgres_SaveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO categories`).WillReturnRows(categoryRow("c1", "fantasy"))
		mock.ExpectQuery(`INSERT INTO categories`).WillReturnRows(categoryRow("c2", "sci-fi"))
		mock.ExpectCommit()

		cats, err := repo.SaveAll(ctx, []*model.Category{{Name: "fantasy"}, {Name: "sci-fi"}})

		assert.NoError(t, err)
		assert.Len(t, cats, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on failure", func(t *testing.T) {
		repo, mock := newCategoryRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO categories`).WillReturnRows(categoryRow("c1", "fantasy"))
		mock.ExpectQuery(`INSERT INTO categories`).WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		cats, err := repo.SaveAll(ctx, []*model.Category{{Name: "fantasy"}, {Name: "fantasy"}})

		assert.Error(t, err)
		assert.Nil(t, cats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
