package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// The unique indexes on the name columns are the authoritative backstop
// for name uniqueness: the engine's pre-checks are not race-free, and a
// late collision between concurrent creators surfaces here as a
// constraint violation.
var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_categories",
		SQL: `CREATE TABLE IF NOT EXISTS categories (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  icon       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_unique_index_categories_name",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_categories_name ON categories (name);`,
	},
	{
		Name: "create_table_books",
		SQL: `CREATE TABLE IF NOT EXISTS books (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL,
  description TEXT        NOT NULL DEFAULT '',
  author      TEXT        NOT NULL,
  cover       TEXT        NOT NULL DEFAULT '',
  category_id UUID        NOT NULL REFERENCES categories (id),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_unique_index_books_name",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_books_name ON books (name);`,
	},
	{
		Name: "create_index_books_author",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_books_author ON books (author);`,
	},
	{
		Name: "create_index_books_category_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_books_category_id ON books (category_id);`,
	},
	{
		Name: "create_index_books_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_books_created_at ON books (created_at);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  email      TEXT        NOT NULL,
  password   TEXT        NOT NULL,
  role       TEXT        NOT NULL DEFAULT 'USER',
  avatar     TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_unique_index_users_email",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (email);`,
	},
}

// EnsureMigrated checks whether the schema exists and runs all
// migration steps if it doesn't. The 'books' table is the sentinel.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.books') IS NOT NULL").Scan(&exists); err != nil {
		log.Error("migration sentinel check failed", zap.Error(err))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}
	if exists {
		log.Info("schema already exists, skipping migration", zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	log.Info("running schema migration", zap.Int("steps", len(steps)))
	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed", zap.String("step", step.Name), zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied", zap.String("step", step.Name), zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("schema migration complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
