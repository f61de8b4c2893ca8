// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this
// directory. No business logic here — strictly persistence operations.
package repository

import (
	"context"
	"time"

	"bookapi/internal/model"
)

// Repository is the generic persistence contract consumed by the CRUD
// engine, parameterized over the entity type. Lookups that may miss
// return an explicit found flag instead of a sentinel error, so
// callers branch on presence rather than on error identity.
type Repository[T any] interface {
	// FindByID returns the entity with the given ID, if any.
	FindByID(ctx context.Context, id string) (T, bool, error)

	// FindByName returns the entity with the given unique name, if any.
	// Name comparison happens against the stored (normalized) value.
	FindByName(ctx context.Context, name string) (T, bool, error)

	// FindByNames returns all entities whose name is in the given set,
	// in a single batched query.
	FindByNames(ctx context.Context, names []string) ([]T, error)

	// FindAll returns every entity of the type.
	FindAll(ctx context.Context) ([]T, error)

	// Save inserts the entity when its ID is empty, otherwise updates
	// it. Returns the stored entity including DB-assigned values.
	Save(ctx context.Context, e T) (T, error)

	// SaveAll inserts a batch of new entities inside one transaction;
	// either all rows are persisted or none are.
	SaveAll(ctx context.Context, es []T) ([]T, error)

	// DeleteByID removes an entity. Deleting a missing row is not an error.
	DeleteByID(ctx context.Context, id string) error

	// ExistsByID reports whether a row with the given ID exists.
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// BookFilter narrows a book search. Nil / empty fields are ignored.
type BookFilter struct {
	Categories    []string
	Authors       []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// BookRepository adds the book-specific queries on top of the generic
// contract.
type BookRepository interface {
	Repository[*model.Book]

	// FindByCategoryNames returns books whose category name is in the set.
	FindByCategoryNames(ctx context.Context, names []string) ([]*model.Book, error)

	// FindByAuthors returns books written by any of the given authors.
	FindByAuthors(ctx context.Context, authors []string) ([]*model.Book, error)

	// Search returns books matching every populated filter field.
	Search(ctx context.Context, f BookFilter) ([]*model.Book, error)
}

// UserRepository adds the role listing used by the admin endpoints.
// The user's unique "name" is their email address.
type UserRepository interface {
	Repository[*model.User]

	// FindAllByRole returns every user holding the given role.
	FindAllByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

// CategoryRepository is the plain generic contract; categories need no
// extra queries.
type CategoryRepository interface {
	Repository[*model.Category]
}
