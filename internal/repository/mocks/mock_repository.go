package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// MockRepository is a testify mock for the generic repository contract.
// The entity-specific mocks embed it.
type MockRepository[T any] struct {
	mock.Mock
}

func (m *MockRepository[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	args := m.Called(ctx, id)
	var zero T
	if args.Get(0) == nil {
		return zero, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(T), args.Bool(1), args.Error(2)
}

func (m *MockRepository[T]) FindByName(ctx context.Context, name string) (T, bool, error) {
	args := m.Called(ctx, name)
	var zero T
	if args.Get(0) == nil {
		return zero, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(T), args.Bool(1), args.Error(2)
}

func (m *MockRepository[T]) FindByNames(ctx context.Context, names []string) ([]T, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) Save(ctx context.Context, e T) (T, error) {
	args := m.Called(ctx, e)
	var zero T
	if args.Get(0) == nil {
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

func (m *MockRepository[T]) SaveAll(ctx context.Context, es []T) ([]T, error) {
	args := m.Called(ctx, es)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository[T]) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockBookRepository mocks repository.BookRepository.
type MockBookRepository struct {
	MockRepository[*model.Book]
}

func (m *MockBookRepository) FindByCategoryNames(ctx context.Context, names []string) ([]*model.Book, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Book), args.Error(1)
}

func (m *MockBookRepository) FindByAuthors(ctx context.Context, authors []string) ([]*model.Book, error) {
	args := m.Called(ctx, authors)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Book), args.Error(1)
}

func (m *MockBookRepository) Search(ctx context.Context, f repository.BookFilter) ([]*model.Book, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Book), args.Error(1)
}

// MockUserRepository mocks repository.UserRepository.
type MockUserRepository struct {
	MockRepository[*model.User]
}

func (m *MockUserRepository) FindAllByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

// MockCategoryRepository mocks repository.CategoryRepository.
type MockCategoryRepository struct {
	MockRepository[*model.Category]
}
