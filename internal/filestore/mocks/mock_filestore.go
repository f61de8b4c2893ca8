package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"bookapi/internal/filestore"
)

// MockFileStore is a testify mock for filestore.FileStore.
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Validate(u *filestore.Upload) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockFileStore) Save(ctx context.Context, u *filestore.Upload) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockFileStore) Delete(ctx context.Context, filename string) error {
	args := m.Called(ctx, filename)
	return args.Error(0)
}
