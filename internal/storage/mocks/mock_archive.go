package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/storage"
)

// MockArchive is a testify mock of storage.Archive.
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(ctx context.Context, doc storage.Document) (string, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, storage.Document) string); ok {
		return f(ctx, doc), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockArchive) DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
