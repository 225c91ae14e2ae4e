package mocks

import (
	"context"

	"contentapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Save(ctx context.Context, data []byte, originalFilename string) (string, error) {
	args := m.Called(ctx, data, originalFilename)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, storagePath string) error {
	args := m.Called(ctx, storagePath)
	return args.Error(0)
}

func (m *MockBackend) Path(storagePath string) string {
	args := m.Called(storagePath)
	return args.String(0)
}

func (m *MockBackend) UploadParams(ctx context.Context, filename string) (storage.UploadParams, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(storage.UploadParams), args.Error(1)
}
