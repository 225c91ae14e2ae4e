package mocks

import (
	"context"

	"contentapi/internal/model"
	"contentapi/internal/service"
	"contentapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) Upload(ctx context.Context, data []byte, originalFilename, contentType string, meta model.Metadata) (*model.ContentItem, error) {
	args := m.Called(ctx, data, originalFilename, contentType, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContentService) Finalize(ctx context.Context, in service.FinalizeInput) (*model.ContentItem, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContentService) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContentService) List(ctx context.Context, limit, offset int) (*service.ContentListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ContentListResult), args.Error(1)
}

func (m *MockContentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContentService) UploadParams(ctx context.Context, filename string) (storage.UploadParams, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(storage.UploadParams), args.Error(1)
}
