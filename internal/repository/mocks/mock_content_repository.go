package mocks

import (
	"context"

	"contentapi/internal/model"
	"contentapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) Create(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContentRepository) FindByID(ctx context.Context, id string) (*model.ContentItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContentRepository) Update(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentItem), args.Error(1)
}

func (m *MockContentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContentRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ContentItem], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ContentItem]), args.Error(1)
}

func (m *MockContentRepository) ListByStatus(ctx context.Context, status model.ContentStatus) ([]model.ContentItem, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContentItem), args.Error(1)
}

func (m *MockContentRepository) MaxVersionForFilename(ctx context.Context, filename string) (int, error) {
	args := m.Called(ctx, filename)
	return args.Int(0), args.Error(1)
}
