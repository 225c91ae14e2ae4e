package mocks

import (
	"context"

	"contentapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateMetadata(ctx context.Context, filePath, contentText string) model.Metadata {
	args := m.Called(ctx, filePath, contentText)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(model.Metadata)
}
