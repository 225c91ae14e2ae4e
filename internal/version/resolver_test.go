package version

import (
	"context"
	"errors"
	"testing"

	repoMocks "contentapi/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
)

func TestResolver_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("first upload gets version 1", func(t *testing.T) {
		mRepo := new(repoMocks.MockContentRepository)
		mRepo.On("MaxVersionForFilename", ctx, "fresh.txt").Return(0, nil)

		v, err := NewResolver(mRepo).Next(ctx, "fresh.txt")

		assert.NoError(t, err)
		assert.Equal(t, 1, v)
		mRepo.AssertExpectations(t)
	})

	t.Run("subsequent upload gets max plus one", func(t *testing.T) {
		mRepo := new(repoMocks.MockContentRepository)
		mRepo.On("MaxVersionForFilename", ctx, "report.txt").Return(4, nil)

		v, err := NewResolver(mRepo).Next(ctx, "report.txt")

		assert.NoError(t, err)
		assert.Equal(t, 5, v)
	})

	t.Run("store error propagates", func(t *testing.T) {
		mRepo := new(repoMocks.MockContentRepository)
		mRepo.On("MaxVersionForFilename", ctx, "x.txt").Return(0, errors.New("db down"))

		_, err := NewResolver(mRepo).Next(ctx, "x.txt")

		assert.Error(t, err)
	})
}

func TestResolver_SequentialUploadsAreGapless(t *testing.T) {
	// Simulates n sequential uploads of one filename: each Next sees the
	// previous assignment, so versions come out exactly 1..n.
	ctx := context.Background()
	mRepo := new(repoMocks.MockContentRepository)
	r := NewResolver(mRepo)

	current := 0
	for i := 1; i <= 5; i++ {
		mRepo.ExpectedCalls = nil
		mRepo.On("MaxVersionForFilename", ctx, "report.txt").Return(current, nil)

		v, err := r.Next(ctx, "report.txt")
		assert.NoError(t, err)
		assert.Equal(t, i, v)
		current = v
	}
}
