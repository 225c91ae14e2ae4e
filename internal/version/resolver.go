// Package version assigns monotonic per-filename version numbers.
package version

import (
	"context"
	"fmt"

	"contentapi/internal/repository"
)

// Resolver computes the next version for an original filename at the point
// of record creation. Versions start at 1 and only ever grow; without a
// transactional compare-and-set in the record store, two racing uploads may
// land on the same version (last writer wins), but a version is never
// skipped back or reused deliberately.
type Resolver struct {
	repo repository.ContentRepository
}

// NewResolver constructs a Resolver over the given record store.
func NewResolver(repo repository.ContentRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Next returns max(existing versions for filename) + 1, or 1 when the
// filename has never been uploaded.
func (r *Resolver) Next(ctx context.Context, filename string) (int, error) {
	max, err := r.repo.MaxVersionForFilename(ctx, filename)
	if err != nil {
		return 0, fmt.Errorf("resolve version for %q: %w", filename, err)
	}
	return max + 1, nil
}
