package cargo

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// gate limits concurrent package-manager runs. cargo holds a lock on its
// install root, so overlapping runs for the same crate queue here rather
// than inside cargo where they cannot be canceled.
type gate struct {
	sem *semaphore.Weighted
}

func newGate(limit int) *gate {
	if limit < 1 {
		limit = 1
	}
	return &gate{sem: semaphore.NewWeighted(int64(limit))}
}

// run acquires a slot, runs fn and releases the slot. It returns ctx.Err()
// if ctx is done while waiting. A nil gate runs fn directly.
func (g *gate) run(ctx context.Context, fn func() error) error {
	if g == nil || g.sem == nil {
		return fn()
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}
