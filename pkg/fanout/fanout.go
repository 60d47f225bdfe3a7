// Package fanout is the fork-join runtime emitted parallel fused functions
// call into: a thin wrapper over golang.org/x/sync/errgroup standing in for
// the original planner's Cilk spawn/sync primitive (spec.md §4.8, §5).
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group forks a bounded number of sibling subtree calls and joins them
// before the generated parallel function returns. The zero value is not
// usable; construct with New.
type Group struct {
	eg *errgroup.Group
}

// New starts a Group bound to ctx. limit caps how many forked calls run
// concurrently; 0 means unlimited.
func New(ctx context.Context, limit int) (*Group, context.Context) {
	eg, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	return &Group{eg: eg}, gctx
}

// Go forks fn as a sibling subtree call.
func (g *Group) Go(fn func() error) {
	g.eg.Go(fn)
}

// Wait is the generated layer's sync point: it blocks until every forked
// call has returned, and returns the first non-nil error, if any.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// Depth gates recursion into the parallel variant: generated code calls
// BelowLimit(depth, maxDepth) to decide whether to keep forking or tail-call
// the serial variant instead (spec.md §4.8's depth/maxDepth parameters).
func BelowLimit(depth, maxDepth int) bool {
	return maxDepth <= 0 || depth < maxDepth
}
