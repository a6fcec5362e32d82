package frame

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Strategy is the lazy evaluator's collection strategy (config.LazyEvalConfig
// .CollectionStrategy). It controls how Lazy.Collect materializes partitions,
// not whether it does — collection is always eager once Collect is called.
type Strategy int

const (
	Sequential Strategy = iota
	Parallel
	Streaming
	Adaptive
)

// Partition produces one chunk of a Lazy plan's rows. Partitions are
// collected independently and concatenated in order, so ordering guarantees
// (spec.md §5) require callers to sort the final Frame by group keys
// afterward rather than relying on partition submission order.
type Partition func(ctx context.Context) (*Frame, error)

// Lazy holds a deferred plan (expressed as a list of Partition thunks) and a
// collection strategy, materializing only when Collect is called. This is
// the target-language replacement for the source's ambient lazy-frame
// wrapper (spec.md §9): a value holding a plan, not a global registry.
type Lazy struct {
	partitions []Partition
	strategy   Strategy
	maxParallel int
}

// NewLazy builds a Lazy plan from partition thunks and a strategy. maxParallel
// bounds concurrent partition collection for Parallel/Streaming/Adaptive; it
// is ignored for Sequential.
func NewLazy(strategy Strategy, maxParallel int, partitions ...Partition) *Lazy {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Lazy{partitions: partitions, strategy: strategy, maxParallel: maxParallel}
}

// Collect materializes the plan into a single Frame. Errors from any
// partition abort the whole collection (no partial results are returned),
// matching the estimator's Cancelled propagation policy (spec.md §5).
func (l *Lazy) Collect(ctx context.Context) (*Frame, error) {
	if len(l.partitions) == 0 {
		return Empty(), nil
	}
	if l.strategy == Sequential || len(l.partitions) == 1 {
		return l.collectSequential(ctx)
	}
	return l.collectConcurrent(ctx)
}

func (l *Lazy) collectSequential(ctx context.Context) (*Frame, error) {
	results := make([]*Frame, len(l.partitions))
	for i, p := range l.partitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr, err := p(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = fr
	}
	return Concat(results...), nil
}

// collectConcurrent runs Parallel/Streaming/Adaptive strategies with bounded
// concurrency via errgroup.SetLimit, then concatenates results in the
// original partition order (not completion order) so output is
// deterministic regardless of scheduling (spec.md §5 ordering guarantee).
func (l *Lazy) collectConcurrent(ctx context.Context) (*Frame, error) {
	results := make([]*Frame, len(l.partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxParallel)
	for i, p := range l.partitions {
		i, p := i, p
		g.Go(func() error {
			fr, err := p(gctx)
			if err != nil {
				return err
			}
			results[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Concat(results...), nil
}
