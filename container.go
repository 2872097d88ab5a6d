package job

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

// ControlFlow is the flag a DoWhile body returns to request another
// iteration (Continue) or to stop (Break).
type ControlFlow int

const (
	Continue ControlFlow = iota
	Break
)

type containerConfig struct {
	concurrency int
	policy      AggregationPolicy
}

// ContainerOption configures a container combinator's fan-out concurrency
// and error-aggregation policy.
type ContainerOption func(*containerConfig)

// WithConcurrency bounds a combinator's fan-out to at most n concurrently
// running sub-tasks. The default, 0, is unbounded — matching the source,
// which has no concurrency-limit parameter at all.
func WithConcurrency(n int) ContainerOption {
	return func(c *containerConfig) { c.concurrency = n }
}

// WithAllErrors switches a combinator's error-aggregation policy from the
// default (first error observed wins) to folding every sub-task error
// together with multierr.
func WithAllErrors() ContainerOption {
	return func(c *containerConfig) { c.policy = AllErrors }
}

func buildConfig(opts []ContainerOption) containerConfig {
	var c containerConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Each runs fn over every element of the upstream slice and collects the
// results in source order, independent of completion order.
func Each[In, E, R any](j *Job[In, []E], fn func(ctx context.Context, elem E) (R, error), opts ...ContainerOption) *Job[In, []R] {
	cfg := buildConfig(opts)
	return Then(j, func(ctx context.Context, elems []E, out *Future[[]R]) {
		runContainer(ctx, elems, cfg, fn, out)
	})
}

// EachFlatten behaves like Each but for continuations that each produce a
// slice of results; the per-element slices are flattened into one []R in
// source order — the iterable-append aggregation mode of each.
func EachFlatten[In, E, R any](j *Job[In, []E], fn func(ctx context.Context, elem E) ([]R, error), opts ...ContainerOption) *Job[In, []R] {
	cfg := buildConfig(opts)
	return Then(j, func(ctx context.Context, elems []E, out *Future[[]R]) {
		nested := NewFuture[[][]R]()
		w := NewWatcher[[][]R]()
		w.OnReady(func(v [][]R, err *Error) {
			if err != nil {
				out.SetError(err)
				return
			}
			out.SetValue(lo.Flatten(v))
		})
		w.SetFuture(nested)
		runContainer(ctx, elems, cfg, fn, nested)
	})
}

// Reduce folds the upstream slice down to a single value. It is shaped
// exactly like a SyncThen whose input is constrained, at compile time, to
// be the container Job's own element slice type.
func Reduce[In, E, Out any](j *Job[In, []E], fn func(ctx context.Context, elems []E) (Out, error)) *Job[In, Out] {
	return SyncThen(j, fn)
}

// ForEach runs an independent Execution of sub for every upstream element,
// concurrently, collecting results in source order.
func ForEach[In, E, R any](j *Job[In, []E], sub *Job[E, R], opts ...ContainerOption) *Job[In, []R] {
	cfg := buildConfig(opts)
	return Then(j, func(ctx context.Context, elems []E, out *Future[[]R]) {
		runContainer(ctx, elems, cfg, func(ctx context.Context, e E) (R, error) {
			f := sub.Exec(ctx, e)
			f.WaitForFinished()
			return f.Value(), errOf(f.Err())
		}, out)
	})
}

// SerialForEach runs an independent Execution of sub for every upstream
// element, strictly one at a time, so launch order equals completion order.
func SerialForEach[In, E, R any](j *Job[In, []E], sub *Job[E, R]) *Job[In, []R] {
	return Then(j, func(ctx context.Context, elems []E, out *Future[[]R]) {
		wp := NewSerialPool()
		defer wp.StopWait()
		pool := PoolOfWorkerpool(wp)

		results := make([]R, len(elems))
		agg := newAggregator(FirstError)
		var mu sync.Mutex
		var wg sync.WaitGroup
		wg.Add(len(elems))

		pending := deque.New[int]()
		for i := range elems {
			pending.PushBack(i)
		}
		for pending.Len() > 0 {
			i := pending.PopFront()
			e := elems[i]
			_ = pool.Submit(func() {
				defer wg.Done()
				f := sub.Exec(ctx, e)
				f.WaitForFinished()
				mu.Lock()
				if f.HasError() {
					agg.add(f.Err())
				} else {
					results[i] = f.Value()
				}
				mu.Unlock()
			})
		}
		wg.Wait()

		if err := agg.result(); err != nil {
			out.SetError(toError(err))
			return
		}
		out.SetValue(results)
	})
}

// DoWhile repeatedly exec's body with the same input until it returns
// Break or fails. maxIterations bounds the loop; 0 means unbounded.
func DoWhile[In any](body *Job[In, ControlFlow], maxIterations int) *Job[In, Unit] {
	return StartAsync(func(ctx context.Context, in In, out *Future[Unit]) {
		go func() {
			var budget *deque.Deque[struct{}]
			if maxIterations > 0 {
				budget = deque.New[struct{}]()
				for i := 0; i < maxIterations; i++ {
					budget.PushBack(struct{}{})
				}
			}
			for {
				if budget != nil {
					if budget.Len() == 0 {
						out.SetValue(Unit{})
						return
					}
					budget.PopFront()
				}
				f := body.Exec(ctx, in)
				f.WaitForFinished()
				if f.HasError() {
					out.SetError(f.Err())
					return
				}
				if f.Value() == Break {
					out.SetValue(Unit{})
					return
				}
			}
		}()
	})
}

// WaitForCompletion returns a Job that finishes once every listed Future has
// finished, regardless of whether any finished with an error.
func WaitForCompletion[In any](futures ...Awaitable) *Job[In, Unit] {
	return StartAsync(func(ctx context.Context, _ In, out *Future[Unit]) {
		if len(futures) == 0 {
			out.SetValue(Unit{})
			return
		}
		var wg sync.WaitGroup
		wg.Add(len(futures))
		for _, f := range futures {
			f.watchReady(func() { wg.Done() })
		}
		go func() {
			wg.Wait()
			out.SetValue(Unit{})
		}()
	})
}

func errOf(e *Error) error {
	if e == nil {
		return nil
	}
	return e
}

// runContainer fans fn out over elems — bounded by an ants pool when
// cfg.concurrency > 0, unbounded otherwise — aggregating results in source
// order and errors per cfg.policy. Every sub-job runs to its own natural
// completion regardless of cfg.policy: FirstError only governs which error
// the aggregate result reports, never which sub-jobs get to execute.
func runContainer[E, R any](ctx context.Context, elems []E, cfg containerConfig, fn func(context.Context, E) (R, error), out *Future[[]R]) {
	n := len(elems)
	if n == 0 {
		out.SetValue(nil)
		return
	}

	results := make([]R, n)
	agg := newAggregator(cfg.policy)
	var mu sync.Mutex

	run := func(i int, e E) {
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				agg.add(errorFromPanic(r))
				mu.Unlock()
			}
		}()
		r, ferr := fn(ctx, e)
		mu.Lock()
		defer mu.Unlock()
		if ferr != nil {
			agg.add(ferr)
			return
		}
		results[i] = r
	}

	var wg sync.WaitGroup
	wg.Add(n)

	if cfg.concurrency > 0 {
		antsPool, err := ants.NewPool(cfg.concurrency)
		if err != nil {
			out.SetError(WrapError(CodeAggregate, "failed to create bounded pool", err))
			return
		}
		defer antsPool.Release()
		pool := PoolOfAnts(antsPool)

		for i, e := range elems {
			i, e := i, e
			submitErr := pool.Submit(func() {
				defer wg.Done()
				run(i, e)
			})
			if submitErr != nil {
				wg.Done()
				mu.Lock()
				agg.add(submitErr)
				mu.Unlock()
			}
		}
	} else {
		for i, e := range elems {
			i, e := i, e
			submitErr := DefaultPool().Submit(func() {
				defer wg.Done()
				run(i, e)
			})
			if submitErr != nil {
				wg.Done()
				mu.Lock()
				agg.add(submitErr)
				mu.Unlock()
			}
		}
	}
	wg.Wait()

	if err := agg.result(); err != nil {
		out.SetError(toError(err))
		return
	}
	out.SetValue(results)
}
