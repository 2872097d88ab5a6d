package job

import (
	"context"
	"time"
)

// Unit is the sentinel "no meaningful value" type for continuations of
// arity zero, e.g. a job-continuation's sub-Job, or Wait's output.
type Unit struct{}

// Job is the user-facing façade over a declarative, reusable chain of
// Executor stages. Building a Job never runs anything; every call to Exec
// spawns an independent Execution graph rooted in a fresh Future.
type Job[In, Out any] struct {
	tail   *executor
	tracer Tracer
	pool   Pool
}

// WithTracer returns a copy of j that reports stage timing through tracer
// when exec'd.
func (j *Job[In, Out]) WithTracer(tracer Tracer) *Job[In, Out] {
	clone := *j
	clone.tracer = tracer
	return &clone
}

// WithPool returns a copy of j whose async continuations are dispatched
// through pool instead of the package-wide DefaultPool.
func (j *Job[In, Out]) WithPool(pool Pool) *Job[In, Out] {
	clone := *j
	clone.pool = pool
	return &clone
}

// Guarded returns a copy of j whose tail stage — and so, transitively,
// every stage built on top of it — is skipped once obj is garbage
// collected. obj must be kept alive elsewhere (typically by its owner);
// this call does not extend its lifetime.
func Guarded[In, Out, T any](j *Job[In, Out], obj *T) *Job[In, Out] {
	clone := *j
	clone.tail = j.tail.withGuard(NewGuard(obj))
	return &clone
}

// Exec spawns a fresh Execution graph for this chain with the given initial
// value and returns the tail stage's result Future. The chain itself is
// unmodified and may be exec'd again, concurrently or otherwise.
func (j *Job[In, Out]) Exec(ctx context.Context, in In) *Future[Out] {
	exec := j.exec(ctx, newRunTrace(j.tracer, j.pool), 0, in)
	return bridgeFuture[Out](exec.result)
}

// exec is the type-erased entry point used internally by job-continuations,
// which need to trigger a sub-Job without knowing its concrete In type ahead
// of time (they always pass Unit{} boxed as any).
func (j *Job[In, Out]) exec(ctx context.Context, rt *runTrace, depth int, in any) *execution {
	return j.tail.execute(ctx, rt, depth, in)
}

func (j *Job[In, Out]) asAnyJob() *anyJob {
	return &anyJob{exec: j.exec}
}

// bridgeFuture adapts a Future[any] to a Future[T] by forwarding its
// readiness, used at the Job/Execution type boundary.
func bridgeFuture[T any](src *Future[any]) *Future[T] {
	dst := NewFuture[T]()
	w := NewWatcher[any]()
	w.OnReady(func(v any, err *Error) {
		if err != nil {
			dst.SetError(err)
			return
		}
		tv, _ := v.(T)
		dst.SetValue(tv)
	})
	w.SetFuture(src)
	return dst
}

// Start builds a new chain whose single stage is a synchronous
// continuation with no predecessor.
func Start[In, Out any](fn func(ctx context.Context, in In) (Out, error)) *Job[In, Out] {
	cont := continuation{
		kind: kindSync,
		sync: func(ctx context.Context, _ *Error, in any) (any, error) {
			out, err := fn(ctx, in.(In))
			return out, err
		},
	}
	return &Job[In, Out]{tail: newExecutor(nil, cont, GoodCase, "start")}
}

// StartAsync builds a new chain whose single stage is an asynchronous
// continuation with no predecessor; fn must eventually complete out.
func StartAsync[In, Out any](fn func(ctx context.Context, in In, out *Future[Out])) *Job[In, Out] {
	cont := continuation{
		kind: kindAsync,
		async: func(ctx context.Context, _ *Error, in any, out *Future[any]) {
			typed := NewFuture[Out]()
			w := NewWatcher[Out]()
			w.OnReady(func(v Out, err *Error) { out.SetResult(v, err) })
			w.SetFuture(typed)
			fn(ctx, in.(In), typed)
		},
	}
	return &Job[In, Out]{tail: newExecutor(nil, cont, GoodCase, "start-async")}
}

// SyncThen appends a synchronous GoodCase continuation: it runs only if the
// chain so far has not errored, and runs to completion as soon as its
// predecessor has finished — before the stage's Execution is returned when
// the predecessor was already finished, otherwise later, from the
// predecessor's readiness notification.
func SyncThen[In, Mid, Out any](j *Job[In, Mid], fn func(ctx context.Context, in Mid) (Out, error)) *Job[In, Out] {
	cont := continuation{
		kind: kindSync,
		sync: func(ctx context.Context, _ *Error, in any) (any, error) {
			return fn(ctx, in.(Mid))
		},
	}
	return &Job[In, Out]{tail: newExecutor(j.tail, cont, GoodCase, "sync-then"), tracer: j.tracer, pool: j.pool}
}

// Then appends an asynchronous GoodCase continuation.
func Then[In, Mid, Out any](j *Job[In, Mid], fn func(ctx context.Context, in Mid, out *Future[Out])) *Job[In, Out] {
	cont := continuation{
		kind: kindAsync,
		async: func(ctx context.Context, _ *Error, in any, out *Future[any]) {
			typed := NewFuture[Out]()
			w := NewWatcher[Out]()
			w.OnReady(func(v Out, err *Error) { out.SetResult(v, err) })
			w.SetFuture(typed)
			fn(ctx, in.(Mid), typed)
		},
	}
	return &Job[In, Out]{tail: newExecutor(j.tail, cont, GoodCase, "then"), tracer: j.tracer, pool: j.pool}
}

// ThenJob appends a GoodCase continuation that produces a fresh sub-Job per
// invocation; the sub-Job's own output future becomes this stage's output.
func ThenJob[In, Mid, Out any](j *Job[In, Mid], fn func(ctx context.Context, in Mid) *Job[Unit, Out]) *Job[In, Out] {
	cont := continuation{
		kind: kindJob,
		job: func(ctx context.Context, _ *Error, in any) *anyJob {
			return fn(ctx, in.(Mid)).asAnyJob()
		},
	}
	return &Job[In, Out]{tail: newExecutor(j.tail, cont, GoodCase, "then-job"), tracer: j.tracer, pool: j.pool}
}

// OnError appends an ErrorCase continuation: it runs only when the upstream
// stage finished with an error, and may clear that error by returning a
// normal value of the same type the success path would have produced. On
// the success path the upstream value is passed through untouched.
func OnError[In, Out any](j *Job[In, Out], fn func(ctx context.Context, err *Error, in Out) (Out, error)) *Job[In, Out] {
	cont := continuation{
		kind: kindSync,
		sync: func(ctx context.Context, errIn *Error, in any) (any, error) {
			typed, _ := in.(Out)
			return fn(ctx, errIn, typed)
		},
	}
	return &Job[In, Out]{tail: newExecutor(j.tail, cont, ErrorCase, "on-error"), tracer: j.tracer, pool: j.pool}
}

// Always appends a continuation that runs unconditionally and observes both
// the upstream error (possibly nil) and the upstream value.
func Always[In, Mid, Out any](j *Job[In, Mid], fn func(ctx context.Context, err *Error, in Mid) (Out, error)) *Job[In, Out] {
	cont := continuation{
		kind: kindSync,
		sync: func(ctx context.Context, errIn *Error, in any) (any, error) {
			typed, _ := in.(Mid)
			return fn(ctx, errIn, typed)
		},
	}
	return &Job[In, Out]{tail: newExecutor(j.tail, cont, Always, "always"), tracer: j.tracer, pool: j.pool}
}

// Join structurally splices next onto j's tail: next's own chain of stages
// is rebuilt with its head re-rooted onto j's tail, producing one combined
// chain from j's head through next's tail.
func Join[In, Mid, Out any](j *Job[In, Mid], next *Job[Mid, Out]) *Job[In, Out] {
	rebuilt := rebuildExecutor(j.tail, next.tail)
	return &Job[In, Out]{tail: rebuilt, tracer: j.tracer, pool: j.pool}
}

// rebuildExecutor clones ex and every stage upstream of it, replacing the
// ultimate nil-prev head with base.
func rebuildExecutor(base *executor, ex *executor) *executor {
	newPrev := base
	if ex.prev != nil {
		newPrev = rebuildExecutor(base, ex.prev)
	}
	rebuilt := newExecutor(newPrev, ex.cont, ex.mode, ex.name)
	rebuilt.guards = ex.guards
	return rebuilt
}

// Null returns a trivially-succeeding Job producing Unit, useful as a chain
// head when the first real stage only needs to run once triggered.
func Null[In any]() *Job[In, Unit] {
	return Start(func(ctx context.Context, _ In) (Unit, error) { return Unit{}, nil })
}

// Value returns a trivially-succeeding Job producing the fixed value v.
func Value[In, Out any](v Out) *Job[In, Out] {
	return Start(func(ctx context.Context, _ In) (Out, error) { return v, nil })
}

// JobError returns a trivially-failing Job producing the given error.
func JobError[In, Out any](code Code, message string) *Job[In, Out] {
	return Start(func(ctx context.Context, _ In) (Out, error) {
		var zero Out
		return zero, NewError(code, message)
	})
}

// Wait returns a Job that finishes with Unit after delay elapses, for
// composing fixed delays into a chain with Join/ThenJob.
func Wait(delay time.Duration) *Job[Unit, Unit] {
	return StartAsync(func(ctx context.Context, _ Unit, out *Future[Unit]) {
		go func() {
			select {
			case <-time.After(delay):
				out.SetValue(Unit{})
			case <-ctx.Done():
				out.SetError(WrapError(CodeTimeout, "wait cancelled", ctx.Err()))
			}
		}()
	})
}
