package job

import (
	"context"

	glist "github.com/bahlo/generic-list-go"
)

// execution is the runtime counterpart of one executor: a single `exec()`
// run's node for that stage, owning the stage's result Future. An
// Execution's guard chain accumulates every guard attached from the head of
// the chain down to and including this stage, so a guard breaking anywhere
// upstream short-circuits this stage too.
type execution struct {
	ex     *executor
	prev   *execution
	result *Future[any]
	guards *glist.List[Guard]
	rt     *runTrace
	depth  int
}

// newGuardChain builds this stage's guard list as the predecessor's guard
// chain with this stage's own guards appended, mirroring the Execution
// chain's own tail-to-head linkage.
func newGuardChain(prev *execution, own guardList) *glist.List[Guard] {
	l := glist.New[Guard]()
	if prev != nil {
		for el := prev.guards.Front(); el != nil; el = el.Next() {
			l.PushBack(el.Value)
		}
	}
	for _, g := range own {
		l.PushBack(g)
	}
	return l
}

func (e *execution) guardBroken() bool {
	for el := e.guards.Front(); el != nil; el = el.Next() {
		if el.Value.Broken() {
			return true
		}
	}
	return false
}

// run decides, from errIn and the stage's Mode, whether the continuation
// runs at all, then dispatches it.
func (e *execution) run(ctx context.Context, errIn *Error, in any) {
	seq := e.rt.start(e.depth, e.ex.name)
	defer e.rt.end(seq, e.depth, e.ex.name)

	if e.guardBroken() {
		// A broken guard skips the continuation entirely; per spec this
		// finishes the output future with the zero value and no error,
		// not a guard-broken error — downstream GoodCase stages must see
		// a clean finish, not a tunneled failure.
		e.result.SetFinished()
		return
	}

	switch e.ex.mode {
	case GoodCase:
		if errIn != nil {
			e.result.SetError(errIn)
			return
		}
	case ErrorCase:
		if errIn == nil {
			e.result.SetValue(in)
			return
		}
	case Always:
		// runs unconditionally
	}

	e.dispatch(ctx, errIn, in)
}

func (e *execution) dispatch(ctx context.Context, errIn *Error, in any) {
	c := e.ex.cont
	defer func() {
		if r := recover(); r != nil {
			e.result.SetError(errorFromPanic(r))
		}
	}()

	switch c.kind {
	case kindSync:
		out, err := c.sync(ctx, errIn, in)
		e.result.SetResult(out, toError(err))

	case kindAsync:
		submitErr := e.rt.pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					e.result.SetError(errorFromPanic(r))
				}
			}()
			c.async(ctx, errIn, in, e.result)
		})
		if submitErr != nil {
			e.result.SetError(WrapError(CodeAggregate, "failed to submit async continuation", submitErr))
		}

	case kindJob:
		sub := c.job(ctx, errIn, in)
		subExec := sub.exec(ctx, e.rt, e.depth+1, Unit{})
		w := NewWatcher[any]()
		w.OnReady(func(v any, err *Error) {
			e.result.SetResult(v, err)
		})
		w.SetFuture(subExec.result)
	}
}

func toError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return WrapError(CodeUser, err.Error(), err)
}
