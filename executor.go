package job

import "context"

// executor is one stage of a declarative, reusable chain: an immutable
// template describing what to run, under what Mode, and which guards
// condition it. Chains are built tail-first — each executor points at its
// predecessor via prev, forming, per stage, a singly linked list from tail
// back to head.
type executor struct {
	prev *executor
	cont continuation
	mode Mode
	guards guardList
	name string
}

func newExecutor(prev *executor, cont continuation, mode Mode, name string) *executor {
	return &executor{prev: prev, cont: cont, mode: mode, name: name}
}

func (ex *executor) withGuard(g Guard) *executor {
	clone := *ex
	clone.guards = append(append(guardList{}, ex.guards...), g)
	return &clone
}

// execute recursively builds this stage's Execution and everything upstream
// of it, then arranges for the stage to run — either immediately, if its
// predecessor is already finished (or this is the head), or once the
// predecessor's result Future fires.
func (ex *executor) execute(ctx context.Context, rt *runTrace, depth int, initial any) *execution {
	var prevExec *execution
	if ex.prev != nil {
		prevExec = ex.prev.execute(ctx, rt, depth+1, initial)
	}

	guards := newGuardChain(prevExec, ex.guards)
	e := &execution{
		ex:     ex,
		prev:   prevExec,
		result: NewFuture[any](),
		guards: guards,
		rt:     rt,
		depth:  depth,
	}

	var prevFuture *Future[any]
	if prevExec != nil {
		prevFuture = prevExec.result
	}

	runNow := func() {
		var in any
		var errIn *Error
		if prevFuture != nil {
			in, errIn = prevFuture.Value(), prevFuture.Err()
		} else {
			in = initial
		}
		e.run(ctx, errIn, in)
	}

	if prevFuture == nil || prevFuture.IsFinished() {
		runNow()
	} else {
		prevFuture.watchReady(runNow)
	}
	return e
}
