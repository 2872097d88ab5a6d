package job

import "context"

// Mode classifies when a stage's continuation is eligible to run, per the
// source's error-flow protocol.
type Mode int

const (
	// GoodCase runs only when the upstream stage finished without error;
	// an upstream error is tunneled straight through, unexecuted.
	GoodCase Mode = iota
	// ErrorCase runs only when the upstream stage finished with an error.
	ErrorCase
	// Always runs regardless of upstream outcome and sees both the prior
	// error (possibly nil) and the prior value.
	Always
)

func (m Mode) String() string {
	switch m {
	case ErrorCase:
		return "error-case"
	case Always:
		return "always"
	default:
		return "good-case"
	}
}

type continuationKind int

const (
	kindSync continuationKind = iota
	kindAsync
	kindJob
)

// continuation is the internal, type-erased representation of one stage's
// user-supplied behavior. Exactly one of the function fields is set,
// selected by kind; all operate over `any` so a chain of differently-typed
// stages can share one Executor/Execution implementation, with the typed
// Job façade restoring static types at its boundary.
type continuation struct {
	kind continuationKind

	// sync runs to completion as soon as the predecessor has finished
	// (before exec() returns the stage's Execution if it already had);
	// errIn is the observed upstream error (nil in GoodCase).
	sync func(ctx context.Context, errIn *Error, in any) (any, error)

	// async receives the output future and may complete it from any
	// goroutine, at any later time.
	async func(ctx context.Context, errIn *Error, in any, out *Future[any])

	// job produces a sub-Job to splice in; its own output future becomes
	// this stage's output.
	job func(ctx context.Context, errIn *Error, in any) *anyJob
}

// anyJob is the type-erased view of a Job[In, Out] used for job-producing
// continuations, where Out varies per call site but must still be driven
// through the same Execution machinery.
type anyJob struct {
	exec func(ctx context.Context, rt *runTrace, depth int, in any) *execution
}
