/*
Package job provides a composable, statically-typed asynchronous task graph.

Callers declaratively build a chain of continuations — synchronous or
asynchronous — and trigger it any number of times; each stage produces a
Future whose value or error feeds the next stage. The package is designed for
event-loop-driven programs (GUI, network services) where callbacks must be
composed without descending into callback hell, while keeping the data
flowing between stages checked at compile time wherever Go's type system
allows it.

# Core concepts

Future: a single-assignment, shared-state handle for one stage's outcome.

	f := job.NewFuture[int]()
	f.SetValue(42)
	v, err := f.Value(), f.Err()

Job: the user-facing façade over a declarative chain of Executor stages. A
Job is built once and is reusable; every call to Exec spawns an independent
Execution graph.

	pipeline := job.Start(func(ctx context.Context, in int) (int, error) {
	    return in + 3, nil
	})
	pipeline = job.SyncThen(pipeline, func(ctx context.Context, in int) (int, error) {
	    return in * 4, nil
	})
	f := pipeline.Exec(ctx, 2)
	f.WaitForFinished()
	// f.Value() == 20

# Error flow

Errors are data carried on the Future, never exceptions. A GoodCase stage
tunnels an upstream error straight through, unexecuted; an ErrorCase stage
(built with OnError) only runs when there is an error to examine, and can
clear it by producing a normal value:

	recovered := job.OnError(failing, func(ctx context.Context, err *job.Error, in int) (int, error) {
	    return 42, nil // error cleared, chain continues with 42
	})

# Guards

A Guard is a weak reference to an external object (backed by the standard
library's weak.Pointer). Attaching a guard to a stage means that stage — and
everything downstream of it in that Execution — is skipped without error if
the guarded object has been garbage collected by the time the stage is about
to run, modelling the "owning widget disappeared" cancellation a GUI event
loop needs. A continuation that is already running is not interrupted.

# Container combinators

Each, ForEach, SerialForEach, DoWhile and WaitForCompletion fan a Job out
over a container and fold the sub-results back together; see container.go
for the full set and their ordering/error-aggregation guarantees.
*/
package job
