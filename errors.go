package job

import (
	"fmt"

	"go.uber.org/multierr"
)

// Code classifies the sentinel condition an Error carries alongside its
// free-form Message.
type Code int

const (
	CodeNone Code = iota
	CodeGuardBroken
	CodeTimeout
	CodeAggregate
	CodePanic
	CodeUser
)

func (c Code) String() string {
	switch c {
	case CodeGuardBroken:
		return "guard-broken"
	case CodeTimeout:
		return "timeout"
	case CodeAggregate:
		return "aggregate"
	case CodePanic:
		return "panic"
	case CodeUser:
		return "user"
	default:
		return "none"
	}
}

// Error is the {code, message} record carried on a Future, per the source's
// error model: a plain value, never an exception.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches an underlying cause, preserved via Unwrap for
// errors.Is/errors.As.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Code so callers can write errors.Is(err, job.ErrGuardBroken).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for errors.Is comparisons against well-known codes.
var (
	ErrGuardBroken = NewError(CodeGuardBroken, "guard broken")
	ErrTimeout     = NewError(CodeTimeout, "timed out")
)

// errorFromPanic turns a recovered panic value into an *Error so that a
// continuation panic is delivered as data on the stage's output future
// instead of unwinding the goroutine stack of an unrelated caller.
func errorFromPanic(r any) *Error {
	if err, ok := r.(error); ok {
		return WrapError(CodePanic, "continuation panicked", err)
	}
	return NewError(CodePanic, fmt.Sprintf("continuation panicked: %v", r))
}

// AggregationPolicy controls how container combinators fold multiple
// sub-job errors into a single error on the aggregate Future.
type AggregationPolicy int

const (
	// FirstError keeps only the first error observed, matching the
	// source's forEach/each behavior.
	FirstError AggregationPolicy = iota
	// AllErrors folds every sub-job error together with multierr.
	AllErrors
)

// aggregator accumulates sub-job errors under a chosen AggregationPolicy.
type aggregator struct {
	policy AggregationPolicy
	first  error
	all    error
}

func newAggregator(policy AggregationPolicy) *aggregator {
	return &aggregator{policy: policy}
}

func (a *aggregator) add(err error) {
	if err == nil {
		return
	}
	if a.first == nil {
		a.first = err
	}
	if a.policy == AllErrors {
		a.all = multierr.Append(a.all, err)
	}
}

func (a *aggregator) result() error {
	if a.policy == AllErrors {
		return a.all
	}
	return a.first
}
