package job

import "weak"

// Guard is a weak reference to an external object that a chain stage is
// conditioned on: once the guarded object is garbage collected, the guard
// reports itself broken and the stage (plus everything downstream of it in
// that Execution) is skipped without error. This models the "the widget
// that owns this callback no longer exists" cancellation a GUI event loop
// needs, without the Future itself holding a strong reference that would
// keep the object alive forever.
//
// No third-party weak-reference package appears anywhere in the example
// corpus, so this is built directly on the standard library's weak.Pointer,
// introduced in the same Go 1.24 line the source already targets.
type Guard interface {
	// Broken reports whether the guarded object has been garbage collected.
	Broken() bool
}

type objGuard[T any] struct {
	ptr weak.Pointer[T]
}

// NewGuard wraps obj — which must be the sole caller-held pointer kept
// alive elsewhere, typically by the object's owner — in a weak reference
// that does not itself extend obj's lifetime.
func NewGuard[T any](obj *T) Guard {
	return objGuard[T]{ptr: weak.Make(obj)}
}

func (g objGuard[T]) Broken() bool {
	return g.ptr.Value() == nil
}

// guardList is the ordered set of guards attached to one chain stage.
type guardList []Guard

func (gs guardList) anyBroken() bool {
	for _, g := range gs {
		if g.Broken() {
			return true
		}
	}
	return false
}
