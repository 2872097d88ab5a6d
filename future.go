package job

import (
	"sync"
	"sync/atomic"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/spf13/cast"
)

// Future is a single-assignment, shared-state handle for one stage's
// outcome, modelled on the source's FutureTask state machine but widened to
// also carry progress notifications for a bound Watcher.
type Future[T any] struct {
	mu       sync.Mutex
	finished atomic.Bool
	value    T
	err      *Error
	progress float64

	watchers  *orderedmap.OrderedMap[uint64, *watcherEntry[T]]
	nextID    uint64
	done      chan struct{}
	closeOnce sync.Once
}

type watcherEntry[T any] struct {
	onReady    func(T, *Error)
	onProgress func(float64)
}

// NewFuture returns a fresh, unfinished Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{
		watchers: orderedmap.New[uint64, *watcherEntry[T]](),
		done:     make(chan struct{}),
	}
}

// IsFinished reports whether the Future has received a value, an error, or
// an explicit SetFinished call.
func (f *Future[T]) IsFinished() bool { return f.finished.Load() }

// Value returns the assigned value. It is the zero value until the Future
// finishes, or if the Future finished with an error.
func (f *Future[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Err returns the assigned error, or nil.
func (f *Future[T]) Err() *Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// HasError reports whether the Future finished with a non-nil error.
func (f *Future[T]) HasError() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err != nil
}

// Progress returns the last fraction reported via SetProgress, in [0,1].
func (f *Future[T]) Progress() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

// SetValue finishes the Future successfully with v. Calling it on an
// already-finished Future is a no-op, matching the source's single-
// assignment discipline.
func (f *Future[T]) SetValue(v T) {
	f.finish(v, nil)
}

// SetError finishes the Future with err.
func (f *Future[T]) SetError(err *Error) {
	var zero T
	f.finish(zero, err)
}

// SetResult finishes with v if err is nil, else with err.
func (f *Future[T]) SetResult(v T, err *Error) {
	if err != nil {
		f.SetError(err)
		return
	}
	f.SetValue(v)
}

// SetFinished finishes the Future with the zero value and no error; used by
// stages whose only observable effect is "done", e.g. Unit-typed stages.
func (f *Future[T]) SetFinished() {
	var zero T
	f.finish(zero, nil)
}

// SetProgress reports a fractional progress update in [0,1] to every
// currently-registered watcher. It never finishes the Future.
func (f *Future[T]) SetProgress(fraction float64) {
	f.mu.Lock()
	if f.finished.Load() {
		f.mu.Unlock()
		return
	}
	f.progress = fraction
	watchers := f.snapshotWatchers()
	f.mu.Unlock()

	for _, w := range watchers {
		if w.onProgress != nil {
			w.onProgress(fraction)
		}
	}
}

// SetProgressCount reports progress as done/total, coerced through
// spf13/cast so callers may pass any of Go's numeric kinds for either arg.
func (f *Future[T]) SetProgressCount(done, total any) {
	d := cast.ToFloat64(done)
	t := cast.ToFloat64(total)
	if t <= 0 {
		f.SetProgress(0)
		return
	}
	f.SetProgress(d / t)
}

func (f *Future[T]) finish(v T, err *Error) {
	f.mu.Lock()
	if f.finished.Load() {
		f.mu.Unlock()
		return
	}
	f.value = v
	f.err = err
	f.finished.Store(true)
	watchers := f.snapshotWatchers()
	f.mu.Unlock()

	f.closeOnce.Do(func() { close(f.done) })
	for _, w := range watchers {
		w.onReady(v, err)
	}
}

// snapshotWatchers returns watchers in registration order. Caller must hold f.mu.
func (f *Future[T]) snapshotWatchers() []*watcherEntry[T] {
	out := make([]*watcherEntry[T], 0, f.watchers.Len())
	for pair := f.watchers.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// watch registers onReady/onProgress callbacks and returns a detach function.
// If the Future is already finished, onReady fires synchronously before
// watch returns — matching the source's "binding to an already-finished
// future delivers an immediate notification" rule.
func (f *Future[T]) watch(onReady func(T, *Error), onProgress func(float64)) (detach func()) {
	f.mu.Lock()
	if f.finished.Load() {
		v, err := f.value, f.err
		f.mu.Unlock()
		if onReady != nil {
			onReady(v, err)
		}
		return func() {}
	}

	id := f.nextID
	f.nextID++
	f.watchers.Set(id, &watcherEntry[T]{onReady: onReady, onProgress: onProgress})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.watchers.Delete(id)
		f.mu.Unlock()
	}
}

// WaitForFinished blocks the calling goroutine until the Future finishes.
// Host programs built around a single-threaded event loop must never call
// this from the loop's own goroutine — it has no way to keep pumping
// callbacks while parked here, so a Future fed only by that same loop would
// deadlock. It exists for tests and for non-event-loop callers only.
func (f *Future[T]) WaitForFinished() {
	<-f.done
}

// Watcher is a detachable, bound observer of a single Future's readiness and
// progress notifications.
type Watcher[T any] struct {
	mu         sync.Mutex
	onReady    func(T, *Error)
	onProgress func(float64)
	detach     func()
}

// NewWatcher returns an unbound Watcher. Attach it to a Future with SetFuture.
func NewWatcher[T any]() *Watcher[T] { return &Watcher[T]{} }

// OnReady registers the readiness callback and returns the Watcher for
// chaining, in the teacher's fluent-builder style.
func (w *Watcher[T]) OnReady(fn func(value T, err *Error)) *Watcher[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReady = fn
	return w
}

// OnProgress registers the progress callback.
func (w *Watcher[T]) OnProgress(fn func(fraction float64)) *Watcher[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onProgress = fn
	return w
}

// SetFuture binds the Watcher to f, detaching from any previously bound
// Future first.
func (w *Watcher[T]) SetFuture(f *Future[T]) {
	w.mu.Lock()
	if w.detach != nil {
		w.detach()
		w.detach = nil
	}
	ready, progress := w.onReady, w.onProgress
	w.mu.Unlock()

	detach := f.watch(ready, progress)

	w.mu.Lock()
	w.detach = detach
	w.mu.Unlock()
}

// Detach unregisters the Watcher from its bound Future, if any. Safe to call
// multiple times.
func (w *Watcher[T]) Detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.detach != nil {
		w.detach()
		w.detach = nil
	}
}

// Awaitable is the minimal surface WaitForCompletion needs from a Future of
// any element type.
type Awaitable interface {
	watchReady(fn func())
}

func (f *Future[T]) watchReady(fn func()) {
	f.watch(func(T, *Error) { fn() }, nil)
}
