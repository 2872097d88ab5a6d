package job

import (
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
)

// Pool is the dispatch abstraction a Job's async continuations and
// container combinators run user closures through, modelled on the
// source's one-method Pool interface.
type Pool interface {
	Submit(f func()) error
}

var defaultPool atomic.Value

func init() {
	defaultPool.Store(PoolOfConc(pool.New()))
}

// DefaultPool returns the package-wide default dispatcher.
func DefaultPool() Pool {
	return defaultPool.Load().(Pool)
}

// SetDefaultPool replaces the package-wide default dispatcher.
func SetDefaultPool(p Pool) {
	defaultPool.Store(p)
}

type poolAdapter func(f func()) error

func (p poolAdapter) Submit(f func()) error { return p(f) }

// PoolOfNoPool dispatches each submission on its own goroutine, recovering
// and discarding any panic instead of crashing the process.
func PoolOfNoPool() Pool {
	return poolAdapter(func(f func()) error {
		go runRecovered(f, nil)
		return nil
	})
}

// PoolOfConc wraps a sourcegraph/conc structured pool, which backs this
// repo's default dispatcher for fan-out combinators. A panic in a submitted
// task is captured by the conc pool and re-raised only when that pool's Wait
// is called; nothing in this package calls Wait on it.
func PoolOfConc(p *pool.Pool) Pool {
	return poolAdapter(func(f func()) error {
		p.Go(f)
		return nil
	})
}

// PoolOfAnts wraps a bounded panjf2000/ants/v2 pool, giving callers the
// concurrency-limit parameter for each/forEach that the source lacked.
func PoolOfAnts(p *ants.Pool) Pool {
	return poolAdapter(func(f func()) error {
		return p.Submit(f)
	})
}

// PoolOfWorkerpool wraps a gammazero/workerpool single-worker FIFO pool,
// used by serialForEach to guarantee launch-order equals completion-order.
func PoolOfWorkerpool(wp *workerpool.WorkerPool) Pool {
	return poolAdapter(func(f func()) error {
		wp.Submit(f)
		return nil
	})
}

// NewSerialPool returns a ready-to-use one-worker FIFO pool.
func NewSerialPool() *workerpool.WorkerPool {
	return workerpool.New(1)
}

// runRecovered runs f, recovering any panic and reporting it through onPanic
// (if non-nil) instead of letting it crash the goroutine's host process.
func runRecovered(f func(), onPanic func(*Error)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(errorFromPanic(r))
		}
	}()
	f()
}
