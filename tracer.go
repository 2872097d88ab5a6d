package job

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Tracer is an optional structured-tracing sink a host can implement to
// observe stage execution. TraceStart/TraceEnd bracket every stage's run
// step, depth tracking the Execution chain's position from the root. For a
// synchronous stage that step includes the continuation itself; for an async
// or job stage TraceEnd fires once the continuation has been dispatched, not
// when the stage's output Future finishes.
type Tracer interface {
	TraceStart(runID string, seq uint64, depth int, name string)
	TraceEnd(runID string, seq uint64, depth int, name string)
}

// noopTracer discards every call; it is the default when a Job is exec'd
// without an explicit Tracer.
type noopTracer struct{}

func (noopTracer) TraceStart(string, uint64, int, string) {}
func (noopTracer) TraceEnd(string, uint64, int, string)   {}

var defaultTracer Tracer = noopTracer{}

// PrintTracer is a reference Tracer implementation for local debugging; it
// writes one line per TraceStart/TraceEnd call via the supplied print func.
type PrintTracer struct {
	Print func(string)
}

// NewPrintTracer returns a PrintTracer writing through fmt.Println.
func NewPrintTracer() *PrintTracer {
	return &PrintTracer{Print: func(s string) { fmt.Println(s) }}
}

func (t *PrintTracer) TraceStart(runID string, seq uint64, depth int, name string) {
	t.Print(fmt.Sprintf("[%s #%d] start %*s%s", runID, seq, depth*2, "", name))
}

func (t *PrintTracer) TraceEnd(runID string, seq uint64, depth int, name string) {
	t.Print(fmt.Sprintf("[%s #%d] end   %*s%s", runID, seq, depth*2, "", name))
}

// runTrace binds one exec() call's Tracer to a monotonically increasing
// stage-sequence counter and a per-run correlation id. The source's
// equivalent destructor decremented a shared counter on stage teardown,
// which could make the counter go negative or collide across nested
// executions; this counter only ever increments, never reused or rolled
// back. Each exec() call gets its own runTrace, so the sequence starts again
// at 1 for every run and is unique only together with runID.
type runTrace struct {
	tracer Tracer
	pool   Pool
	runID  string
	seq    atomic.Uint64
}

func newRunTrace(tracer Tracer, pool Pool) *runTrace {
	if tracer == nil {
		tracer = defaultTracer
	}
	if pool == nil {
		pool = DefaultPool()
	}
	return &runTrace{tracer: tracer, pool: pool, runID: uuid.NewString()}
}

func (rt *runTrace) start(depth int, name string) uint64 {
	seq := rt.seq.Add(1)
	rt.tracer.TraceStart(rt.runID, seq, depth, name)
	return seq
}

func (rt *runTrace) end(seq uint64, depth int, name string) {
	rt.tracer.TraceEnd(rt.runID, seq, depth, name)
}
