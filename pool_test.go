package job

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
)

func TestPoolOfNoPoolRunsAndRecoversPanics(t *testing.T) {
	p := PoolOfNoPool()

	var wg sync.WaitGroup
	wg.Add(1)
	var ran atomic.Bool
	if err := p.Submit(func() {
		defer wg.Done()
		ran.Store(true)
	}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	wg.Wait()
	if !ran.Load() {
		t.Fatal("expected submitted func to run")
	}

	// A panicking submission must not crash the test process.
	done := make(chan struct{})
	if err := p.Submit(func() {
		defer close(done)
		panic("boom")
	}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	<-done
}

func TestPoolOfConcRunsSubmissions(t *testing.T) {
	p := PoolOfConc(pool.New())

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}
	wg.Wait()
	if n.Load() != 8 {
		t.Fatalf("expected 8 submissions to run, got %d", n.Load())
	}
}

func TestPoolOfAntsRunsAllSubmissions(t *testing.T) {
	antsPool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("ants.NewPool: %v", err)
	}
	defer antsPool.Release()
	p := PoolOfAnts(antsPool)

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}
	wg.Wait()
	if n.Load() != 10 {
		t.Fatalf("expected 10 submissions to run, got %d", n.Load())
	}
}

func TestPoolOfWorkerpoolRunsInOrder(t *testing.T) {
	wp := workerpool.New(1)
	defer wp.StopWait()
	p := PoolOfWorkerpool(wp)

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}
	wg.Wait()
	for i, v := range order {
		if v != i {
			t.Fatalf("expected strict submission order, got %v", order)
		}
	}
}

type countingPool struct {
	n atomic.Int32
}

func (p *countingPool) Submit(f func()) error {
	p.n.Add(1)
	f()
	return nil
}

func TestDefaultPoolGetSetRoundTrip(t *testing.T) {
	orig := DefaultPool()
	defer SetDefaultPool(orig)

	custom := &countingPool{}
	SetDefaultPool(custom)
	if DefaultPool() != Pool(custom) {
		t.Fatal("expected SetDefaultPool to replace DefaultPool's return value")
	}
	_ = DefaultPool().Submit(func() {})
	if custom.n.Load() != 1 {
		t.Fatalf("expected the replaced default pool to receive the submission, got count %d", custom.n.Load())
	}
}
