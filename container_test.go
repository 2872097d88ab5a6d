package job

import (
	"context"
	"errors"
	"testing"
)

func TestEachPreservesOrder(t *testing.T) {
	src := Start(func(ctx context.Context, in []int) ([]int, error) { return in, nil })
	doubled := Each(src, func(ctx context.Context, e int) (int, error) { return e * 2, nil })

	f := doubled.Exec(context.Background(), []int{1, 2, 3, 4, 5})
	f.WaitForFinished()

	want := []int{2, 4, 6, 8, 10}
	got := f.Value()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEachFirstErrorPolicy(t *testing.T) {
	src := Start(func(ctx context.Context, in []int) ([]int, error) { return in, nil })
	boom := errors.New("boom")
	withErr := Each(src, func(ctx context.Context, e int) (int, error) {
		if e == 3 {
			return 0, boom
		}
		return e, nil
	})

	f := withErr.Exec(context.Background(), []int{1, 2, 3, 4})
	f.WaitForFinished()

	if !f.HasError() {
		t.Fatal("expected aggregate error")
	}
}

func TestEachWithConcurrencyLimit(t *testing.T) {
	src := Start(func(ctx context.Context, in []int) ([]int, error) { return in, nil })
	squared := Each(src, func(ctx context.Context, e int) (int, error) { return e * e, nil }, WithConcurrency(2))

	f := squared.Exec(context.Background(), []int{1, 2, 3, 4, 5})
	f.WaitForFinished()

	want := []int{1, 4, 9, 16, 25}
	got := f.Value()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestReduceSumsElements(t *testing.T) {
	src := Start(func(ctx context.Context, in []int) ([]int, error) { return in, nil })
	sum := Reduce(src, func(ctx context.Context, elems []int) (int, error) {
		total := 0
		for _, e := range elems {
			total += e
		}
		return total, nil
	})

	f := sum.Exec(context.Background(), []int{1, 2, 3, 4})
	f.WaitForFinished()

	if f.Value() != 10 {
		t.Fatalf("got %d, want 10", f.Value())
	}
}

func TestForEachRunsSubJobPerElement(t *testing.T) {
	src := Start(func(ctx context.Context, in []int) ([]int, error) { return in, nil })
	sub := Start(func(ctx context.Context, in int) (int, error) { return in + 100, nil })
	fanned := ForEach(src, sub)

	f := fanned.Exec(context.Background(), []int{1, 2, 3})
	f.WaitForFinished()

	want := []int{101, 102, 103}
	got := f.Value()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSerialForEachPreservesLaunchOrder(t *testing.T) {
	src := Start(func(ctx context.Context, in []int) ([]int, error) { return in, nil })

	var order []int
	sub := Start(func(ctx context.Context, in int) (int, error) {
		order = append(order, in)
		return in, nil
	})
	serial := SerialForEach(src, sub)

	f := serial.Exec(context.Background(), []int{1, 2, 3, 4})
	f.WaitForFinished()

	for i, v := range order {
		if v != i+1 {
			t.Fatalf("expected strict launch order, got %v", order)
		}
	}
}

func TestDoWhileStopsOnBreak(t *testing.T) {
	count := 0
	body := Start(func(ctx context.Context, in int) (ControlFlow, error) {
		count++
		if count >= 3 {
			return Break, nil
		}
		return Continue, nil
	})
	loop := DoWhile(body, 0)

	f := loop.Exec(context.Background(), 0)
	f.WaitForFinished()

	if count != 3 {
		t.Fatalf("expected body to run exactly 3 times, ran %d", count)
	}
	if f.HasError() {
		t.Fatalf("expected success, got %v", f.Err())
	}
}

func TestWaitForCompletionIgnoresErrors(t *testing.T) {
	a := NewFuture[int]()
	b := NewFuture[string]()

	done := WaitForCompletion[int](a, b)
	f := done.Exec(context.Background(), 0)

	a.SetError(NewError(CodeUser, "boom"))
	b.SetValue("ok")

	f.WaitForFinished()
	if f.HasError() {
		t.Fatalf("WaitForCompletion must ignore sub-future errors, got %v", f.Err())
	}
}
