package organizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunPool_VisitsEveryIndex(t *testing.T) {
	const n = 100
	var seen [n]int32

	err := runPool(context.Background(), 7, n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	if err != nil {
		t.Fatalf("runPool: %v", err)
	}
	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d visited %d times", i, c)
		}
	}
}

func TestRunPool_Empty(t *testing.T) {
	called := false
	if err := runPool(context.Background(), 4, 0, func(int) { called = true }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("fn should not be called for empty input")
	}
}

func TestRunPool_ZeroWorkers(t *testing.T) {
	var count int32
	if err := runPool(context.Background(), 0, 5, func(int) { atomic.AddInt32(&count, 1) }); err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestRunPool_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var count int32

	err := runPool(ctx, 1, 50, func(i int) {
		if atomic.AddInt32(&count, 1) == 3 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if count != 3 {
		t.Errorf("processed %d items after cancel, want 3", count)
	}
}
