package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInline(t *testing.T) {
	ran := false
	if err := (Inline{}).Do(func() { ran = true }); err != nil || !ran {
		t.Errorf("Inline did not run task: ran=%v err=%v", ran, err)
	}
}

func TestDoRunsOnLoopGoroutine(t *testing.T) {
	l := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks int
	var mu sync.Mutex
	errc := make(chan error, 1)
	go func() {
		errc <- l.Run(ctx, time.Millisecond, func(time.Time) {
			mu.Lock()
			ticks++
			mu.Unlock()
		})
	}()

	// counter is only touched by loop tasks, so no lock is needed
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Do(func() { counter++ }); err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	var got int
	if err := l.Do(func() { got = counter }); err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Errorf("Expected 50 increments, got %d", got)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if err := l.Do(func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped after shutdown, got %v", err)
	}
}

func TestDrain(t *testing.T) {
	l := New(8)
	var order []int
	for i := 0; i < 3; i++ {
		if err := l.Post(func() { order = append(order, i) }); err != nil {
			t.Fatal(err)
		}
	}

	if n := l.Drain(); n != 3 {
		t.Errorf("Expected 3 tasks drained, got %d", n)
	}
	if len(order) != 3 || order[0] != 0 || order[2] != 2 {
		t.Errorf("Tasks ran out of order: %v", order)
	}
	if n := l.Drain(); n != 0 {
		t.Errorf("Expected empty queue, drained %d", n)
	}
}

func TestDoAfterClose(t *testing.T) {
	l := New(1)
	l.Close()
	l.Close()

	if err := l.Do(func() { t.Error("task ran after close") }); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
	if err := l.Post(func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}
