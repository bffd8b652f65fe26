package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := NewLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.Available(); got != 2 {
		t.Fatalf("initial Available = %d, want 2", got)
	}

	for i := 1; i <= 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire #%d: %v", i, err)
		}
		if got := l.ActiveCount(); got != i {
			t.Errorf("after Acquire #%d ActiveCount = %d", i, got)
		}
	}
	if got := l.Available(); got != 0 {
		t.Errorf("full Available = %d, want 0", got)
	}

	l.Release()
	l.Release()
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyJobs) {
		t.Fatalf("second Acquire error = %v, want ErrTooManyJobs", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gave up after %v, want about 50ms", elapsed)
	}
}

func TestLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	l := NewLimiter(maxConcurrent, time.Second)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		maxObserved int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer l.Release()

			mu.Lock()
			maxObserved = max(maxObserved, l.ActiveCount())
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d active jobs, max %d", maxObserved, maxConcurrent)
	}
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestLimiter_TryAcquire(t *testing.T) {
	l := NewLimiter(1, time.Second)

	if !l.TryAcquire() {
		t.Fatal("first TryAcquire failed")
	}
	if l.TryAcquire() {
		t.Error("second TryAcquire succeeded on a full limiter")
		l.Release()
	}
	l.Release()
	if !l.TryAcquire() {
		t.Error("TryAcquire after Release failed")
	}
	l.Release()
}

func TestLimiter_AcquireHonorsContext(t *testing.T) {
	l := NewLimiter(1, 5*time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestLimiter_WaitForDrain(t *testing.T) {
	l := NewLimiter(2, time.Second)
	ctx := context.Background()
	_ = l.Acquire(ctx)
	_ = l.Acquire(ctx)

	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	l.Release()
	select {
	case <-done:
		t.Fatal("WaitForDrain returned with a job still active")
	case <-time.After(80 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after all jobs finished")
	}
}

func TestLimiter_WaitForDrainCancelled(t *testing.T) {
	l := NewLimiter(1, time.Second)
	_ = l.Acquire(context.Background())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLimiter_StatusAndDefaults(t *testing.T) {
	l := NewLimiter(3, time.Second)
	_ = l.Acquire(context.Background())
	defer l.Release()

	want := LimiterStatus{Active: 1, Available: 2, MaxConcurrent: 3}
	if got := l.Status(); got != want {
		t.Errorf("Status() = %+v, want %+v", got, want)
	}

	if got := NewLimiter(0, 0).MaxConcurrent(); got != DefaultMaxConcurrentJobs {
		t.Errorf("default MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentJobs)
	}
}
