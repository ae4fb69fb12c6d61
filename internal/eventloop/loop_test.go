package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestCallRunsOnLoop(t *testing.T) {
	l, _ := startLoop(t)

	counter := 0
	for i := 0; i < 10; i++ {
		if err := l.Call(context.Background(), func() { counter++ }); err != nil {
			t.Fatalf("Call error: %v", err)
		}
	}
	if counter != 10 {
		t.Errorf("counter = %d, want 10", counter)
	}
}

func TestPendingEventsRunBeforeIdle(t *testing.T) {
	l := New()

	var order []string
	// queue before the loop starts so both kinds are pending at once
	if err := l.IdleAdd(func() { order = append(order, "idle") }); err != nil {
		t.Fatalf("IdleAdd error: %v", err)
	}
	for _, name := range []string{"first", "second"} {
		name := name
		if err := l.Post(func() { order = append(order, name) }); err != nil {
			t.Fatalf("Post error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	// Call queues behind the idle callback only if the loop drained events first
	deadline := time.After(2 * time.Second)
	for {
		var n int
		if err := l.Call(ctx, func() { n = len(order) }); err != nil {
			t.Fatalf("Call error: %v", err)
		}
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("idle callback never ran, order = %v", order)
		case <-time.After(5 * time.Millisecond):
		}
	}

	want := []string{"first", "second", "idle"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestIdleRunsOnce(t *testing.T) {
	l, _ := startLoop(t)

	ran := make(chan struct{}, 2)
	if err := l.IdleAdd(func() { ran <- struct{}{} }); err != nil {
		t.Fatalf("IdleAdd error: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("idle callback did not run")
	}

	// give the loop a chance to run it again if it were repeating
	if err := l.Call(context.Background(), func() {}); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	select {
	case <-ran:
		t.Fatal("idle callback ran twice")
	default:
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l, _ := startLoop(t)

	if err := l.Call(context.Background(), func() { panic("boom") }); err != nil {
		t.Fatalf("Call error: %v", err)
	}

	done := false
	if err := l.Call(context.Background(), func() { done = true }); err != nil {
		t.Fatalf("Call after panic error: %v", err)
	}
	if !done {
		t.Error("loop did not process callback after a panic")
	}
}

func TestCallAfterStop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	cancel()
	<-l.Done()

	// fill the buffer so the send cannot win the select
	for i := 0; i < eventQueueSize; i++ {
		l.events <- func() {}
	}

	err := l.Call(context.Background(), func() {})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Call after stop error = %v, want ErrStopped", err)
	}
	if err := l.Post(func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Post after stop error = %v, want ErrStopped", err)
	}
}

func TestCallWaitsForQueuedCallbackAfterCancel(t *testing.T) {
	l, _ := startLoop(t)

	release := make(chan struct{})
	if err := l.Post(func() { <-release }); err != nil {
		t.Fatalf("Post error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	result := make(chan error, 1)
	go func() {
		result <- l.Call(ctx, func() { ran = true })
	}()

	// let Call queue its callback behind the blocked one, then cancel
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		t.Fatalf("Call returned %v before its callback ran", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-result:
		if err != nil {
			t.Errorf("Call error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Call did not return")
	}
	if !ran {
		t.Error("queued callback did not run")
	}
}
