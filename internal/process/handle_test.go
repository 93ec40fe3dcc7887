package process

import (
	"context"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	h := New(Config{
		Name:   "test-proc",
		Binary: "/bin/true",
	})

	if h.config.GracefulTimeout != 2*time.Second {
		t.Errorf("GracefulTimeout = %v, want 2s", h.config.GracefulTimeout)
	}
	if h.Status() != StatusIdle {
		t.Errorf("initial Status() = %q, want %q", h.Status(), StatusIdle)
	}
	if h.IsRunning() {
		t.Error("IsRunning() = true before Start()")
	}
	if h.PID() != 0 {
		t.Errorf("PID() = %d, want 0", h.PID())
	}
}

func TestHandle_StartAndStop(t *testing.T) {
	h := New(Config{
		Name:            "test-sleep",
		Binary:          "/bin/sleep",
		Args:            []string{"60"},
		GracefulTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if !h.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}
	if h.PID() == 0 {
		t.Error("PID() = 0 after Start()")
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	if h.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
	if h.Status() != StatusStopped {
		t.Errorf("Status() = %q, want %q", h.Status(), StatusStopped)
	}
}

func TestHandle_StopWhenNeverStarted(t *testing.T) {
	h := New(Config{
		Name:   "test",
		Binary: "/bin/true",
	})

	if err := h.Stop(); err != nil {
		t.Errorf("Stop() on never-started handle error = %v, want nil", err)
	}
}

func TestHandle_StopIsIdempotent(t *testing.T) {
	h := New(Config{
		Name:   "test-sleep",
		Binary: "/bin/sleep",
		Args:   []string{"60"},
	})

	ctx := context.Background()
	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("first Stop() error: %v", err)
	}
	if err := h.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}

func TestHandle_StartTwiceFails(t *testing.T) {
	h := New(Config{
		Name:   "test-sleep",
		Binary: "/bin/sleep",
		Args:   []string{"60"},
	})

	ctx := context.Background()
	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer h.Stop()

	if err := h.Start(ctx); err == nil {
		t.Error("second Start() expected error, got nil")
	}
}

func TestHandle_InvalidBinary(t *testing.T) {
	h := New(Config{
		Name:   "bad-binary",
		Binary: "/nonexistent/binary",
	})

	if err := h.Start(context.Background()); err == nil {
		t.Fatal("Start() with invalid binary expected error, got nil")
	}

	if h.Status() != StatusIdle {
		t.Errorf("Status() = %q after failed start, want %q", h.Status(), StatusIdle)
	}
}

func TestHandle_RecordsExit(t *testing.T) {
	h := New(Config{
		Name:   "short-lived",
		Binary: "/bin/true",
	})

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// Wait for the reaper to observe the exit.
	deadline := time.Now().Add(2 * time.Second)
	for h.Status() != StatusExited {
		if time.Now().After(deadline) {
			t.Fatalf("Status() = %q, want %q within 2s", h.Status(), StatusExited)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := h.ExitError(); err != nil {
		t.Errorf("ExitError() = %v for clean exit, want nil", err)
	}

	// Stop after natural exit is still a no-op.
	if err := h.Stop(); err != nil {
		t.Errorf("Stop() after exit error = %v, want nil", err)
	}
}
