package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of an owned process.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
	StatusStopped Status = "stopped"
)

// outputBufferSize is the buffer size for capturing subprocess stdout/stderr.
const outputBufferSize = 4096

// Config holds configuration for an owned subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	// Default: 2s
	GracefulTimeout time.Duration
}

// Logger defines the logging interface for the process handle.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handle owns one child process from Start to Stop.
type Handle struct {
	config Config
	logger Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	status  Status
	exitErr error

	// done is closed when the child has been fully reaped.
	done chan struct{}
}

// New creates a handle for the given configuration. The process is not
// started until Start is called.
func New(cfg Config) *Handle {
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 2 * time.Second
	}
	return &Handle{
		config: cfg,
		logger: noopLogger{},
		status: StatusIdle,
	}
}

// SetLogger sets the logger for the handle.
func (h *Handle) SetLogger(logger Logger) {
	h.logger = logger
}

// Start launches the child process. A handle can only be started once;
// restarting requires a new Handle.
func (h *Handle) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status != StatusIdle {
		return fmt.Errorf("process %s already started", h.config.Name)
	}

	cmd := exec.CommandContext(ctx, h.config.Binary, h.config.Args...)

	// New process group so Stop can signal the child and anything it forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", h.config.Name, err)
	}

	h.cmd = cmd
	h.status = StatusRunning
	h.done = make(chan struct{})

	go h.captureOutput("stdout", stdout)
	go h.captureOutput("stderr", stderr)
	go h.reap()

	h.logger.Debug("process started",
		"name", h.config.Name,
		"binary", h.config.Binary,
		"pid", cmd.Process.Pid,
	)

	return nil
}

// captureOutput reads from the given reader and logs each chunk.
func (h *Handle) captureOutput(stream string, r io.Reader) {
	buf := make([]byte, outputBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.logger.Debug("process output",
				"name", h.config.Name,
				"stream", stream,
				"output", string(buf[:n]),
			)
		}
		if err != nil {
			return
		}
	}
}

// reap waits for the child to exit and records the result.
func (h *Handle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.exitErr = err
	if h.status == StatusRunning {
		h.status = StatusExited
	}
	done := h.done
	h.mu.Unlock()

	close(done)
}

// Stop terminates the child process if it is still running: SIGTERM to the
// process group, then SIGKILL after the graceful timeout. Stop is
// idempotent and safe to call on a handle that was never started.
func (h *Handle) Stop() error {
	h.mu.Lock()
	if h.status != StatusRunning {
		h.mu.Unlock()
		return nil
	}
	h.status = StatusStopped
	cmd := h.cmd
	done := h.done
	h.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	pid := cmd.Process.Pid
	h.logger.Debug("stopping process", "name", h.config.Name, "pid", pid)

	// Negative PID signals the process group created via Setpgid.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			h.logger.Warn("failed to send SIGTERM", "name", h.config.Name, "error", err)
		}
	}

	select {
	case <-done:
		h.logger.Debug("process exited", "name", h.config.Name)
		return nil
	case <-time.After(h.config.GracefulTimeout):
		h.logger.Warn("graceful stop timeout, sending SIGKILL",
			"name", h.config.Name,
			"timeout", h.config.GracefulTimeout,
		)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("killing process group %s: %w", h.config.Name, err)
		}
	}

	<-done
	h.logger.Debug("process killed", "name", h.config.Name)
	return nil
}

// Status returns the current status of the owned process.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// IsRunning returns true if the process is currently running.
func (h *Handle) IsRunning() bool {
	return h.Status() == StatusRunning
}

// PID returns the process ID, or 0 if the process was never started.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd != nil && h.cmd.Process != nil {
		return h.cmd.Process.Pid
	}
	return 0
}

// ExitError returns the error recorded when the child exited, or nil if it
// has not exited (or exited cleanly).
func (h *Handle) ExitError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}
