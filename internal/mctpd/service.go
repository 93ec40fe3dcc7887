package mctpd

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Logger defines the logging interface for the service controller.
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

// ServiceConfig holds settings for controlling the mctpd systemd unit.
type ServiceConfig struct {
	// UnitName is the systemd unit name.
	// Default: "mctpd.service"
	UnitName string

	// Systemctl is the path to the systemctl binary.
	// Default: "systemctl"
	Systemctl string

	// CommandTimeout bounds each systemctl invocation.
	// Default: 10s
	CommandTimeout time.Duration
}

// Service controls the mctpd daemon through the system service manager.
// It holds no state about the daemon beyond what systemctl reports.
type Service struct {
	config ServiceConfig
	logger Logger
}

// NewService creates a service controller, applying defaults for zero
// values.
func NewService(cfg ServiceConfig) *Service {
	if cfg.UnitName == "" {
		cfg.UnitName = "mctpd.service"
	}
	if cfg.Systemctl == "" {
		cfg.Systemctl = "systemctl"
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	return &Service{
		config: cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the service controller.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// UnitName returns the systemd unit this controller manages.
func (s *Service) UnitName() string {
	return s.config.UnitName
}

// IsActive reports whether the unit is currently active. systemctl
// communicates the answer through its exit status alone.
func (s *Service) IsActive(ctx context.Context) bool {
	err := s.systemctl(ctx, "is-active", "--quiet")
	return err == nil
}

// Start starts the unit.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting daemon", "unit", s.config.UnitName)
	if err := s.systemctl(ctx, "start"); err != nil {
		return fmt.Errorf("starting %s: %w", s.config.UnitName, err)
	}
	return nil
}

// Stop stops the unit. Stopping an inactive unit succeeds.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("stopping daemon", "unit", s.config.UnitName)
	if err := s.systemctl(ctx, "stop"); err != nil {
		return fmt.Errorf("stopping %s: %w", s.config.UnitName, err)
	}
	return nil
}

// Restart stops the unit if it is active, then starts it. A plain start is
// not enough after provisioning links: an already-running daemon would keep
// enumeration state from before the links existed.
func (s *Service) Restart(ctx context.Context) error {
	if s.IsActive(ctx) {
		if err := s.Stop(ctx); err != nil {
			return err
		}
	}
	return s.Start(ctx)
}

// systemctl runs one systemctl verb against the configured unit.
func (s *Service) systemctl(ctx context.Context, verb string, extra ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, s.config.CommandTimeout)
	defer cancel()

	args := append([]string{verb}, extra...)
	args = append(args, s.config.UnitName)

	cmd := exec.CommandContext(runCtx, s.config.Systemctl, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("systemctl %s timed out after %v", verb, s.config.CommandTimeout)
		}
		return fmt.Errorf("systemctl %s: %w (output: %s)", verb, err, string(output))
	}

	s.logger.Debug("systemctl succeeded", "verb", verb, "unit", s.config.UnitName)
	return nil
}
