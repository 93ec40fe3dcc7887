package seriallink

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PICMG/IoTorch/internal/eidpool"
	"github.com/PICMG/IoTorch/internal/process"
)

// toolTimeout bounds each short-lived mctp tool invocation (link set,
// address add). The binder invocation is long-lived and exempt.
const toolTimeout = 10 * time.Second

// Logger defines the logging interface for serial links.
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

// InterfaceLister returns the current set of OS network interface names.
type InterfaceLister func() (map[string]struct{}, error)

// osInterfaceNames is the production InterfaceLister.
func osInterfaceNames() (map[string]struct{}, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(ifaces))
	for _, iface := range ifaces {
		names[iface.Name] = struct{}{}
	}
	return names, nil
}

// Config holds serial link provisioning settings.
type Config struct {
	// MctpBinary is the path to the mctp command-line tool.
	// Default: "mctp"
	MctpBinary string

	// PollInterval is how often to re-read the interface list while
	// waiting for the bound interface.
	// Default: 100ms
	PollInterval time.Duration

	// WaitTimeout bounds the wait for the bound interface.
	// Default: 2s
	WaitTimeout time.Duration

	// GracefulTimeout is passed through to the binder process handle.
	// Default: 2s
	GracefulTimeout time.Duration
}

// Options carries the collaborators a link needs. Pool and Registry are
// required; they are owned by the caller (the bus controller), not by this
// package, so tests and controllers stay hermetic.
type Options struct {
	Config     Config
	Pool       *eidpool.Pool
	Registry   *Registry
	Logger     Logger
	Interfaces InterfaceLister // nil means the OS interface list
}

// Link is one active serial device bound into an MCTP network interface.
//
// Lifecycle: Open returns an active link (interface up, EID assigned);
// Close terminates the binder and clears the link's identity. A closed
// link cannot be reactivated; open a new one instead.
type Link struct {
	mu         sync.Mutex
	devicePath string
	ifname     string
	eid        int
	binder     *process.Handle
	pool       *eidpool.Pool
	registry   *Registry
	logger     Logger
	closed     bool
}

// Open binds devicePath into a network interface and configures it with an
// EID allocated from candidates.
//
// The binder process handle is tracked before any later step can fail and
// is stopped on every error path, so a failed Open leaks neither the
// process nor an EID.
func Open(ctx context.Context, devicePath string, candidates []int, opts Options) (*Link, error) {
	cfg := opts.Config
	if cfg.MctpBinary == "" {
		cfg.MctpBinary = "mctp"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = 2 * time.Second
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 2 * time.Second
	}
	if opts.Pool == nil {
		return nil, fmt.Errorf("seriallink: EID pool is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("seriallink: link registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	lister := opts.Interfaces
	if lister == nil {
		lister = osInterfaceNames
	}

	if _, err := os.Stat(devicePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, devicePath)
		}
		return nil, fmt.Errorf("checking device %s: %w", devicePath, err)
	}

	before, err := lister()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces before binding %s: %w", devicePath, err)
	}

	binder := process.New(process.Config{
		Name:            "mctp-link " + devicePath,
		Binary:          cfg.MctpBinary,
		Args:            []string{"link", "serial", devicePath},
		GracefulTimeout: cfg.GracefulTimeout,
	})
	binder.SetLogger(logger)

	if err := binder.Start(ctx); err != nil {
		return nil, fmt.Errorf("binding %s: %w", devicePath, err)
	}

	// Binder is alive from here; unwind it on every failure.
	fail := func(err error) (*Link, error) {
		if stopErr := binder.Stop(); stopErr != nil {
			logger.Warn("failed to stop binder during unwind", "device", devicePath, "error", stopErr)
		}
		return nil, err
	}

	ifname, err := waitForNewInterface(ctx, lister, before, cfg)
	if err != nil {
		return fail(fmt.Errorf("%w for %s", err, devicePath))
	}
	logger.Debug("bound interface appeared", "device", devicePath, "interface", ifname)

	if err := runTool(ctx, cfg.MctpBinary, "link", "set", ifname, "up"); err != nil {
		return fail(fmt.Errorf("bringing up %s for %s: %w", ifname, devicePath, err))
	}

	eid, err := opts.Pool.Allocate(candidates)
	if err != nil {
		return fail(fmt.Errorf("allocating EID for %s: %w", devicePath, err))
	}

	if err := runTool(ctx, cfg.MctpBinary, "address", "add", strconv.Itoa(eid), "dev", ifname); err != nil {
		opts.Pool.Release(eid)
		return fail(fmt.Errorf("assigning EID %d to %s: %w", eid, ifname, err))
	}

	link := &Link{
		devicePath: devicePath,
		ifname:     ifname,
		eid:        eid,
		binder:     binder,
		pool:       opts.Pool,
		registry:   opts.Registry,
		logger:     logger,
	}
	opts.Registry.add(link)

	logger.Info("serial link active",
		"device", devicePath,
		"interface", ifname,
		"eid", eid,
	)

	return link, nil
}

// waitForNewInterface polls the interface list until a name absent from
// before appears, or the configured timeout elapses.
func waitForNewInterface(ctx context.Context, lister InterfaceLister, before map[string]struct{}, cfg Config) (string, error) {
	deadline := time.Now().Add(cfg.WaitTimeout)
	for {
		current, err := lister()
		if err != nil {
			return "", fmt.Errorf("listing interfaces: %w", err)
		}
		for name := range current {
			if _, existed := before[name]; !existed {
				return name, nil
			}
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w after %v", ErrInterfaceTimeout, cfg.WaitTimeout)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for interface: %w", ctx.Err())
		case <-time.After(cfg.PollInterval):
		}
	}
}

// runTool runs one short-lived mctp tool invocation to completion.
func runTool(ctx context.Context, binary string, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v (output: %s)",
			ErrLinkConfig, binary, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// DevicePath returns the serial device path, or "" after Close.
func (l *Link) DevicePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.devicePath
}

// Interface returns the OS-assigned network interface name, or "" after
// Close.
func (l *Link) Interface() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ifname
}

// EID returns the link's endpoint ID, or 0 after Close.
func (l *Link) EID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eid
}

// Close tears the link down: terminates the binder process, removes the
// link from the registry, releases the EID and clears identity fields.
// Close is idempotent; closing an already-closed link returns nil.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	binder := l.binder
	eid := l.eid
	device := l.devicePath
	l.binder = nil
	l.devicePath = ""
	l.ifname = ""
	l.eid = 0
	l.mu.Unlock()

	var err error
	if binder != nil {
		err = binder.Stop()
	}
	l.registry.remove(l)
	l.pool.Release(eid)

	l.logger.Info("serial link closed", "device", device, "eid", eid)
	return err
}
