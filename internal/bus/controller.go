package bus

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/PICMG/IoTorch/internal/eidpool"
	"github.com/PICMG/IoTorch/internal/mctpd"
	"github.com/PICMG/IoTorch/internal/seriallink"
)

// State is the controller's lifecycle phase, exposed for logging and the
// HTTP API.
type State string

const (
	StateConfiguringRange      State = "configuring-range"
	StateProvisioningLinks     State = "provisioning-links"
	StateRestartingDaemon      State = "restarting-daemon"
	StateAwaitingStabilization State = "awaiting-stabilization"
	StateReady                 State = "ready"
	StateFailed                State = "failed"
	StateClosed                State = "closed"
)

// Guard serializes controller construction. Acquiring an already-held
// guard fails immediately rather than waiting: two controllers racing for
// the same daemon and hardware cannot both be right.
type Guard struct {
	mu   sync.Mutex
	held bool
}

// NewGuard returns an independent guard, typically for tests; production
// callers pass nil Options.Guard and share the process-wide one.
func NewGuard() *Guard {
	return &Guard{}
}

func (g *Guard) acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return ErrControllerActive
	}
	g.held = true
	return nil
}

func (g *Guard) release() {
	g.mu.Lock()
	g.held = false
	g.mu.Unlock()
}

var processGuard = NewGuard()

// DiscoveryConfig holds the stabilization polling knobs.
type DiscoveryConfig struct {
	// PollInterval is the delay between endpoint count polls.
	// Default: 1s
	PollInterval time.Duration

	// StabilizeTimeout bounds the whole stabilization wait.
	// Default: 30s
	StabilizeTimeout time.Duration
}

// Logger defines the logging interface for the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options carries everything New needs. ConfPath and Patterns are
// required; the rest default to production collaborators when left zero.
type Options struct {
	// ConfPath is the mctpd configuration file the dynamic EID range is
	// read from.
	ConfPath string

	// Patterns are device path globs, e.g. /dev/ttyUSB*.
	Patterns []string

	// Link configures serial link provisioning.
	Link seriallink.Config

	// Discovery configures stabilization polling.
	Discovery DiscoveryConfig

	// Service controls the mctpd systemd unit. Nil means defaults.
	Service *mctpd.Service

	// Tree is the D-Bus object tree. Nil means the system bus, which the
	// controller then owns and closes.
	Tree Introspector

	// Interfaces overrides OS interface listing for tests.
	Interfaces seriallink.InterfaceLister

	// Guard serializes construction. Nil means the process-wide guard.
	Guard *Guard

	Logger Logger
}

// Controller owns an MCTP bus end to end: the EID pool, the serial links,
// the daemon lifecycle, and the discovery connection.
type Controller struct {
	mu          sync.Mutex
	state       State
	eidRange    mctpd.EidRange
	pool        *eidpool.Pool
	registry    *seriallink.Registry
	links       []*seriallink.Link
	service     *mctpd.Service
	tree        Introspector
	ownsTree    bool
	daemonOwned bool
	guard       *Guard
	discov      DiscoveryConfig
	logger      Logger
	closed      bool
}

// New builds a ready controller or fails with everything undone.
//
// The sequence is: read the EID range, resolve device patterns, provision
// one serial link per device, restart mctpd, and wait for the endpoint
// count to stabilize. Capacity is checked before any link is bound or the
// daemon touched, so configuration errors leave the system as found.
func New(ctx context.Context, opts Options) (*Controller, error) {
	guard := opts.Guard
	if guard == nil {
		guard = processGuard
	}
	if err := guard.acquire(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	discov := opts.Discovery
	if discov.PollInterval <= 0 {
		discov.PollInterval = time.Second
	}
	if discov.StabilizeTimeout <= 0 {
		discov.StabilizeTimeout = 30 * time.Second
	}
	service := opts.Service
	if service == nil {
		service = mctpd.NewService(mctpd.ServiceConfig{})
	}

	c := &Controller{
		state:    StateConfiguringRange,
		pool:     eidpool.New(),
		registry: seriallink.NewRegistry(),
		service:  service,
		guard:    guard,
		discov:   discov,
		logger:   logger,
	}

	fail := func(err error) (*Controller, error) {
		c.setState(StateFailed)
		c.teardown(ctx)
		guard.release()
		return nil, err
	}

	eidRange, err := mctpd.ParseEidRange(opts.ConfPath)
	if err != nil {
		return fail(err)
	}
	c.eidRange = eidRange
	logger.Info("dynamic EID range configured", "range", eidRange.String())

	devices, err := resolveDevices(opts.Patterns)
	if err != nil {
		return fail(err)
	}
	if len(devices) == 0 {
		return fail(fmt.Errorf("%w: patterns %v", ErrNoDevices, opts.Patterns))
	}
	if len(devices) > eidRange.Size() {
		return fail(fmt.Errorf("%w: %d devices, range %s holds %d",
			ErrInsufficientEids, len(devices), eidRange, eidRange.Size()))
	}

	c.setState(StateProvisioningLinks)
	candidates := eidRange.Candidates()
	for _, device := range devices {
		link, err := seriallink.Open(ctx, device, candidates, seriallink.Options{
			Config:     opts.Link,
			Pool:       c.pool,
			Registry:   c.registry,
			Logger:     logger,
			Interfaces: opts.Interfaces,
		})
		if err != nil {
			return fail(fmt.Errorf("provisioning %s: %w", device, err))
		}
		c.links = append(c.links, link)
	}

	c.setState(StateRestartingDaemon)
	c.daemonOwned = true
	if err := c.service.Restart(ctx); err != nil {
		return fail(fmt.Errorf("restarting daemon: %w", err))
	}

	c.setState(StateAwaitingStabilization)
	tree := opts.Tree
	if tree == nil {
		sys, err := ConnectSystemBus()
		if err != nil {
			return fail(err)
		}
		tree = sys
		c.ownsTree = true
	}
	c.tree = tree

	if err := c.awaitStabilization(ctx); err != nil {
		return fail(err)
	}

	c.setState(StateReady)
	logger.Info("bus controller ready",
		"links", len(c.links), "range", eidRange.String())
	return c, nil
}

// resolveDevices expands the patterns into a deduplicated, sorted list of
// device paths. A path matched by several patterns gets one link.
func resolveDevices(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("device pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}
	devices := make([]string, 0, len(seen))
	for d := range seen {
		devices = append(devices, d)
	}
	sort.Strings(devices)
	return devices, nil
}

// awaitStabilization polls the endpoint count until two consecutive walks
// agree. A stable count of zero is valid: an empty bus that stays empty is
// stable, not broken.
func (c *Controller) awaitStabilization(ctx context.Context) error {
	deadline := time.Now().Add(c.discov.StabilizeTimeout)
	prev := -1
	for {
		endpoints, err := Walk(ctx, c.tree, mctpd.BusRoot, c.logger)
		if err != nil {
			return err
		}
		count := len(endpoints)
		c.logger.Debug("stabilization poll", "endpoints", count, "previous", prev)
		if count == prev {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: count still %d after %v",
				ErrStabilizationTimeout, count, c.discov.StabilizeTimeout)
		}
		prev = count

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.discov.PollInterval):
		}
	}
}

// DiscoverEndpoints walks the daemon's object tree and returns every
// endpoint, correlated with local serial links by EID. Each call is a
// fresh walk; nothing is cached.
func (c *Controller) DiscoverEndpoints(ctx context.Context) ([]Endpoint, error) {
	c.mu.Lock()
	state := c.state
	tree := c.tree
	c.mu.Unlock()
	if state != StateReady {
		return nil, fmt.Errorf("%w: state %s", ErrNotReady, state)
	}

	endpoints, err := Walk(ctx, tree, mctpd.BusRoot, c.logger)
	if err != nil {
		return nil, err
	}
	for i := range endpoints {
		if link := c.registry.ByEID(endpoints[i].EID); link != nil {
			endpoints[i].Interface = link.Interface()
			endpoints[i].DevicePath = link.DevicePath()
		}
	}
	return endpoints, nil
}

// Links returns a snapshot of the provisioned serial links.
func (c *Controller) Links() []LinkInfo {
	links := c.registry.All()
	infos := make([]LinkInfo, 0, len(links))
	for _, l := range links {
		infos = append(infos, LinkInfo{
			DevicePath: l.DevicePath(),
			Interface:  l.Interface(),
			EID:        l.EID(),
		})
	}
	return infos
}

// State returns the controller's current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EidRange returns the dynamic EID range read at construction.
func (c *Controller) EidRange() mctpd.EidRange {
	return c.eidRange
}

// Daemon returns the managed mctpd service handle.
func (c *Controller) Daemon() *mctpd.Service {
	return c.service
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("controller state", "state", string(s))
}

// teardown closes links and stops the daemon. Per-step failures are
// logged, not returned: teardown runs on paths that already have an error
// to report.
func (c *Controller) teardown(ctx context.Context) {
	for _, link := range c.links {
		if err := link.Close(); err != nil {
			c.logger.Warn("closing link", "device", link.DevicePath(), "error", err)
		}
	}
	c.links = nil

	if c.daemonOwned {
		if err := c.service.Stop(ctx); err != nil {
			c.logger.Warn("stopping daemon", "error", err)
		}
	}

	if c.ownsTree {
		if closer, ok := c.tree.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				c.logger.Warn("closing bus connection", "error", err)
			}
		}
	}
	c.tree = nil
}

// Close releases everything the controller owns: serial links, their
// EIDs, the daemon, the bus connection, and the construction guard.
// Safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosed
	c.mu.Unlock()

	c.teardown(context.Background())
	c.guard.release()
	c.logger.Info("bus controller closed")
	return nil
}
