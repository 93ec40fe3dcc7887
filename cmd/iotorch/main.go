// IoTorch - MCTP bus provisioning and endpoint discovery
//
// IoTorch turns a set of serial devices into a live MCTP bus: it binds
// each device into a network interface, assigns EIDs from the daemon's
// dynamic range, restarts mctpd for a clean enumeration, and reports the
// endpoints the daemon discovers.
//
// Usage:
//
//	iotorch [flags] <mctpd.conf> <device-glob> ...
//
// Example:
//
//	iotorch /etc/mctpd.conf '/dev/ttyUSB*' '/dev/ttyACM*'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PICMG/IoTorch/internal/api"
	"github.com/PICMG/IoTorch/internal/bus"
	"github.com/PICMG/IoTorch/internal/infrastructure/config"
	"github.com/PICMG/IoTorch/internal/infrastructure/logging"
	"github.com/PICMG/IoTorch/internal/mctpd"
	"github.com/PICMG/IoTorch/internal/seriallink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("iotorch", flag.ContinueOnError)
	configPath := fs.String("config", "", "tool configuration file (default: $IOTORCH_CONFIG if set, else built-in defaults)")
	serve := fs.Bool("serve", false, "keep running and serve the HTTP status API")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: iotorch [flags] <mctpd.conf> <device-glob> ...\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println("iotorch", version)
		return nil
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("expected <mctpd.conf> and at least one device glob")
	}
	confPath := fs.Arg(0)
	patterns := fs.Args()[1:]

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting IoTorch",
		"version", version,
		"mctpd_conf", confPath,
		"patterns", patterns,
	)

	service := mctpd.NewService(mctpd.ServiceConfig{
		UnitName:       cfg.Mctpd.UnitName,
		Systemctl:      cfg.Mctpd.Systemctl,
		CommandTimeout: cfg.Mctpd.CommandTimeout,
	})
	service.SetLogger(log)

	ctrl, err := bus.New(ctx, bus.Options{
		ConfPath: confPath,
		Patterns: patterns,
		Link: seriallink.Config{
			MctpBinary:      cfg.Links.MctpBinary,
			PollInterval:    cfg.Links.PollInterval,
			WaitTimeout:     cfg.Links.WaitTimeout,
			GracefulTimeout: cfg.Links.GracefulTimeout,
		},
		Discovery: bus.DiscoveryConfig{
			PollInterval:     cfg.Discovery.PollInterval,
			StabilizeTimeout: cfg.Discovery.StabilizeTimeout,
		},
		Service: service,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("bringing up bus: %w", err)
	}
	defer func() {
		if closeErr := ctrl.Close(); closeErr != nil {
			log.Error("error closing bus controller", "error", closeErr)
		}
	}()

	endpoints, err := ctrl.DiscoverEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("discovering endpoints: %w", err)
	}
	printEndpoints(endpoints)

	if !*serve && !cfg.API.Enabled {
		return nil
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Controller: ctrl,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("serving until interrupted")
	<-ctx.Done()
	return nil
}

// loadConfig resolves the tool configuration: the -config flag wins, then
// $IOTORCH_CONFIG, then built-in defaults.
func loadConfig(flagPath string) (*config.Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("IOTORCH_CONFIG")
	}
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

// printEndpoints renders each endpoint as a block of key: value lines,
// blocks separated by blank lines.
func printEndpoints(endpoints []bus.Endpoint) {
	fmt.Printf("discovered %d endpoint(s)\n", len(endpoints))
	for _, ep := range endpoints {
		fmt.Println()
		fmt.Printf("eid: %d\n", ep.EID)
		fmt.Printf("network_id: %d\n", ep.NetworkID)
		fmt.Printf("path: %s\n", ep.Path)
		if ep.Interface != "" {
			fmt.Printf("interface: %s\n", ep.Interface)
		}
		if ep.DevicePath != "" {
			fmt.Printf("device_path: %s\n", ep.DevicePath)
		}
	}
}
