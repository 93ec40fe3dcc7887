// Package api provides the HTTP status API for IoTorch.
//
// It exposes read-only views of the bus controller: its lifecycle state,
// the provisioned serial links, a fresh endpoint discovery, and the mctpd
// unit status. The server is optional; the CLI runs it only when asked.
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PICMG/IoTorch/internal/bus"
	"github.com/PICMG/IoTorch/internal/infrastructure/config"
	"github.com/PICMG/IoTorch/internal/infrastructure/logging"
	"github.com/PICMG/IoTorch/internal/mctpd"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BusController is the controller surface the API serves. It is an
// interface so handler tests run without hardware or a system bus.
type BusController interface {
	State() bus.State
	EidRange() mctpd.EidRange
	Links() []bus.LinkInfo
	DiscoverEndpoints(ctx context.Context) ([]bus.Endpoint, error)
	Daemon() *mctpd.Service
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Controller BusController
	Version    string
}

// Server is the HTTP status server.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	controller BusController
	version    string
	server     *http.Server
}

// New creates the API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("bus controller is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		controller: deps.Controller,
		version:    deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine. The server
// is stopped with Close.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
