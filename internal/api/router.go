package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PICMG/IoTorch/internal/bus"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/endpoints", s.handleEndpoints)
		r.Get("/links", s.handleLinks)
		r.Get("/daemon", s.handleDaemon)
	})

	return r
}

// handleHealth returns the server health and controller state.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"state":     s.controller.State(),
		"eid_range": s.controller.EidRange().String(),
	})
}

// handleEndpoints runs a fresh discovery walk and returns every endpoint,
// correlated with local links where one owns the EID.
func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := s.controller.DiscoverEndpoints(r.Context())
	if err != nil {
		if errors.Is(err, bus.ErrNotReady) {
			writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, err.Error())
			return
		}
		s.logger.Error("endpoint discovery failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "endpoint discovery failed")
		return
	}
	if endpoints == nil {
		endpoints = []bus.Endpoint{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"endpoints": endpoints,
		"count":     len(endpoints),
	})
}

// handleLinks returns the provisioned serial links.
func (s *Server) handleLinks(w http.ResponseWriter, _ *http.Request) {
	links := s.controller.Links()
	writeJSON(w, http.StatusOK, map[string]any{
		"links": links,
		"count": len(links),
	})
}

// handleDaemon returns the mctpd unit name and whether it is active.
func (s *Server) handleDaemon(w http.ResponseWriter, r *http.Request) {
	daemon := s.controller.Daemon()
	writeJSON(w, http.StatusOK, map[string]any{
		"unit":   daemon.UnitName(),
		"active": daemon.IsActive(r.Context()),
	})
}
