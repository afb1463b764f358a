// Package httpserver provides the HTTP JSON-RPC server for the arXiv search
// service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/observability"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/search"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/store"
)

// Server identity reported by the health endpoint.
const (
	serverName    = "render-mcp-arxiv"
	serverVersion = "1.0.0"
	protocolName  = "mcp-streamable-1.0"
)

// Server is the HTTP JSON-RPC server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	service    *search.Service
	store      *store.Store
	logger     zerolog.Logger
	metrics    *observability.Metrics
	validate   *validator.Validate
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies. metrics may be
// nil to disable metric recording.
func NewServer(
	cfg Config,
	service *search.Service,
	st *store.Store,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		service:  service,
		store:    st,
		logger:   logger.With().Str("component", "http-server").Logger(),
		metrics:  metrics,
		validate: validator.New(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Liveness endpoint
	r.Get("/healthz", s.healthzHandler)

	// MCP endpoints: the GET is a static health payload required by clients
	// that check the endpoint, the POST is the JSON-RPC route.
	r.Get("/mcp", s.mcpHealthHandler)
	r.Post("/mcp", s.rpcHandler)

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthzHandler returns basic liveness status.
func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mcpHealthHandler returns the static status payload served on GET /mcp.
func (s *Server) mcpHealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"protocol": protocolName,
		"message":  "arXiv MCP server is running",
		"server":   serverName,
		"version":  serverVersion,
	})
}

// writeJSON writes a JSON response with the given status code. Encode failures
// cannot be surfaced to the client once headers are sent, so they are logged
// at debug only.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("failed to encode response body")
	}
}
