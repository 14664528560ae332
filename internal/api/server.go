package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/arbiternet/arbiter/internal/conn"
	"github.com/arbiternet/arbiter/internal/model"
)

// Server wraps the HTTP server and mux for the arbiter diagnostics API.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
}

// ServerConfig carries everything the route table needs.
type ServerConfig struct {
	ListenAddress   string
	Port            int
	AdminToken      string
	APIMaxBodyBytes int64
	Service         *conn.Service
	Detection       model.DetectionConfig
	StartedAt       time.Time
}

// NewServer creates a new API server wired with all routes.
func NewServer(cfg ServerConfig) *Server {
	mux := http.NewServeMux()

	// Public (no auth)
	mux.Handle("GET /healthz", HandleHealthz())

	// Authenticated routes
	authed := http.NewServeMux()
	authed.Handle("GET /api/v1/system/info", HandleSystemInfo(cfg.Service, cfg.StartedAt, cfg.Detection))

	authed.Handle("GET /api/v1/suppliers", HandleListSuppliers(cfg.Service))
	authed.Handle("GET /api/v1/requests", HandleListRequests(cfg.Service))
	authed.Handle("GET /api/v1/networks", HandleListNetworks(cfg.Service))
	authed.Handle("GET /api/v1/networks/default", HandleDefaultNetwork(cfg.Service))
	authed.Handle("POST /api/v1/networks/{net_id}/actions/detect", HandleTriggerDetection(cfg.Service))

	authed.Handle("GET /api/v1/settings", HandleGetSettings(cfg.Service))
	authed.Handle("PUT /api/v1/settings/airplane-mode", HandlePutAirplaneMode(cfg.Service))
	authed.Handle("PUT /api/v1/settings/proxy", HandlePutProxy(cfg.Service))
	authed.Handle("PUT /api/v1/settings/pac-url", HandlePutPACURL(cfg.Service))
	authed.Handle("PUT /api/v1/settings/restrict-background", HandlePutRestrictBackground(cfg.Service))
	authed.Handle("POST /api/v1/settings/actions/factory-reset", HandleFactoryReset(cfg.Service))

	met := cfg.Service.Metrics()
	authed.Handle("GET /api/v1/metrics/global", HandleMetricsGlobal(met))
	authed.Handle("GET /api/v1/metrics/bearers", HandleMetricsBearers(met))
	authed.Handle("GET /api/v1/metrics/default-switches", HandleMetricsDefaultSwitches(met))

	limitedAuthed := RequestBodyLimitMiddleware(cfg.APIMaxBodyBytes, authed)
	mux.Handle("/api/", AuthMiddleware(cfg.AdminToken, limitedAuthed))

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.ListenAddress, strconv.Itoa(cfg.Port)),
		Handler: mux,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}
