package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mrtommyb/K2fov/internal/auth"
	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/finder"
	"github.com/mrtommyb/K2fov/internal/fovcache"
	"github.com/mrtommyb/K2fov/internal/health"
	"github.com/mrtommyb/K2fov/internal/httputil"
	"github.com/mrtommyb/K2fov/internal/metrics"
	"github.com/mrtommyb/K2fov/internal/region"
)

// Deps are the components the handlers query.
type Deps struct {
	Store      *campaign.Store
	FOVs       *fovcache.Cache
	Finder     *finder.Finder
	Pool       *catalog.WorkerPool
	Mask       *region.Mask
	Options    catalog.Options
	MaxTargets int
	TrustProxy bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(logger, authCfg, deps),
			ReadTimeout:       30 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed handler with its middleware chain:
// metrics -> logging -> auth -> mux.
func NewHandler(logger *slog.Logger, authCfg auth.Config, deps Deps) http.Handler {
	h := &handlers{deps: deps, logger: logger}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(h.tableReady, h.fovReady))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/campaigns", h.listCampaigns)
	mux.HandleFunc("GET /api/v1/campaigns/{id}", h.getCampaign)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/onsilicon", h.onSilicon)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/pixel", h.pixel)
	mux.HandleFunc("GET /api/v1/campaigns/{id}/sky", h.sky)
	mux.HandleFunc("POST /api/v1/campaigns/{id}/classify", h.classify)
	mux.HandleFunc("GET /api/v1/findcampaigns", h.findCampaigns)
	mux.HandleFunc("GET /api/v1/microlens", h.microlens)

	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, deps.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
