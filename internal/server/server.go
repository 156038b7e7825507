package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecom-dashboard/internal/config"
	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/export"
	"ecom-dashboard/internal/handlers"
	"ecom-dashboard/internal/middleware"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/templates"
)

type Server struct {
	analytics      *services.Analytics
	router         chi.Router
	logger         *slog.Logger
	metrics        *observability.Metrics
	pageHandlers   *handlers.PageHandlers
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
}

// NewServer builds the router. metrics may be nil, in which case /metrics is not
// mounted and requests are not counted.
func NewServer(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics, security config.SecurityConfig) *Server {
	s := &Server{
		analytics:      analytics,
		router:         chi.NewRouter(),
		logger:         logger,
		metrics:        metrics,
		pageHandlers:   handlers.NewPageHandlers(analytics, logger),
		apiHandlers:    handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:    handlers.NewSSEHandlers(analytics, logger),
		exportHandlers: handlers.NewExportHandlers(analytics, logger, metrics),
	}
	s.setupMiddleware(security)
	s.setupRoutes()
	return s
}

// Route-aware middleware runs inside the router so the matched pattern is
// visible once the handler returns.
func (s *Server) setupMiddleware(security config.SecurityConfig) {
	s.router.Use(middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
		middleware.Tracing(),
		middleware.Metrics(s.metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(security),
		middleware.TrustedProxy(security),
		middleware.RateLimit(middleware.NewRateLimiter(security), s.logger),
	))

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("No route for "+r.URL.Path))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.New(errors.CodeMethodNotAllowed, "Method "+r.Method+" is not allowed"))
	})
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.router.Get("/", s.pageHandlers.HandleDashboard)
	s.router.Get("/health", s.apiHandlers.HandleHealth)
	s.router.Get("/admin/stats", s.apiHandlers.HandleStats)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// REST API endpoints
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/kpis", s.apiHandlers.HandleKPIs)
		r.Get("/filters", s.apiHandlers.HandleFilterOptions)
		r.Get("/summary", s.apiHandlers.HandleSummary)
		r.Get("/by-country", s.apiHandlers.HandleByCountry)
		r.Get("/top-products", s.apiHandlers.HandleTopProducts)
		r.Get("/daily", s.apiHandlers.HandleDaily)
		r.Get("/correlation", s.apiHandlers.HandleCorrelation)
	})

	// Datastar SSE endpoint
	s.router.Get(templates.StreamPath, s.sseHandlers.HandleDashboard)

	// Downloads
	s.router.Get("/download/"+export.FormatCSV.Filename(), s.exportHandlers.HandleDownload(export.FormatCSV))
	s.router.Get("/download/"+export.FormatXLSX.Filename(), s.exportHandlers.HandleDownload(export.FormatXLSX))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
