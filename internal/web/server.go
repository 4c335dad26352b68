package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/testhealth/internal/logging"
	"github.com/example/testhealth/internal/service"
)

// Server is the web HTTP server
type Server struct {
	addr     string
	handlers *Handlers
	mux      *http.ServeMux
	metrics  http.Handler
	logger   logrus.FieldLogger
	srv      *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the server logger.
func WithLogger(l logrus.FieldLogger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new web server
func NewServer(addr string, analysis *service.AnalysisService, opts ...ServerOption) *Server {
	s := &Server{
		addr: addr,
		mux:  http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "web")
	s.handlers = NewHandlers(analysis, s.logger)
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/analyze", s.corsMiddleware(s.allow(http.MethodPost, s.handlers.Analyze)))
	s.mux.HandleFunc("/api/reports", s.corsMiddleware(s.allow(http.MethodGet, s.handlers.ListReports)))
	// Trailing slash enables prefix matching for /api/reports/{id}
	s.mux.HandleFunc("/api/reports/", s.corsMiddleware(s.routeReports))
	s.mux.HandleFunc("/healthz", s.allow(http.MethodGet, s.handlers.Health))
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
}

// routeReports routes requests under /api/reports/ based on the path
func (s *Server) routeReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reports")
	if path == "" || path == "/" {
		// GET /api/reports/ - list reports
		s.handlers.ListReports(w, r)
		return
	}
	// GET /api/reports/:id - get a specific report
	s.handlers.GetReport(w, r)
}

func (s *Server) allow(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Start starts the HTTP server and blocks until it stops. It returns nil
// after Shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("starting web server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}
