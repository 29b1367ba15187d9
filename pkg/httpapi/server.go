// Package httpapi exposes a burger.Repository over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	_ "burgerapi/docs"
	"burgerapi/pkg/burger"
	"burgerapi/pkg/logger"
)

// Options tunes the infrastructure around the burger routes.
type Options struct {
	CORSOrigins    []string
	MetricsEnabled bool
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable it only behind a reverse proxy that overwrites those headers.
	TrustProxy bool
	// Tracer is injected into every request context; nil disables spans.
	Tracer trace.Tracer
}

// Server routes HTTP requests to the repository.
type Server struct {
	repo    burger.Repository
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *metrics
	router  *mux.Router
	handler http.Handler
}

// New builds a Server with its routes and middleware.
func New(repo burger.Repository, log *logger.Logger, opts Options) *Server {
	s := &Server{
		repo:    repo,
		log:     log,
		tracer:  opts.Tracer,
		metrics: newMetrics(),
		router:  mux.NewRouter(),
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("burgers")
	}

	r := s.router
	r.NotFoundHandler = http.HandlerFunc(s.routeNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.ready).Methods(http.MethodGet)
	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := r.PathPrefix("/api/burgers").Subrouter()
	api.HandleFunc("", s.listBurgersHandler).Methods(http.MethodGet)
	api.HandleFunc("", s.createBurgerHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.getBurgerHandler).Methods(http.MethodGet).Name(routeGetBurger)
	api.HandleFunc("/{id}", s.updateBurgerHandler).Methods(http.MethodPut)
	api.HandleFunc("/{id}", s.deleteBurgerHandler).Methods(http.MethodDelete)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// The chain wraps the router so unmatched requests are observed too.
	var chain chi.Middlewares
	if opts.TrustProxy {
		chain = append(chain, chimiddleware.RealIP)
	}
	chain = append(chain, requestID, s.traceMiddleware, s.observe, chimiddleware.Recoverer)

	s.handler = cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-Match", headerRequestID},
		ExposedHeaders: []string{"Location", "ETag", headerRequestID},
		MaxAge:         300,
	})(chain.Handler(r))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// health reports that the process is serving.
// @Summary Liveness probe
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready reports whether the backing store is reachable.
// @Summary Readiness probe
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorResponse
// @Router /ready [get]
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if p, ok := s.repo.(burger.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			s.log.Warn(ctx, "store not ready", "error", err)
			s.writeError(ctx, w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) routeNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(r.Context(), w, http.StatusNotFound, "no route for "+r.URL.Path)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(r.Context(), w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
}
