package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/pkg/domain"
)

// maxBodyBytes caps request bodies. Flows are small documents.
const maxBodyBytes = 1 << 20

// Engine is the subset of ruleflow.Engine served over HTTP.
type Engine interface {
	Evaluate(cond domain.Condition, fact domain.Fact) bool
	Route(ctx context.Context, flow *domain.Flow, fact domain.Fact) domain.RouteResult
	Preflight(ctx context.Context, flow *domain.Flow) domain.Report
	Simulate(ctx context.Context, flow *domain.Flow, fact domain.Fact) (*domain.Simulation, error)
	SimulateStored(ctx context.Context, flowID string, fact domain.Fact) (*domain.Simulation, error)
	SaveFlow(ctx context.Context, flow *domain.Flow) error
	LoadFlow(ctx context.Context, flowID string) (*domain.Flow, error)
	DeleteFlow(ctx context.Context, flowID string) error
	ListFlows(ctx context.Context) ([]string, error)
}

var _ Engine = (*ruleflow.Engine)(nil)

// Server binds an Engine to HTTP handlers.
type Server struct {
	Engine   Engine
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithGatherer selects the registry exposed on /metrics
// (default: prometheus.DefaultGatherer).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.Logger == nil {
		server.Logger = slog.Default()
	}
	if server.Gatherer == nil {
		server.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(server.logRequests)
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSwagger())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/evaluate", server.Evaluate)
	r.Post("/route", server.Route)
	r.Post("/preflight", server.Preflight)
	r.Post("/simulate", server.Simulate)

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", server.ListFlows)
		r.Get("/{id}", server.GetFlow)
		r.Put("/{id}", server.PutFlow)
		r.Delete("/{id}", server.DeleteFlow)
		r.Post("/{id}/simulate", server.SimulateStored)
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Ruleflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Condition domain.Condition `json:"condition"`
	Fact      domain.Fact      `json:"fact"`
}

// EvaluateResponse is returned by POST /evaluate.
type EvaluateResponse struct {
	Matched bool `json:"matched"`
}

// RouteRequest is the body of POST /route.
type RouteRequest struct {
	Branches    []domain.Branch `json:"branches"`
	ElseActions []domain.Action `json:"else_actions"`
	Fact        domain.Fact     `json:"fact"`
}

// SimulateRequest is the body of POST /simulate and POST /flows/{id}/simulate.
// Flow is ignored by the stored variant.
type SimulateRequest struct {
	Flow *domain.Flow `json:"flow,omitempty"`
	Fact domain.Fact  `json:"fact,omitempty"`
}

// Evaluate handles the POST /evaluate request.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	if err := body.Fact.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, EvaluateResponse{Matched: s.Engine.Evaluate(body.Condition, body.Fact)})
}

// Route handles the POST /route request.
func (s *Server) Route(w http.ResponseWriter, r *http.Request) {
	var body RouteRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	if err := body.Fact.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	flow := &domain.Flow{Branches: body.Branches, ElseActions: body.ElseActions}
	s.respond(w, http.StatusOK, s.Engine.Route(r.Context(), flow, body.Fact))
}

// Preflight handles the POST /preflight request.
func (s *Server) Preflight(w http.ResponseWriter, r *http.Request) {
	var flow domain.Flow
	if !s.decode(w, r, &flow, false) {
		return
	}
	s.respond(w, http.StatusOK, s.Engine.Preflight(r.Context(), &flow))
}

// Simulate handles the POST /simulate request.
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	var body SimulateRequest
	if !s.decode(w, r, &body, false) {
		return
	}
	if body.Flow == nil {
		s.writeError(w, http.StatusBadRequest, "flow is required")
		return
	}
	sim, err := s.Engine.Simulate(r.Context(), body.Flow, body.Fact)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, sim)
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.ListFlows(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string][]string{"flows": ids})
}

// GetFlow handles the GET /flows/{id} request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.Engine.LoadFlow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, flow)
}

// PutFlow handles the PUT /flows/{id} request. The body's id, when set,
// must match the path.
func (s *Server) PutFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var flow domain.Flow
	if !s.decode(w, r, &flow, false) {
		return
	}
	if flow.ID == "" {
		flow.ID = id
	}
	if flow.ID != id {
		s.fail(w, r, fmt.Errorf("%w: body id %q does not match path id %q", domain.ErrInvalidFlowID, flow.ID, id))
		return
	}
	if err := flow.SampleFact.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Engine.SaveFlow(r.Context(), &flow); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, &flow)
}

// DeleteFlow handles the DELETE /flows/{id} request.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteFlow(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SimulateStored handles the POST /flows/{id}/simulate request.
// An empty body simulates the flow's sample fact.
func (s *Server) SimulateStored(w http.ResponseWriter, r *http.Request) {
	var body SimulateRequest
	if !s.decode(w, r, &body, true) {
		return
	}
	sim, err := s.Engine.SimulateStored(r.Context(), chi.URLParam(r, "id"), body.Fact)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, sim)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.respond(w, http.StatusOK, map[string]string{
		"app":         "ruleflow-http",
		"version":     ruleflow.Version,
		"api_version": apiVersion,
	})
}

// -- Helpers --

// decode reads a JSON body, keeping numbers as json.Number so facts keep
// their exact decimal form.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	err := dec.Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	s.Logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
	s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
	return false
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, map[string]string{"error": msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.writeError(w, status, err.Error())
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFlowID), errors.Is(err, domain.ErrInvalidFactSchema):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFactNotFlat), errors.Is(err, domain.ErrFactMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
