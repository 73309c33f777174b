package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/internal/presentation/graph"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Inspector is the read-only view of a navigator served over HTTP.
// *navgraph.Navigator implements it.
type Inspector interface {
	Registry() *registry.Registry
	Plan(entity domain.Entity, destination string) (*domain.Plan, error)
}

// TargetFunc turns the "entity" query parameter into an entity.
type TargetFunc func(ref string) domain.Entity

// Server serves type listings, graphs and plans.
type Server struct {
	inspector Inspector
	target    TargetFunc
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer sets the registry exposed on /metrics. Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// TypeInfo is one entry of GET /types.
type TypeInfo struct {
	Name         string   `json:"name"`
	Bases        []string `json:"bases,omitempty"`
	Destinations []string `json:"destinations"`
}

// HopInfo is one entry of GET /plan.
type HopInfo struct {
	Entity       string `json:"entity"`
	Destination  string `json:"destination"`
	DefinedOn    string `json:"defined_on"`
	Prerequisite string `json:"prerequisite"`
}

// PlanResponse is the body of GET /plan.
type PlanResponse struct {
	Target      string    `json:"target"`
	Destination string    `json:"destination"`
	Hops        []HopInfo `json:"hops"`
}

// NewHandler creates the HTTP handler over insp.
func NewHandler(insp Inspector, target TargetFunc, opts ...Option) http.Handler {
	s := &Server{
		inspector: insp,
		target:    target,
		gatherer:  prometheus.DefaultGatherer,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.target == nil {
		s.target = func(ref string) domain.Entity { return domain.TypeName(ref) }
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/types", s.GetTypes)
	r.Get("/graph", s.GetGraph)
	r.Get("/plan", s.GetPlan)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTypes handles GET /types.
func (s *Server) GetTypes(w http.ResponseWriter, r *http.Request) {
	reg := s.inspector.Registry()
	out := []TypeInfo{}
	for _, t := range reg.Types() {
		info := TypeInfo{Name: string(t), Destinations: reg.Destinations(t)}
		if info.Destinations == nil {
			info.Destinations = []string{}
		}
		for _, b := range reg.Bases(t) {
			info.Bases = append(info.Bases, string(b))
		}
		out = append(out, info)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetGraph handles GET /graph. With entity and destination set, the resolved plan is
// highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if entity, dest := r.URL.Query().Get("entity"), r.URL.Query().Get("destination"); entity != "" && dest != "" {
		plan, err := s.inspector.Plan(s.target(entity), dest)
		if err != nil {
			s.planError(w, r, err)
			return
		}
		overlay = graph.OverlayFromPlan(plan)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.inspector.Registry(), overlay))
}

// GetPlan handles GET /plan?entity=&destination=.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	entity, dest := r.URL.Query().Get("entity"), r.URL.Query().Get("destination")
	if entity == "" || dest == "" {
		http.Error(w, "entity and destination are required", http.StatusBadRequest)
		return
	}

	target := s.target(entity)
	plan, err := s.inspector.Plan(target, dest)
	if err != nil {
		s.planError(w, r, err)
		return
	}

	resp := PlanResponse{Target: domain.Describe(target), Destination: dest, Hops: []HopInfo{}}
	for _, h := range plan.Hops {
		resp.Hops = append(resp.Hops, HopInfo{
			Entity:       domain.Describe(h.Entity),
			Destination:  h.Destination(),
			DefinedOn:    string(h.Definition.EntityType),
			Prerequisite: h.Definition.Prerequisite.String(),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) planError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDestinationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNavigationCycle):
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("plan request failed", "err", err, "status", status,
		"request_id", middleware.GetReqID(r.Context()))
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
