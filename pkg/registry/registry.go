package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/pkg/domain"
)

// Registry stores step definitions keyed by (entity type, destination) and resolves
// them through the declared type hierarchy.
// It is populated once at startup and read many times; reads are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	steps  map[domain.StepKey]domain.StepDefinition
	bases  map[domain.TypeName][]domain.TypeName
	order  []domain.StepKey
	frozen bool
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for late registrations and overrides.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a new empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		steps:  make(map[domain.StepKey]domain.StepDefinition),
		bases:  make(map[domain.TypeName][]domain.TypeName),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DeclareType records the bases of a type. Declaring a type again replaces its bases.
func (r *Registry) DeclareType(t domain.TypeName, bases ...domain.TypeName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		r.logger.Warn("type declared after registry was frozen; ignored", "type", t)
		return
	}
	r.bases[t] = append([]domain.TypeName(nil), bases...)
}

// Register adds a step definition for (entityType, name).
// If a definition with the same key exists, it is overwritten.
// The prerequisite is copied; changing it afterwards does not affect the registry.
func (r *Registry) Register(entityType domain.TypeName, name string, def domain.StepDefinition) {
	def.EntityType = entityType
	def.Name = name
	if def.Prerequisite != nil {
		p := *def.Prerequisite
		def.Prerequisite = &p
	}
	key := def.Key()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		r.logger.Warn("step registered after registry was frozen; ignored", "step", key.String())
		return
	}
	if _, exists := r.steps[key]; exists {
		r.logger.Debug("step definition overridden", "step", key.String())
	} else {
		r.order = append(r.order, key)
	}
	if _, declared := r.bases[entityType]; !declared {
		r.bases[entityType] = nil
	}
	r.steps[key] = def
}

// Freeze marks population as complete. Later registrations are ignored.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lineage returns the ordered candidate types tried for a lookup on t: the C3
// linearization of t, so t comes first and every type precedes its bases.
// A cyclic or inconsistent hierarchy falls back to a depth-first order; see Linearize.
func (r *Registry) Lineage(t domain.TypeName) []domain.TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lineage(r.bases, t)
}

// Linearize is Lineage that fails instead of falling back when the hierarchy of t has a
// cycle (ErrBaseCycle) or no consistent order (ErrInconsistentHierarchy).
func (r *Registry) Linearize(t domain.TypeName) ([]domain.TypeName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return linearize(r.bases, t)
}

// Find returns the definition for (entity's type, name), falling back to ancestor types.
func (r *Registry) Find(e domain.Entity, name string) (domain.StepDefinition, bool) {
	if e == nil {
		return domain.StepDefinition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range lineage(r.bases, e.EntityType()) {
		if def, ok := r.steps[domain.StepKey{Type: t, Name: name}]; ok {
			return def, true
		}
	}
	return domain.StepDefinition{}, false
}

// Has reports whether Find would succeed.
func (r *Registry) Has(e domain.Entity, name string) bool {
	_, ok := r.Find(e, name)
	return ok
}

// Lookup is Find for callers that want an error.
// Returns a *domain.NotFoundError listing the lineage tried when nothing matches.
func (r *Registry) Lookup(e domain.Entity, name string) (domain.StepDefinition, error) {
	if def, ok := r.Find(e, name); ok {
		return def, nil
	}
	if e == nil {
		return domain.StepDefinition{}, &domain.NotFoundError{Destination: name, Reason: "nil entity"}
	}
	return domain.StepDefinition{}, &domain.NotFoundError{
		Type:        e.EntityType(),
		Destination: name,
		Lineage:     r.Lineage(e.EntityType()),
	}
}

// Types returns every declared or registered type, sorted.
func (r *Registry) Types() []domain.TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TypeName, 0, len(r.bases))
	for t := range r.bases {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bases returns the declared bases of t.
func (r *Registry) Bases(t domain.TypeName) []domain.TypeName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.TypeName(nil), r.bases[t]...)
}

// Destinations returns the destinations registered directly on t (not inherited),
// in registration order.
func (r *Registry) Destinations(t domain.TypeName) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, k := range r.order {
		if k.Type == t {
			out = append(out, k.Name)
		}
	}
	return out
}

// Each calls fn for every definition in registration order.
func (r *Registry) Each(fn func(domain.StepDefinition)) {
	r.mu.RLock()
	defs := make([]domain.StepDefinition, 0, len(r.order))
	for _, k := range r.order {
		defs = append(defs, r.steps[k])
	}
	r.mu.RUnlock()

	for _, d := range defs {
		fn(d)
	}
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}
