// Package resolver turns a (target entity, destination) request into an ordered plan by
// walking prerequisite links backwards through the registry.
// Resolution is pure: it never touches the live session.
package resolver

import (
	"fmt"

	"github.com/aretw0/navgraph/pkg/domain"
)

// Catalog is the read side of the registry used during resolution.
type Catalog interface {
	Find(e domain.Entity, name string) (domain.StepDefinition, bool)
	Lineage(t domain.TypeName) []domain.TypeName
}

// Resolver builds plans from a Catalog.
type Resolver struct {
	catalog Catalog
}

// New creates a resolver over catalog.
func New(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

type visitKey struct {
	entity any
	name   string
}

// walk holds the bookkeeping of one resolution.
type walk struct {
	catalog Catalog
	visited map[visitKey]bool
	trail   []string
}

// Resolve returns the plan reaching name on target, root first.
func (r *Resolver) Resolve(target domain.Entity, name string) (*domain.Plan, error) {
	w := &walk{
		catalog: r.catalog,
		visited: make(map[visitKey]bool),
	}
	hops, err := w.resolve(target, name)
	if err != nil {
		return nil, err
	}
	return &domain.Plan{Target: target, Destination: name, Hops: hops}, nil
}

func (w *walk) resolve(e domain.Entity, name string) ([]domain.Hop, error) {
	if e == nil {
		return nil, &domain.NotFoundError{Destination: name, Reason: "nil entity"}
	}

	key := visitKey{entity: domain.Identity(e), name: name}
	label := fmt.Sprintf("%s/%s", domain.Describe(e), name)
	w.trail = append(w.trail, label)
	if w.visited[key] {
		return nil, &domain.CycleError{Path: append([]string(nil), w.trail...)}
	}
	w.visited[key] = true

	def, ok := w.catalog.Find(e, name)
	if !ok {
		return nil, &domain.NotFoundError{
			Type:        e.EntityType(),
			Destination: name,
			Lineage:     w.catalog.Lineage(e.EntityType()),
		}
	}

	var chain []domain.Hop
	prereq := def.Prerequisite
	switch prereq.KindOf() {
	case domain.PrereqRoot, domain.PrereqCustom:
		// Chain ends here: the base state or the custom resolver provides the start.
	case domain.PrereqSibling:
		hops, err := w.resolve(e, prereq.Target)
		if err != nil {
			return nil, err
		}
		chain = hops
	case domain.PrereqAttribute:
		owner, err := Walk(e, prereq.Segments())
		if err != nil {
			return nil, &domain.NotFoundError{
				Type:        e.EntityType(),
				Destination: name,
				Reason:      err.Error(),
			}
		}
		hops, err := w.resolve(owner, prereq.Target)
		if err != nil {
			return nil, err
		}
		chain = hops
	case domain.PrereqObject:
		hops, err := w.resolve(prereq.Object, prereq.Target)
		if err != nil {
			return nil, err
		}
		chain = hops
	default:
		return nil, &domain.NotFoundError{
			Type:        e.EntityType(),
			Destination: name,
			Reason:      fmt.Sprintf("unknown prerequisite kind %q", prereq.Kind),
		}
	}

	return append(chain, domain.Hop{Entity: e, Definition: def}), nil
}
