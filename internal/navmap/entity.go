package navmap

import "github.com/aretw0/navgraph/pkg/domain"

// Entity is a sample entity declared in a site map.
type Entity struct {
	spec EntitySpec
	site *Map
}

func (e *Entity) EntityType() domain.TypeName { return domain.TypeName(e.spec.Type) }
func (e *Entity) EntityID() string            { return e.spec.ID }

// Parent returns the declared parent, or nil for top-level entities.
func (e *Entity) Parent() domain.Entity {
	if p, ok := e.site.entities[e.spec.Parent]; ok {
		return p
	}
	return nil
}

// Attribute resolves a named reference to another declared entity.
func (e *Entity) Attribute(name string) (domain.Entity, bool) {
	id, ok := e.spec.Attributes[name]
	if !ok {
		return nil, false
	}
	ref, ok := e.site.entities[id]
	if !ok {
		return nil, false
	}
	return ref, true
}

func (e *Entity) String() string { return domain.Describe(e) }
