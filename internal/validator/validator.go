package validator

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
)

// Validate statically checks every registration of reg: sibling and object prerequisites
// must name a destination that exists, sibling and object links must not form a cycle,
// and base types must be known to the registry and admit a consistent lineage.
// Links are followed per concrete type, so an inherited step whose sibling is
// overridden further down is checked against the override.
// Attribute prerequisites depend on the objects met at runtime and are not checked.
func Validate(reg *registry.Registry) error {
	var errs []string

	known := make(map[domain.TypeName]bool)
	for _, t := range reg.Types() {
		known[t] = true
	}
	for _, t := range reg.Types() {
		for _, b := range reg.Bases(t) {
			if !known[b] {
				errs = append(errs, fmt.Sprintf("Type '%s' derives from unknown type '%s'", t, b))
			}
		}
		if hasBaseCycle(reg, t) {
			errs = append(errs, fmt.Sprintf("Type '%s' derives from itself", t))
			continue
		}
		if _, err := reg.Linearize(t); errors.Is(err, registry.ErrInconsistentHierarchy) {
			errs = append(errs, fmt.Sprintf("Type '%s' has no consistent lineage: %v", t, err))
		}
	}

	// Every definition must point at a destination its own type can reach.
	reg.Each(func(def domain.StepDefinition) {
		key := def.Key()
		p := def.Prerequisite
		var from domain.Entity
		switch p.KindOf() {
		case domain.PrereqSibling:
			from = key.Type
		case domain.PrereqObject:
			if p.Object == nil {
				errs = append(errs, fmt.Sprintf("'%s' requires a nil object", key))
				return
			}
			from = p.Object
		default:
			return
		}
		if !reg.Has(from, p.Target) {
			errs = append(errs, fmt.Sprintf("'%s' requires missing destination '%s/%s'", key, from.EntityType(), p.Target))
		}
	})

	g := crawl(reg)
	reported := make(map[domain.StepKey]bool)
	seenCycles := make(map[string]bool)
	for _, start := range g.nodes {
		if reported[start] {
			continue
		}
		cycle := findCycle(g.edges, start)
		if cycle == nil {
			continue
		}
		for _, k := range cycle {
			reported[k] = true
		}

		names := make([]string, len(cycle))
		inherited := false
		for i, k := range cycle {
			def := g.defs[k]
			names[i] = def.String()
			inherited = inherited || def.Type != k.Type
		}
		canonical := slices.Clone(names)
		slices.Sort(canonical)
		id := strings.Join(canonical, ",")
		if seenCycles[id] {
			continue
		}
		seenCycles[id] = true

		msg := fmt.Sprintf("Prerequisite cycle: %s -> %s", strings.Join(names, " -> "), names[0])
		if inherited {
			msg += fmt.Sprintf(" (as resolved for type '%s')", cycle[0].Type)
		}
		errs = append(errs, msg)
	}

	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}

// linkGraph holds the static links (sibling, object) between destinations of concrete
// types. Each node is (concrete type, destination) and defs maps it to the definition
// that serves it after inheritance.
type linkGraph struct {
	nodes []domain.StepKey
	edges map[domain.StepKey]domain.StepKey
	defs  map[domain.StepKey]domain.StepKey
}

func crawl(reg *registry.Registry) linkGraph {
	g := linkGraph{
		edges: make(map[domain.StepKey]domain.StepKey),
		defs:  make(map[domain.StepKey]domain.StepKey),
	}

	// Bases first, so a cycle defined on a base is reported there.
	types := reg.Types()
	sort.SliceStable(types, func(i, j int) bool {
		return len(reg.Lineage(types[i])) < len(reg.Lineage(types[j]))
	})

	for _, t := range types {
		seen := make(map[string]bool)
		for _, lt := range reg.Lineage(t) {
			for _, name := range reg.Destinations(lt) {
				if seen[name] {
					continue
				}
				seen[name] = true

				def, ok := reg.Find(t, name)
				if !ok {
					continue
				}
				node := domain.StepKey{Type: t, Name: name}
				g.nodes = append(g.nodes, node)
				g.defs[node] = def.Key()

				p := def.Prerequisite
				var from domain.TypeName
				switch p.KindOf() {
				case domain.PrereqSibling:
					from = t
				case domain.PrereqObject:
					if p.Object == nil {
						continue
					}
					from = p.Object.EntityType()
				default:
					continue
				}
				target, ok := reg.Find(from, p.Target)
				if !ok {
					continue
				}
				to := domain.StepKey{Type: from, Name: p.Target}
				g.edges[node] = to
				if _, known := g.defs[to]; !known {
					g.defs[to] = target.Key()
				}
			}
		}
	}
	return g
}
// findCycle follows the single outgoing link of each key from start and returns the
// keys of the cycle it runs into, if start is part of it.
func findCycle(edges map[domain.StepKey]domain.StepKey, start domain.StepKey) []domain.StepKey {
	var path []domain.StepKey
	seen := make(map[domain.StepKey]bool)
	for cur, ok := start, true; ok; cur, ok = edges[cur] {
		if seen[cur] {
			if cur != start {
				return nil
			}
			return path
		}
		seen[cur] = true
		path = append(path, cur)
	}
	return nil
}

func hasBaseCycle(reg *registry.Registry, t domain.TypeName) bool {
	visited := make(map[domain.TypeName]bool)
	queue := append([]domain.TypeName(nil), reg.Bases(t)...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == t {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		queue = append(queue, reg.Bases(cur)...)
	}
	return false
}
