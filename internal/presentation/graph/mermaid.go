package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
)

// GraphOverlay contains a resolved plan to highlight on the graph.
type GraphOverlay struct {
	Visited []domain.StepKey
	Current domain.StepKey
}

// OverlayFromPlan marks every hop of plan as visited and its terminal hop as current.
func OverlayFromPlan(plan *domain.Plan) *GraphOverlay {
	if plan.Len() == 0 {
		return nil
	}
	o := &GraphOverlay{}
	for _, h := range plan.Hops {
		o.Visited = append(o.Visited, h.Definition.Key())
	}
	last, _ := plan.Terminal()
	o.Current = last.Definition.Key()
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the registry, one node per registered
// destination. It applies semantic styling:
// - Root step: ([Stadium])
// - Custom prerequisite: [[Subroutine]]
// - Default: [Rectangle]
// Sibling edges are solid, attribute and object edges are dotted and labelled.
func GenerateMermaid(reg *registry.Registry, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	byName := make(map[string][]domain.StepKey)
	reg.Each(func(d domain.StepDefinition) {
		byName[d.Name] = append(byName[d.Name], d.Key())
	})

	placeholders := make(map[string]bool)
	reg.Each(func(d domain.StepDefinition) {
		key := d.Key()
		safeID := sanitizeMermaidID(key.String())

		opener, closer := "[", "]"
		switch d.Prerequisite.KindOf() {
		case domain.PrereqRoot:
			opener, closer = "([", "])"
		case domain.PrereqCustom:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, key, closer)

		p := d.Prerequisite
		switch p.KindOf() {
		case domain.PrereqSibling:
			from := domain.StepKey{Type: key.Type, Name: p.Target}
			if def, ok := reg.Find(key.Type, p.Target); ok {
				from = def.Key()
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(from.String()), safeID)
		case domain.PrereqAttribute:
			from := attributeSource(byName[p.Target], p.Target)
			if strings.HasPrefix(from, "any_") && !placeholders[from] {
				placeholders[from] = true
				fmt.Fprintf(&sb, "    %s{{\"*/%s\"}}\n", from, p.Target)
			}
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", from, escapeLabel(p.Path), safeID)
		case domain.PrereqObject:
			from := domain.StepKey{Name: p.Target}
			if p.Object != nil {
				from.Type = p.Object.EntityType()
				if def, ok := reg.Find(p.Object, p.Target); ok {
					from = def.Key()
				}
			}
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", sanitizeMermaidID(from.String()),
				escapeLabel(domain.Describe(p.Object)), safeID)
		}
	})

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, k := range overlay.Visited {
			safeID := sanitizeMermaidID(k.String())
			if !seen[safeID] && k != overlay.Current {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.Current != (domain.StepKey{}) {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current.String()))
		}
	}

	return sb.String()
}

// attributeSource picks the node an attribute edge starts from. The type reached by an
// attribute path is only known at run time, so a destination registered on more than
// one type gets a shared placeholder.
func attributeSource(keys []domain.StepKey, name string) string {
	if len(keys) == 1 {
		return sanitizeMermaidID(keys[0].String())
	}
	return "any_" + sanitizeMermaidID(name)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "(", "_", ")", "_")
	return r.Replace(id)
}
