package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/navgraph/internal/presentation/graph"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
)

type server struct{}

func (server) EntityType() domain.TypeName { return "Server" }
func (server) EntityID() string            { return "main" }

func noop(context.Context, *domain.HopContext) error { return nil }

func def(prereq *domain.Prerequisite) domain.StepDefinition {
	return domain.StepDefinition{Prerequisite: prereq, Step: noop}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		build    func(reg *registry.Registry)
		contains []string
		missing  []string
	}{
		{
			name: "Root Step Shape",
			build: func(reg *registry.Registry) {
				reg.Register("Server", "LoggedIn", def(domain.Root()))
			},
			contains: []string{`Server_LoggedIn(["Server/LoggedIn"])`},
		},
		{
			name: "Custom Step Shape",
			build: func(reg *registry.Registry) {
				reg.Register("Group", "Details", def(domain.Custom(func(context.Context, *domain.HopContext) (*domain.Arrival, error) {
					return nil, nil
				})))
			},
			contains: []string{`Group_Details[["Group/Details"]]`},
		},
		{
			name: "Sibling Edge Follows Inheritance",
			build: func(reg *registry.Registry) {
				reg.DeclareType("InfraVm", "Vm")
				reg.Register("Vm", "Details", def(domain.Root()))
				reg.Register("InfraVm", "Edit", def(domain.Sibling("Details")))
			},
			contains: []string{
				`InfraVm_Edit["InfraVm/Edit"]`,
				"Vm_Details --> InfraVm_Edit",
			},
		},
		{
			name: "Attribute Edge With Unique Destination",
			build: func(reg *registry.Registry) {
				reg.Register("Provider", "Details", def(domain.Root()))
				reg.Register("Vm", "All", def(domain.Attribute("parent", "Details")))
			},
			contains: []string{`Provider_Details -. "parent" .-> Vm_All`},
		},
		{
			name: "Attribute Edge With Shared Destination",
			build: func(reg *registry.Registry) {
				reg.Register("Provider", "All", def(domain.Root()))
				reg.Register("Host", "All", def(domain.Root()))
				reg.Register("Vm", "All", def(domain.Attribute("parent.parent", "All")))
			},
			contains: []string{
				`any_All{{"*/All"}}`,
				`any_All -. "parent.parent" .-> Vm_All`,
			},
		},
		{
			name: "Object Edge",
			build: func(reg *registry.Registry) {
				reg.Register("Server", "LoggedIn", def(domain.Root()))
				reg.Register("Provider", "All", def(domain.Object(server{}, "LoggedIn")))
			},
			contains: []string{`Server_LoggedIn -. "Server(main)" .-> Provider_All`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			tt.build(reg)

			got := graph.GenerateMermaid(reg, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "Overlay Styles")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	reg := registry.New()
	reg.Register("Provider", "All", def(domain.Root()))
	reg.Register("Provider", "Details", def(domain.Sibling("All")))

	all, _ := reg.Find(domain.TypeName("Provider"), "All")
	details, _ := reg.Find(domain.TypeName("Provider"), "Details")
	plan := &domain.Plan{Hops: []domain.Hop{{Definition: all}, {Definition: details}}}

	got := graph.GenerateMermaid(reg, graph.OverlayFromPlan(plan))

	assert.Contains(t, got, "classDef visited")
	assert.Contains(t, got, "class Provider_All visited;")
	assert.Contains(t, got, "class Provider_Details current;")
	assert.NotContains(t, got, "class Provider_Details visited;")
}

func TestOverlayFromPlan_Empty(t *testing.T) {
	assert.Nil(t, graph.OverlayFromPlan(nil))
	assert.Nil(t, graph.OverlayFromPlan(&domain.Plan{}))
}
