package registry_test

import (
	"errors"
	"testing"

	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vm struct{ name string }

func (v *vm) EntityType() domain.TypeName { return "InfraVm" }

func TestRegistry_ExactMatch(t *testing.T) {
	reg := registry.New()
	reg.Register("InfraVm", "Details", domain.StepDefinition{Prerequisite: domain.Sibling("All")})

	def, ok := reg.Find(&vm{name: "a"}, "Details")
	require.True(t, ok)
	assert.Equal(t, domain.TypeName("InfraVm"), def.EntityType)
	assert.Equal(t, "Details", def.Name)
	assert.Equal(t, domain.PrereqSibling, def.Prerequisite.KindOf())
}

func TestRegistry_AncestorFallback(t *testing.T) {
	reg := registry.New()
	reg.DeclareType("InfraVm", "Vm")
	reg.DeclareType("Vm", "BaseVm")
	reg.Register("BaseVm", "SetOwnership", domain.StepDefinition{})

	def, err := reg.Lookup(&vm{}, "SetOwnership")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeName("BaseVm"), def.EntityType)
	assert.True(t, reg.Has(&vm{}, "SetOwnership"))
}

func TestRegistry_NearestAncestorWins(t *testing.T) {
	reg := registry.New()
	reg.DeclareType("InfraVm", "Vm")
	reg.DeclareType("Vm", "BaseVm")
	reg.Register("BaseVm", "Details", domain.StepDefinition{Prerequisite: domain.Root()})
	reg.Register("Vm", "Details", domain.StepDefinition{Prerequisite: domain.Sibling("All")})

	def, ok := reg.Find(&vm{}, "Details")
	require.True(t, ok)
	assert.Equal(t, domain.TypeName("Vm"), def.EntityType)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	reg := registry.New()
	reg.Register("InfraVm", "Details", domain.StepDefinition{Prerequisite: domain.Sibling("All")})
	reg.Register("InfraVm", "Details", domain.StepDefinition{Prerequisite: domain.Sibling("Archived")})

	def, ok := reg.Find(&vm{}, "Details")
	require.True(t, ok)
	assert.Equal(t, "Archived", def.Prerequisite.Target)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{"Details"}, reg.Destinations("InfraVm"))
}

func TestRegistry_NotFound(t *testing.T) {
	reg := registry.New()
	reg.DeclareType("InfraVm", "Vm")
	reg.Register("Vm", "Details", domain.StepDefinition{})

	_, err := reg.Lookup(&vm{}, "Nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDestinationNotFound))

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.TypeName("InfraVm"), nf.Type)
	assert.Equal(t, []domain.TypeName{"InfraVm", "Vm"}, nf.Lineage)
	assert.False(t, reg.Has(&vm{}, "Nonexistent"))
}

func TestRegistry_LookupByTypeName(t *testing.T) {
	reg := registry.New()
	reg.Register("Server", "LoggedIn", domain.StepDefinition{})

	assert.True(t, reg.Has(domain.TypeName("Server"), "LoggedIn"))
	assert.False(t, reg.Has(domain.TypeName("Server"), "LoginScreen"))
}

func TestRegistry_Lineage(t *testing.T) {
	tests := []struct {
		name  string
		bases map[domain.TypeName][]domain.TypeName
		of    domain.TypeName
		want  []domain.TypeName
	}{
		{
			name: "Undeclared Type",
			of:   "Lonely",
			want: []domain.TypeName{"Lonely"},
		},
		{
			name:  "Single Chain",
			bases: map[domain.TypeName][]domain.TypeName{"C": {"B"}, "B": {"A"}},
			of:    "C",
			want:  []domain.TypeName{"C", "B", "A"},
		},
		{
			name: "Diamond Puts Shared Base Last",
			bases: map[domain.TypeName][]domain.TypeName{
				"D": {"B", "C"},
				"B": {"A"},
				"C": {"A"},
			},
			of:   "D",
			want: []domain.TypeName{"D", "B", "C", "A"},
		},
		{
			name: "Monotonic Over Nested Diamonds",
			bases: map[domain.TypeName][]domain.TypeName{
				"F": {"O"},
				"E": {"O"},
				"D": {"O"},
				"C": {"D", "F"},
				"B": {"D", "E"},
				"A": {"B", "C"},
			},
			of:   "A",
			want: []domain.TypeName{"A", "B", "C", "D", "E", "F", "O"},
		},
		{
			name: "Inconsistent Order Falls Back Depth First",
			bases: map[domain.TypeName][]domain.TypeName{
				"X": {"A", "B"},
				"Y": {"B", "A"},
				"Z": {"X", "Y"},
			},
			of:   "Z",
			want: []domain.TypeName{"Z", "X", "A", "B", "Y"},
		},
		{
			name: "Malformed Self Reference",
			bases: map[domain.TypeName][]domain.TypeName{
				"A": {"B"},
				"B": {"A"},
			},
			of:   "A",
			want: []domain.TypeName{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			for typ, bases := range tt.bases {
				reg.DeclareType(typ, bases...)
			}
			assert.Equal(t, tt.want, reg.Lineage(tt.of))
		})
	}
}

func TestRegistry_FindFollowsLinearization(t *testing.T) {
	reg := registry.New()
	reg.DeclareType("F", "O")
	reg.DeclareType("E", "O")
	reg.DeclareType("D", "O")
	reg.DeclareType("C", "D", "F")
	reg.DeclareType("B", "D", "E")
	reg.DeclareType("A", "B", "C")
	reg.Register("D", "Details", domain.StepDefinition{})
	reg.Register("E", "Details", domain.StepDefinition{})

	def, ok := reg.Find(domain.TypeName("B"), "Details")
	require.True(t, ok)
	assert.Equal(t, domain.TypeName("D"), def.EntityType)

	def, ok = reg.Find(domain.TypeName("A"), "Details")
	require.True(t, ok)
	assert.Equal(t, domain.TypeName("D"), def.EntityType)
}

func TestRegistry_Linearize(t *testing.T) {
	reg := registry.New()
	reg.DeclareType("X", "A", "B")
	reg.DeclareType("Y", "B", "A")
	reg.DeclareType("Z", "X", "Y")
	reg.DeclareType("Loop", "Loop")

	order, err := reg.Linearize("X")
	require.NoError(t, err)
	assert.Equal(t, []domain.TypeName{"X", "A", "B"}, order)

	_, err = reg.Linearize("Z")
	assert.ErrorIs(t, err, registry.ErrInconsistentHierarchy)

	_, err = reg.Linearize("Loop")
	assert.ErrorIs(t, err, registry.ErrBaseCycle)
}

func TestRegistry_RegisterCopiesPrerequisite(t *testing.T) {
	reg := registry.New()
	p := domain.Sibling("All")
	reg.Register("InfraVm", "Details", domain.StepDefinition{Prerequisite: p})

	p.Kind = domain.PrereqRoot
	p.Target = "Archived"

	def, ok := reg.Find(&vm{}, "Details")
	require.True(t, ok)
	assert.Equal(t, domain.PrereqSibling, def.Prerequisite.KindOf())
	assert.Equal(t, "All", def.Prerequisite.Target)
}

func TestRegistry_FreezeIgnoresLateWrites(t *testing.T) {
	reg := registry.New()
	reg.Register("Server", "LoggedIn", domain.StepDefinition{})
	reg.Freeze()

	reg.Register("Server", "LoginScreen", domain.StepDefinition{})
	reg.DeclareType("Server", "Appliance")

	assert.True(t, reg.Frozen())
	assert.Equal(t, 1, reg.Len())
	assert.Empty(t, reg.Bases("Server"))
}

func TestRegistry_EachKeepsRegistrationOrder(t *testing.T) {
	reg := registry.New()
	reg.Register("Provider", "All", domain.StepDefinition{})
	reg.Register("Provider", "Details", domain.StepDefinition{})
	reg.Register("Server", "LoggedIn", domain.StepDefinition{})

	var keys []string
	reg.Each(func(d domain.StepDefinition) {
		keys = append(keys, d.Key().String())
	})
	assert.Equal(t, []string{"Provider/All", "Provider/Details", "Server/LoggedIn"}, keys)
	assert.Equal(t, []domain.TypeName{"Provider", "Server"}, reg.Types())
}
