package navgraph_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/navgraph"
	"github.com/aretw0/navgraph/internal/testutils"
	"github.com/aretw0/navgraph/pkg/adapters/memory"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
	"github.com/aretw0/navgraph/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// world is a small console: a provider collection, a provider and a host under it.
type world struct {
	console  *testutils.Console
	reg      *registry.Registry
	provider *testutils.Node
	host     *testutils.Node
}

func newWorld() *world {
	w := &world{console: testutils.NewConsole(), reg: registry.New()}
	w.provider = testutils.NewNode("InfraProvider", "p1", nil)
	w.host = testutils.NewNode("Host", "h1", w.provider)

	w.reg.DeclareType("InfraProvider", "BaseProvider")
	w.console.Define(w.reg, "BaseProvider", "All", domain.Root())
	w.console.Define(w.reg, "BaseProvider", "Details", domain.Sibling("All"))
	w.console.Define(w.reg, "Host", "Details", domain.Attribute("parent", "All"))
	w.console.Define(w.reg, "Host", "Edit", domain.Sibling("Details"))
	return w
}

func (w *world) navigator(t *testing.T, opts ...navgraph.Option) *navgraph.Navigator {
	t.Helper()
	base := []navgraph.Option{
		navgraph.WithRecoverer(w.console),
		navgraph.WithBaseState(w.console),
		navgraph.WithDefaults(domain.NavOptions{
			Timeout: 200 * time.Millisecond,
			Delay:   10 * time.Millisecond,
		}),
	}
	nav, err := navgraph.New(w.reg, append(base, opts...)...)
	require.NoError(t, err)
	return nav
}

func hops(p *domain.Plan) []string {
	out := make([]string, 0, p.Len())
	for _, h := range p.Hops {
		out = append(out, testutils.PageKey(h.Entity, h.Destination()))
	}
	return out
}

func TestNavigateTo_ResolvesParentListingFirst(t *testing.T) {
	w := newWorld()
	nav := w.navigator(t)

	plan, err := nav.Plan(w.host, "Details")
	require.NoError(t, err)
	assert.Equal(t, []string{"InfraProvider(p1)/All", "Host(h1)/Details"}, hops(plan))

	arrival, err := nav.NavigateTo(context.Background(), w.host, "Details")
	require.NoError(t, err)
	assert.Equal(t, "Host(h1)/Details", arrival.View)
	assert.Equal(t, "Host(h1)/Details", w.console.Current())
}

func TestNavigateTo_SkipsDisplayedPrerequisite(t *testing.T) {
	w := newWorld()
	w.console.Show(w.provider, "All")
	nav := w.navigator(t)

	_, err := nav.NavigateTo(context.Background(), w.host, "Details")
	require.NoError(t, err)
	assert.Equal(t, 0, w.console.Steps(w.provider, "All"))
	assert.Equal(t, 0, w.console.Resets(w.provider, "All"))
	assert.Equal(t, 1, w.console.Steps(w.host, "Details"))

	w.console.Show(w.provider, "All")
	_, err = nav.NavigateTo(context.Background(), w.host, "Details", navgraph.RunResetters(true))
	require.NoError(t, err)
	assert.Equal(t, 1, w.console.Resets(w.provider, "All"), "resetter runs when requested")
}

func TestNavigateTo_RecoversFromTransientFailure(t *testing.T) {
	w := newWorld()
	w.console.Fail(w.host, "Details", nil)
	nav := w.navigator(t)

	arrival, err := nav.NavigateTo(context.Background(), w.host, "Details")
	require.NoError(t, err)
	assert.Equal(t, "Host(h1)/Details", arrival.View)
	assert.Equal(t, 1, w.console.Refreshes)
}

func TestNavigateTo_FailsTwiceWithOriginalError(t *testing.T) {
	w := newWorld()
	first := errors.New("click intercepted")
	w.console.Fail(w.host, "Details", first, errors.New("second"))
	nav := w.navigator(t)

	_, err := nav.NavigateTo(context.Background(), w.host, "Details")
	assert.ErrorIs(t, err, first)

	var hopErr *domain.HopError
	require.ErrorAs(t, err, &hopErr)
	assert.Equal(t, "Host(h1)", hopErr.Entity)
	assert.Equal(t, "Details", hopErr.Destination)
}

func TestNavigateTo_UnregisteredDestination(t *testing.T) {
	w := newWorld()
	nav := w.navigator(t)

	_, err := nav.NavigateTo(context.Background(), w.host, "Nonexistent")
	assert.ErrorIs(t, err, domain.ErrDestinationNotFound)
	assert.Equal(t, 0, w.console.TotalSteps(), "no UI interaction")
	assert.Equal(t, 0, w.console.Bases)
	assert.Equal(t, 0, w.console.Refreshes)
}

func TestNavigateTo_Idempotent(t *testing.T) {
	w := newWorld()
	nav := w.navigator(t)
	ctx := context.Background()

	_, err := nav.NavigateTo(ctx, w.host, "Edit")
	require.NoError(t, err)
	steps := w.console.TotalSteps()
	assert.Equal(t, 3, steps)

	_, err = nav.NavigateTo(ctx, w.host, "Edit")
	require.NoError(t, err)
	assert.Equal(t, steps, w.console.TotalSteps())
}

func TestNavigateTo_Force(t *testing.T) {
	w := newWorld()
	w.console.Show(w.host, "Details")
	nav := w.navigator(t)

	_, err := nav.NavigateTo(context.Background(), w.host, "Details", navgraph.Force())
	require.NoError(t, err)
	assert.Equal(t, 1, w.console.Steps(w.host, "Details"))
}

func TestNavigateTo_AncestorFallback(t *testing.T) {
	w := newWorld()
	nav := w.navigator(t)

	_, err := nav.NavigateTo(context.Background(), w.provider, "Details")
	require.NoError(t, err)
	assert.Equal(t, "InfraProvider(p1)/Details", w.console.Current())
}

func TestNavigateTo_CycleRejected(t *testing.T) {
	w := newWorld()
	w.reg.Register("Loop", "A", domain.StepDefinition{Prerequisite: domain.Sibling("B")})
	w.reg.Register("Loop", "B", domain.StepDefinition{Prerequisite: domain.Sibling("A")})
	nav := w.navigator(t)

	for _, dest := range []string{"A", "B"} {
		_, err := nav.NavigateTo(context.Background(), domain.TypeName("Loop"), dest)
		assert.ErrorIs(t, err, domain.ErrNavigationCycle, dest)
	}
}

type ambiguousProviderError struct{ collection string }

func (e *ambiguousProviderError) Error() string {
	return fmt.Sprintf("could not identify provider for %s", e.collection)
}

func (e *ambiguousProviderError) Unwrap() error { return domain.ErrDestinationNotFound }

func TestNavigateTo_DomainErrorsPropagate(t *testing.T) {
	w := newWorld()
	w.reg.Register("HostCollection", "All", domain.StepDefinition{
		Step: func(ctx context.Context, hop *domain.HopContext) error {
			return &ambiguousProviderError{collection: "hosts"}
		},
	})
	nav := w.navigator(t)

	_, err := nav.NavigateTo(context.Background(), domain.TypeName("HostCollection"), "All")
	var ambiguous *ambiguousProviderError
	require.ErrorAs(t, err, &ambiguous)
	assert.Same(t, ambiguous, err, "domain errors reach the caller unwrapped")
	assert.ErrorIs(t, err, domain.ErrDestinationNotFound)
	assert.Equal(t, 0, w.console.Refreshes, "domain not-found errors are not retried")
}

func TestNavigateTo_CustomPrerequisiteNavigatesReentrantly(t *testing.T) {
	w := newWorld()
	server := testutils.NewNode("Server", "s1", nil)
	w.console.Define(w.reg, "Server", "LoggedIn", nil)

	var nav *navgraph.Navigator
	w.console.Define(w.reg, "Group", "Details", domain.Custom(func(ctx context.Context, hop *domain.HopContext) (*domain.Arrival, error) {
		return nav.NavigateTo(ctx, server, "LoggedIn")
	}))
	nav = w.navigator(t, navgraph.WithGuard(session.NewGuard(session.WithWaitTimeout(time.Second))))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := nav.NavigateTo(ctx, testutils.NewNode("Group", "g1", nil), "Details")
	require.NoError(t, err)
	assert.Equal(t, 1, w.console.Steps(server, "LoggedIn"))
	assert.Equal(t, "Group(g1)/Details", w.console.Current())
}

func TestNavigateTo_OptionMap(t *testing.T) {
	w := newWorld()
	w.console.Stick(w.host, "Details")
	nav := w.navigator(t)

	start := time.Now()
	_, err := nav.NavigateTo(context.Background(), w.host, "Details", navgraph.WithOptionMap(map[string]any{
		"timeout": "50ms",
		"delay":   0.01,
	}))
	assert.ErrorIs(t, err, domain.ErrNavigationFailed)
	assert.Less(t, time.Since(start), 2*time.Second)

	_, err = nav.NavigateTo(context.Background(), w.host, "Details", navgraph.WithOptionMap(map[string]any{
		"wait_for_view": true,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait_for_view")
	assert.Equal(t, 1, w.console.Steps(w.host, "Details"), "rejected options navigate nowhere")
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]any
		want    domain.NavOptions
		wantErr bool
	}{
		{name: "Empty", in: nil, want: domain.NavOptions{}},
		{name: "Force", in: map[string]any{"force": true}, want: domain.NavOptions{Force: true}},
		{name: "Seconds", in: map[string]any{"timeout": 15}, want: domain.NavOptions{Timeout: 15 * time.Second}},
		{name: "Duration String", in: map[string]any{"delay": "250ms"}, want: domain.NavOptions{Delay: 250 * time.Millisecond}},
		{name: "Unknown Key", in: map[string]any{"bogus": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := navgraph.DecodeOptions(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := navgraph.DecodeOptions(map[string]any{"run_resetters": false})
	require.NoError(t, err)
	require.NotNil(t, got.RunResetters)
	assert.False(t, *got.RunResetters)
}

func TestNavigateTo_Hooks(t *testing.T) {
	w := newWorld()
	var started, ended []*domain.NavigationEvent
	hooks := domain.Hooks{
		OnNavigateStart: func(ctx context.Context, e *domain.NavigationEvent) {
			cp := *e
			started = append(started, &cp)
		},
		OnNavigateEnd: func(ctx context.Context, e *domain.NavigationEvent) {
			cp := *e
			ended = append(ended, &cp)
		},
	}
	nav := w.navigator(t, navgraph.WithLifecycleHooks(hooks), navgraph.WithSession("worker-1"))

	_, err := nav.NavigateTo(context.Background(), w.host, "Details")
	require.NoError(t, err)
	_, err = nav.NavigateTo(context.Background(), w.host, "Nonexistent")
	require.Error(t, err)

	require.Len(t, started, 2)
	require.Len(t, ended, 2)
	assert.Equal(t, domain.PhaseResolving, started[0].Phase)
	assert.Equal(t, "worker-1", ended[0].SessionID)
	assert.Equal(t, domain.PhaseDone, ended[0].Phase)
	assert.Equal(t, 2, ended[0].Hops)
	assert.Equal(t, 1, ended[0].Attempts)
	assert.Equal(t, domain.PhaseFailed, ended[1].Phase)
	assert.ErrorIs(t, ended[1].Err, domain.ErrDestinationNotFound)
}

func TestNew_FreezesRegistry(t *testing.T) {
	w := newWorld()
	w.navigator(t)

	w.reg.Register("Late", "All", domain.StepDefinition{})
	assert.True(t, w.reg.Frozen())
	assert.False(t, w.reg.Has(domain.TypeName("Late"), "All"))

	_, err := navgraph.New(nil)
	assert.Error(t, err)
}

func TestNavigateTo_NilEntity(t *testing.T) {
	nav := newWorld().navigator(t)
	_, err := nav.NavigateTo(context.Background(), nil, "Details")
	assert.Error(t, err)
}

func TestNavigateTo_SharedSessionAcrossNavigators(t *testing.T) {
	w := newWorld()
	locker := memory.NewLocker()
	first := w.navigator(t, navgraph.WithSession("browser-1"), navgraph.WithLocker(locker))
	second := w.navigator(t, navgraph.WithSession("browser-1"), navgraph.WithLocker(locker))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, nav := range []*navgraph.Navigator{first, second} {
		wg.Add(1)
		go func(i int, nav *navgraph.Navigator) {
			defer wg.Done()
			_, errs[i] = nav.NavigateTo(context.Background(), w.host, "Edit")
		}(i, nav)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, w.console.Steps(w.host, "Edit"), "the second navigation finds the page displayed")
	assert.Equal(t, 0, locker.Held())
}
