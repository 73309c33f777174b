package domain

import "context"

// StepFunc performs a transition or one of its hooks.
type StepFunc func(ctx context.Context, hop *HopContext) error

// DisplayedFunc answers "is the session already showing this destination for this entity".
type DisplayedFunc func(ctx context.Context, hop *HopContext) bool

// ViewFunc builds the view object handed back to the caller inside the Arrival.
type ViewFunc func(ctx context.Context, hop *HopContext) any

// StepDefinition is one named transition for one entity type.
type StepDefinition struct {
	EntityType   TypeName
	Name         string
	Prerequisite *Prerequisite

	// Step performs the transition, starting from hop.Prerequisite.
	Step StepFunc

	// IsDisplayed is used both to short-circuit and to verify arrival.
	IsDisplayed DisplayedFunc

	// Resetter normalizes a state that is re-entered rather than freshly reached
	// (lingering filters, selections). Optional.
	Resetter StepFunc

	// View builds the object exposed through Arrival.View. Optional.
	View ViewFunc

	// Before and After run around Step when the hop is actually executed. Optional.
	Before StepFunc
	After  StepFunc
}

// Key is the registry key of the definition.
func (d StepDefinition) Key() StepKey {
	return StepKey{Type: d.EntityType, Name: d.Name}
}

// StepKey addresses a definition in the registry.
type StepKey struct {
	Type TypeName
	Name string
}

func (k StepKey) String() string {
	return string(k.Type) + "/" + k.Name
}

// HopContext is what step callbacks receive.
type HopContext struct {
	// Entity is the object this hop navigates for (the target, or one of its ancestors).
	Entity Entity

	// Destination is the destination name of this hop.
	Destination string

	// Prerequisite is the arrival handle produced by the previous hop (nil for root hops).
	Prerequisite *Arrival

	// Terminal is true for the last hop of the plan.
	Terminal bool

	// Nav is the navigation this hop belongs to.
	Nav *NavContext
}

// Options returns the call-time options of the navigation.
func (h *HopContext) Options() NavOptions {
	if h == nil || h.Nav == nil {
		return NavOptions{}
	}
	return h.Nav.Options
}

// Arrival is the handle representing "now looking at this state".
type Arrival struct {
	Entity      Entity
	Destination string

	// View is whatever the definition's View callback produced; nil when it has none.
	View any
}

// NavContext is created once per navigation and discarded when it returns.
type NavContext struct {
	Target      Entity
	Destination string
	Options     NavOptions
	Plan        *Plan
	SessionID   string

	// Attempt is 1 for the first execution of the plan and 2 for the retry after recovery.
	Attempt int
}
