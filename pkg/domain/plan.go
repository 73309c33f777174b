package domain

import (
	"fmt"
	"strings"
)

// Hop is one step of an execution plan.
type Hop struct {
	Entity     Entity
	Definition StepDefinition
}

// Destination is the destination name reached by the hop.
func (h Hop) Destination() string {
	return h.Definition.Name
}

// Resolved reports whether the hop's prerequisite is produced by a custom resolver.
func (h Hop) Resolved() bool {
	return h.Definition.Prerequisite.KindOf() == PrereqCustom
}

func (h Hop) String() string {
	return fmt.Sprintf("%s -> %s", Describe(h.Entity), h.Definition.Name)
}

// Plan is the ordered list of hops for one navigation, root first and target last.
type Plan struct {
	Target      Entity
	Destination string
	Hops        []Hop
}

// Len returns the number of hops.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Hops)
}

// Terminal returns the last hop.
func (p *Plan) Terminal() (Hop, bool) {
	if p.Len() == 0 {
		return Hop{}, false
	}
	return p.Hops[len(p.Hops)-1], true
}

func (p *Plan) String() string {
	if p == nil {
		return "<empty plan>"
	}
	parts := make([]string, 0, len(p.Hops))
	for _, h := range p.Hops {
		parts = append(parts, h.String())
	}
	return strings.Join(parts, " => ")
}

// Phase is the state of a navigation's state machine.
type Phase string

const (
	PhaseResolving Phase = "resolving"
	PhaseExecuting Phase = "executing"
	PhaseVerifying Phase = "verifying"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)
