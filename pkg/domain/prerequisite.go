package domain

import (
	"context"
	"fmt"
	"strings"
)

// PrerequisiteKind tells the resolver how to reach the state a step starts from.
type PrerequisiteKind string

const (
	// PrereqRoot marks a step that starts from the global base state (e.g. "logged in").
	PrereqRoot PrerequisiteKind = "root"
	// PrereqSibling reaches another destination of the same entity first.
	PrereqSibling PrerequisiteKind = "sibling"
	// PrereqAttribute walks the ownership chain and reaches a destination on the object found.
	PrereqAttribute PrerequisiteKind = "attribute"
	// PrereqObject reaches a destination on a fixed, independently held entity.
	PrereqObject PrerequisiteKind = "object"
	// PrereqCustom hands the prerequisite over to a callable that returns the handle itself.
	PrereqCustom PrerequisiteKind = "custom"
)

// ResolverFunc builds the prerequisite arrival handle directly, bypassing the chain.
// It runs at execution time, so it is free to drive the UI (or navigate elsewhere).
type ResolverFunc func(ctx context.Context, hop *HopContext) (*Arrival, error)

// Prerequisite describes the destination that must be reached before a step can run.
// The zero value (and a nil *Prerequisite) is a root prerequisite.
type Prerequisite struct {
	Kind PrerequisiteKind

	// Target is the destination name to reach first (sibling, attribute and object kinds).
	Target string

	// Path is the dotted attribute chain walked from the entity (attribute kind),
	// e.g. "parent", "parent.parent", "appliance.server".
	Path string

	// Object is the fixed entity used by the object kind.
	Object Entity

	// Resolver is the callable used by the custom kind.
	Resolver ResolverFunc
}

// Root returns a prerequisite for steps that start from the base state.
func Root() *Prerequisite {
	return &Prerequisite{Kind: PrereqRoot}
}

// Sibling returns a prerequisite on another destination of the same entity.
func Sibling(name string) *Prerequisite {
	return &Prerequisite{Kind: PrereqSibling, Target: name}
}

// Attribute returns a prerequisite on destination name of the object reached by walking path.
func Attribute(path, name string) *Prerequisite {
	return &Prerequisite{Kind: PrereqAttribute, Path: path, Target: name}
}

// Object returns a prerequisite on destination name of a fixed entity.
func Object(e Entity, name string) *Prerequisite {
	return &Prerequisite{Kind: PrereqObject, Object: e, Target: name}
}

// Custom returns a prerequisite resolved by fn at execution time.
func Custom(fn ResolverFunc) *Prerequisite {
	return &Prerequisite{Kind: PrereqCustom, Resolver: fn}
}

// KindOf returns the effective kind, treating nil and the zero value as root.
func (p *Prerequisite) KindOf() PrerequisiteKind {
	if p == nil || p.Kind == "" {
		return PrereqRoot
	}
	return p.Kind
}

// Segments splits the attribute path into its components, ignoring empty ones.
func (p *Prerequisite) Segments() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, s := range strings.Split(p.Path, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p *Prerequisite) String() string {
	switch p.KindOf() {
	case PrereqSibling:
		return fmt.Sprintf("sibling(%s)", p.Target)
	case PrereqAttribute:
		return fmt.Sprintf("attribute(%s -> %s)", p.Path, p.Target)
	case PrereqObject:
		return fmt.Sprintf("object(%s -> %s)", Describe(p.Object), p.Target)
	case PrereqCustom:
		return "custom"
	default:
		return "root"
	}
}
