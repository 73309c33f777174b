package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/navgraph/pkg/domain"
)

// Registrar is the write side of a registry.
type Registrar interface {
	DeclareType(name domain.TypeName, bases ...domain.TypeName)
	Register(entityType domain.TypeName, name string, def domain.StepDefinition)
}

type typeDecl struct {
	name  domain.TypeName
	bases []domain.TypeName
}

// Builder collects type declarations and step definitions.
type Builder struct {
	types []typeDecl
	steps []*StepBuilder
}

// New creates a new builder.
func New() *Builder {
	return &Builder{}
}

// Type declares name with its direct base types.
func (b *Builder) Type(name domain.TypeName, bases ...domain.TypeName) *Builder {
	b.types = append(b.types, typeDecl{name: name, bases: bases})
	return b
}

// For returns a builder for the destinations of entity type t.
func (b *Builder) For(t domain.TypeName) *TypeBuilder {
	return &TypeBuilder{typ: t, builder: b}
}

// Build declares the types and registers the steps, in call order.
// Malformed steps are not registered; they are reported together in the returned error.
func (b *Builder) Build(reg Registrar) error {
	for _, t := range b.types {
		reg.DeclareType(t.name, t.bases...)
	}

	var errs []error
	for _, s := range b.steps {
		if err := s.check(); err != nil {
			errs = append(errs, err)
			continue
		}
		reg.Register(s.def.EntityType, s.def.Name, s.def)
	}
	return errors.Join(errs...)
}

// TypeBuilder describes the destinations of one entity type.
type TypeBuilder struct {
	typ     domain.TypeName
	builder *Builder
}

// Step starts the definition of destination name. Without a prerequisite call the
// destination is a root step.
func (t *TypeBuilder) Step(name string) *StepBuilder {
	s := &StepBuilder{def: domain.StepDefinition{EntityType: t.typ, Name: name}}
	t.builder.steps = append(t.builder.steps, s)
	return s
}

// StepBuilder provides a fluent API for configuring a step definition.
type StepBuilder struct {
	def domain.StepDefinition
}

// Requires sets the prerequisite.
func (s *StepBuilder) Requires(p *domain.Prerequisite) *StepBuilder {
	s.def.Prerequisite = p
	return s
}

// Sibling requires the same entity to be at destination first.
func (s *StepBuilder) Sibling(destination string) *StepBuilder {
	return s.Requires(domain.Sibling(destination))
}

// Parent requires the entity's parent to be at destination first.
func (s *StepBuilder) Parent(destination string) *StepBuilder {
	return s.Requires(domain.Attribute("parent", destination))
}

// Attribute requires the entity reached through path to be at destination first.
func (s *StepBuilder) Attribute(path, destination string) *StepBuilder {
	return s.Requires(domain.Attribute(path, destination))
}

// Object requires a fixed entity to be at destination first.
func (s *StepBuilder) Object(e domain.Entity, destination string) *StepBuilder {
	return s.Requires(domain.Object(e, destination))
}

// Custom obtains the prerequisite handle from fn.
func (s *StepBuilder) Custom(fn domain.ResolverFunc) *StepBuilder {
	return s.Requires(domain.Custom(fn))
}

// Do sets the transition.
func (s *StepBuilder) Do(fn domain.StepFunc) *StepBuilder {
	s.def.Step = fn
	return s
}

// Displayed sets the predicate used to short-circuit and to verify arrival.
func (s *StepBuilder) Displayed(fn domain.DisplayedFunc) *StepBuilder {
	s.def.IsDisplayed = fn
	return s
}

// Reset sets the resetter run on re-entry.
func (s *StepBuilder) Reset(fn domain.StepFunc) *StepBuilder {
	s.def.Resetter = fn
	return s
}

// View sets the view builder exposed through the arrival handle.
func (s *StepBuilder) View(fn domain.ViewFunc) *StepBuilder {
	s.def.View = fn
	return s
}

// Before sets a hook run before the transition.
func (s *StepBuilder) Before(fn domain.StepFunc) *StepBuilder {
	s.def.Before = fn
	return s
}

// After sets a hook run after the transition.
func (s *StepBuilder) After(fn domain.StepFunc) *StepBuilder {
	s.def.After = fn
	return s
}

// Definition returns the definition built so far.
func (s *StepBuilder) Definition() domain.StepDefinition {
	return s.def
}

func (s *StepBuilder) check() error {
	switch {
	case s.def.EntityType == "":
		return fmt.Errorf("step %q has no entity type", s.def.Name)
	case s.def.Name == "":
		return fmt.Errorf("step of %s has no name", s.def.EntityType)
	case s.def.Step == nil:
		return fmt.Errorf("step %s has no transition", s.def.Key())
	}
	p := s.def.Prerequisite
	switch p.KindOf() {
	case domain.PrereqSibling, domain.PrereqAttribute, domain.PrereqObject:
		if p.Target == "" {
			return fmt.Errorf("step %s: %s prerequisite has no destination", s.def.Key(), p.KindOf())
		}
	case domain.PrereqCustom:
		if p.Resolver == nil {
			return fmt.Errorf("step %s: custom prerequisite has no resolver", s.def.Key())
		}
	}
	if p.KindOf() == domain.PrereqSibling && p.Target == s.def.Name {
		return fmt.Errorf("step %s requires itself", s.def.Key())
	}
	return nil
}
