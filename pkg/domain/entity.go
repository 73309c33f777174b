package domain

import (
	"fmt"
	"reflect"
)

// TypeName identifies an entity type in the navigation graph (e.g. "InfraProvider", "Vm").
// Types form a hierarchy declared on the registry; see registry.DeclareType.
type TypeName string

// EntityType lets a bare TypeName stand in for an entity, so that registrations and
// lookups can address a type directly instead of an instance of it.
func (t TypeName) EntityType() TypeName { return t }

// EntityID makes every bare TypeName its own identity.
func (t TypeName) EntityID() string { return "type:" + string(t) }

// Entity is anything the engine can navigate to.
type Entity interface {
	EntityType() TypeName
}

// Owned is implemented by entities that live under another entity
// (a VM under a provider, a provider under its collection).
// A nil parent terminates the ownership chain.
type Owned interface {
	Parent() Entity
}

// AttributeHolder exposes named references other than the parent
// (e.g. "appliance", "server") for Attribute prerequisites.
type AttributeHolder interface {
	Attribute(name string) (Entity, bool)
}

// Identifier gives an entity a stable identity for cycle detection and logs.
type Identifier interface {
	EntityID() string
}

// Identity returns the key used to tell entities apart during a single resolution.
// Identifiers win. Values that compare without panicking (pointers, small structs) are
// their own identity; anything else, including a struct whose interface field holds a
// slice, falls back to its printed form.
func Identity(e Entity) any {
	if e == nil {
		return nil
	}
	if id, ok := e.(Identifier); ok {
		return string(e.EntityType()) + ":" + id.EntityID()
	}
	if reflect.ValueOf(e).Comparable() {
		return e
	}
	return fmt.Sprintf("%T:%v", e, e)
}

// Describe renders an entity for error messages and logs.
func Describe(e Entity) string {
	if e == nil {
		return "<nil>"
	}
	if t, ok := e.(TypeName); ok {
		return string(t)
	}
	if id, ok := e.(Identifier); ok {
		return fmt.Sprintf("%s(%s)", e.EntityType(), id.EntityID())
	}
	if s, ok := e.(fmt.Stringer); ok {
		return fmt.Sprintf("%s(%s)", e.EntityType(), s.String())
	}
	return string(e.EntityType())
}
