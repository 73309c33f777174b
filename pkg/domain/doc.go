/*
Package domain contains the core types of the navigation graph engine.

It defines what a destination is, how steps declare the state they start from, what a
resolved plan looks like and the errors the engine returns. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Entity: anything navigable; optionally Owned (has a parent) or an AttributeHolder.
  - StepDefinition: one named transition for one entity type.
  - Prerequisite: root, sibling, attribute walk, fixed object or custom resolver.
  - Plan / Hop: the ordered transitions for one navigation, root first.
  - Arrival: the handle returned to the caller once a destination is verified.
*/
package domain
