/*
Package navgraph is a navigation graph engine for driving a web console through its UI.

Given a target entity (possibly deeply nested: a VM under a provider under a collection)
and a named destination ("Details", "Edit", "SetOwnership"), it computes and executes the
minimal sequence of UI transitions needed to reach that destination from whatever the
session is currently showing, verifying arrival at each hop and recovering once from
transient failures.

# Concept

Navigation is declared, not scripted. Each (entity type, destination) pair is a
StepDefinition registered in a registry.Registry: how to get there (Step), how to tell
that we are there (IsDisplayed), and what must be reached first (the Prerequisite).
Prerequisites chain through siblings of the same entity, through the ownership chain
(the parent's listing before a child's details) or through fixed objects (the server
being logged in). Lookups fall back along the declared type hierarchy, so a destination
registered for a base type serves every derived type.

# Usage

	reg := registry.New()
	reg.DeclareType("InfraVm", "Vm")
	reg.Register("Vm", "All", domain.StepDefinition{Step: openListing, IsDisplayed: listingShown})
	reg.Register("Vm", "Details", domain.StepDefinition{
		Prerequisite: domain.Sibling("All"),
		Step:         clickRow,
		IsDisplayed:  detailsShown,
	})

	nav, err := navgraph.New(reg,
		navgraph.WithRecoverer(browser),
		navgraph.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	arrival, err := nav.NavigateTo(ctx, vm, "Details")
	if err != nil {
		log.Fatal(err)
	}
	view := arrival.View.(*DetailsView)

A second identical call performs no transition at all: the executor starts from the
deepest hop that is already displayed. Use Force to re-run the terminal step anyway.
*/
package navgraph
