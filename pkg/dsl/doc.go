/*
Package dsl provides a fluent builder for declaring navigation steps.

It replaces registration side effects with ordinary calls: declare the type hierarchy,
then describe each destination of each type, and register everything in one go.

Example usage:

	b := dsl.New()
	b.Type("InfraVm", "Vm")

	vm := b.For("Vm")
	vm.Step("All").
		Do(openListing).
		Displayed(listingShown).
		Reset(clearFilter)
	vm.Step("Details").
		Sibling("All").
		Do(clickRow).
		Displayed(detailsShown)

	reg := registry.New()
	if err := b.Build(reg); err != nil {
		log.Fatal(err)
	}
*/
package dsl
