/*
Package dsl provides a Go DSL for programmatically constructing flows.

It is an alternative to YAML or JSON documents, useful for tests, generated
flows and IDE autocompletion.

Example usage:

	b := dsl.New("cart").Name("Cart recovery")
	b.Add("start").Trigger("cart_abandoned")
	b.Branch("VIP").When("segment", domain.OpEquals, "VIP").Do("email", "VIP coupon")
	b.Branch("Big cart").When("cart_value", domain.OpGreater, "100").Do("sms", "")
	b.Else(dsl.Action("push", "Reminder"))

	flow, err := b.Build()
	// ... pass flow to ruleflow.Route or Engine.SaveFlow
*/
package dsl
