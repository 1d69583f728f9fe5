package ruleflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/pkg/domain"
)

// ExampleRoute shows first-match-wins routing with an else fallback.
func ExampleRoute() {
	branches := []domain.Branch{
		{
			Label:     "VIP",
			Condition: domain.Condition{Field: "segment", Operator: domain.OpEquals, Value: "VIP"},
			Actions:   []domain.Action{{Type: "email", Title: "VIP coupon"}},
		},
		{
			Label:     "Big cart",
			Condition: domain.Condition{Field: "cart_value", Operator: domain.OpGreater, Value: "100"},
			Actions:   []domain.Action{{Type: "sms", Title: "Free shipping"}},
		},
	}
	elseActions := []domain.Action{{Type: "email", Title: "Reminder"}}

	facts := []domain.Fact{
		{"segment": "VIP", "cart_value": 500},
		{"segment": "new", "cart_value": 180},
		{"segment": "new", "cart_value": "n/a"},
	}
	for _, fact := range facts {
		res := ruleflow.Route(branches, elseActions, fact)
		fmt.Printf("matched=%v index=%d action=%s\n", res.Matched, res.Index, res.Actions[0].Title)
	}

	// Output:
	// matched=true index=0 action=VIP coupon
	// matched=true index=1 action=Free shipping
	// matched=false index=-1 action=Reminder
}

// ExamplePreflight lists the problems that block a flow from being ready.
func ExamplePreflight() {
	flow := &domain.Flow{
		ID:   "draft",
		Mode: domain.ModeProduction,
		Nodes: []domain.Node{
			{Kind: domain.NodeAction, Channel: "email"},
		},
	}

	report := ruleflow.Preflight(flow)
	fmt.Println("ready:", report.Ready)
	for _, issue := range report.Issues {
		fmt.Println("-", issue)
	}

	// Output:
	// ready: false
	// - First node must be a trigger.
	// - Define at least one branch.
	// - Production mode requires a confirmation note.
}

// ExampleEngine_Simulate runs a stored flow against its sample fact.
func ExampleEngine_Simulate() {
	ctx := context.Background()
	eng := ruleflow.New()

	doc := []byte(`
id: welcome
nodes:
  - kind: trigger
    event: signup
branches:
  - label: Newsletter
    condition: {field: source, operator: contains, value: news}
    actions:
      - {type: email, title: Welcome series}
else_actions:
  - {type: push, title: Hello}
sample_fact:
  source: Newsletter footer
`)
	if _, err := eng.ImportFlow(ctx, doc, ruleflow.FormatYAML); err != nil {
		log.Fatal(err)
	}

	sim, err := eng.SimulateStored(ctx, "welcome", nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sim.Preflight.Ready, sim.Route.Label, sim.Route.Actions[0].Title)

	// Output:
	// true Newsletter Welcome series
}
