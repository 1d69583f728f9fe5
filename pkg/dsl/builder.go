package dsl

import (
	"fmt"

	"github.com/aretw0/ruleflow/pkg/adapters/memory"
	"github.com/aretw0/ruleflow/pkg/domain"
)

// Builder manages the flow construction.
type Builder struct {
	flow     domain.Flow
	nodes    []*NodeBuilder
	branches []*BranchBuilder
}

// New creates a new flow builder.
func New(id string) *Builder {
	return &Builder{flow: domain.Flow{ID: id}}
}

// Name sets the display name.
func (b *Builder) Name(name string) *Builder {
	b.flow.Name = name
	return b
}

// Draft marks the flow as a draft.
func (b *Builder) Draft() *Builder {
	b.flow.Mode = domain.ModeDraft
	b.flow.Note = ""
	return b
}

// Production marks the flow as production with its confirmation note.
func (b *Builder) Production(note string) *Builder {
	b.flow.Mode = domain.ModeProduction
	b.flow.Note = note
	return b
}

// Add appends a node to the flow. Nodes keep insertion order.
func (b *Builder) Add(id string) *NodeBuilder {
	nb := &NodeBuilder{node: domain.Node{ID: id}}
	b.nodes = append(b.nodes, nb)
	return nb
}

// Branch appends a labelled branch. Branches are evaluated in insertion order.
func (b *Builder) Branch(label string) *BranchBuilder {
	bb := &BranchBuilder{branch: domain.Branch{Label: label}}
	b.branches = append(b.branches, bb)
	return bb
}

// Else sets the actions returned when no branch matches.
func (b *Builder) Else(actions ...domain.Action) *Builder {
	b.flow.ElseActions = append(b.flow.ElseActions, actions...)
	return b
}

// Expect declares a fact field and its type in the fact schema.
func (b *Builder) Expect(field, typ string) *Builder {
	if b.flow.FactSchema == nil {
		b.flow.FactSchema = make(map[string]string)
	}
	b.flow.FactSchema[field] = typ
	return b
}

// Sample sets one field of the sample fact used by simulations.
func (b *Builder) Sample(field string, value any) *Builder {
	if b.flow.SampleFact == nil {
		b.flow.SampleFact = make(domain.Fact)
	}
	b.flow.SampleFact[field] = value
	return b
}

// Build returns the assembled flow.
// It fails on a missing flow ID, duplicate node IDs or a nested sample fact.
func (b *Builder) Build() (*domain.Flow, error) {
	if b.flow.ID == "" {
		return nil, fmt.Errorf("flow missing ID: %w", domain.ErrInvalidFlowID)
	}

	flow := b.flow.Clone()
	flow.Nodes = make([]domain.Node, 0, len(b.nodes))
	seen := make(map[string]bool, len(b.nodes))
	for _, nb := range b.nodes {
		n := nb.Build()
		if n.ID != "" {
			if seen[n.ID] {
				return nil, fmt.Errorf("duplicate node ID %q", n.ID)
			}
			seen[n.ID] = true
		}
		flow.Nodes = append(flow.Nodes, n)
	}

	flow.Branches = make([]domain.Branch, 0, len(b.branches))
	for _, bb := range b.branches {
		flow.Branches = append(flow.Branches, bb.Build())
	}

	if err := flow.SampleFact.Validate(); err != nil {
		return nil, fmt.Errorf("sample fact: %w", err)
	}
	return flow, nil
}

// Catalog builds every flow into an in-memory catalog.
func Catalog(builders ...*Builder) (*memory.Catalog, error) {
	flows := make([]*domain.Flow, 0, len(builders))
	for _, b := range builders {
		f, err := b.Build()
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return memory.NewCatalog(flows...)
}
