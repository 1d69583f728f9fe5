package dsl

import "github.com/aretw0/ruleflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
}

// Title sets the node caption.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Trigger marks the node as the event that starts the flow.
func (n *NodeBuilder) Trigger(event string) *NodeBuilder {
	n.node.Kind = domain.NodeTrigger
	n.node.Event = event
	return n
}

// Where marks the node as a condition filter.
func (n *NodeBuilder) Where(field string, op domain.Operator, value string) *NodeBuilder {
	n.node.Kind = domain.NodeCondition
	n.node.Field = field
	n.node.Operator = op
	n.node.Value = value
	return n
}

// Send marks the node as an action dispatched to channel.
func (n *NodeBuilder) Send(channel string) *NodeBuilder {
	n.node.Kind = domain.NodeAction
	n.node.Channel = channel
	return n
}

// Config adds a channel setting to an action node.
func (n *NodeBuilder) Config(key string, value any) *NodeBuilder {
	if n.node.Config == nil {
		n.node.Config = make(map[string]any)
	}
	n.node.Config[key] = value
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}

// BranchBuilder provides a fluent API for configuring a branch.
type BranchBuilder struct {
	branch domain.Branch
}

// When sets the branch condition.
func (b *BranchBuilder) When(field string, op domain.Operator, value string) *BranchBuilder {
	b.branch.Condition = domain.Condition{Field: field, Operator: op, Value: value}
	return b
}

// Do appends an action to run when the branch matches.
func (b *BranchBuilder) Do(actionType, title string) *BranchBuilder {
	b.branch.Actions = append(b.branch.Actions, domain.Action{Type: actionType, Title: title})
	return b
}

// Build returns the underlying domain.Branch.
func (b *BranchBuilder) Build() domain.Branch {
	return b.branch
}

// Action is shorthand for an action literal, mostly for Builder.Else.
func Action(actionType, title string) domain.Action {
	return domain.Action{Type: actionType, Title: title}
}
