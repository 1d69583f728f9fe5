package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Condition is a single field/operator/value comparison rule.
type Condition struct {
	Field    string   `json:"field" yaml:"field" mapstructure:"field"`
	Operator Operator `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value    string   `json:"value" yaml:"value" mapstructure:"value"`
}

// Complete reports whether the condition names both a field and an operator.
func (c Condition) Complete() bool {
	return strings.TrimSpace(c.Field) != "" && c.Operator != ""
}

// UnmarshalJSON accepts scalar values of any JSON type for Value
// (e.g. {"value": 100}) and normalizes operator aliases.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field    string `json:"field"`
		Operator string `json:"operator"`
		Value    any    `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Field = raw.Field
	c.Operator = ParseOperator(raw.Operator)
	c.Value = ""
	if raw.Value != nil {
		c.Value = FormatValue(raw.Value)
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON: plain scalars such as 1.50 or 1e3
// are normalized with FormatValue, so YAML and JSON documents route alike.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Field    string   `yaml:"field"`
		Operator Operator `yaml:"operator"`
		Value    any      `yaml:"value"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Field = raw.Field
	c.Operator = raw.Operator
	c.Value = ""
	if raw.Value != nil {
		c.Value = FormatValue(raw.Value)
	}
	return nil
}

// UnmarshalText lets text-based decoders (YAML, flags) normalize aliases.
func (op *Operator) UnmarshalText(text []byte) error {
	*op = ParseOperator(string(text))
	return nil
}

// Action is an effect to be dispatched by an external system.
// It is never executed by the engine, only returned as data.
type Action struct {
	Type   string         `json:"type" yaml:"type" mapstructure:"type"` // Channel identifier, e.g. "email", "webhook"
	Title  string         `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
}

// Branch is a labelled condition plus the actions to run when it matches.
type Branch struct {
	Label     string    `json:"label" yaml:"label" mapstructure:"label"`
	Condition Condition `json:"condition" yaml:"condition" mapstructure:"condition"`
	Actions   []Action  `json:"actions" yaml:"actions" mapstructure:"actions"`
}

// NodeKind defines the role of a node in the authored flow.
type NodeKind string

const (
	// NodeTrigger starts the flow when an event arrives.
	NodeTrigger NodeKind = "trigger"
	// NodeCondition filters the event by a single comparison.
	NodeCondition NodeKind = "condition"
	// NodeAction dispatches to a channel.
	NodeAction NodeKind = "action"
)

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeTrigger, NodeCondition, NodeAction:
		return true
	}
	return false
}

// Node is one step of the authored flow.
// Only the fields matching Kind are meaningful.
type Node struct {
	ID    string   `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Kind  NodeKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`

	// Trigger
	Event string `json:"event,omitempty" yaml:"event,omitempty" mapstructure:"event"`

	// Condition
	Field    string   `json:"field,omitempty" yaml:"field,omitempty" mapstructure:"field"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty" mapstructure:"operator"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// Action
	Channel string         `json:"channel,omitempty" yaml:"channel,omitempty" mapstructure:"channel"`
	Config  map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
}

// Condition returns the comparison carried by a condition node.
func (n Node) Condition() Condition {
	return Condition{Field: n.Field, Operator: n.Operator, Value: n.Value}
}

// Mode is the authoring mode of a flow.
type Mode string

const (
	ModeDraft      Mode = "draft"
	ModeProduction Mode = "production"
)

// Flow is an authored automation: ordered nodes plus one branch group.
type Flow struct {
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Mode Mode   `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`

	// Note is the free-text confirmation required before promoting in production mode.
	Note string `json:"note,omitempty" yaml:"note,omitempty" mapstructure:"note"`

	Nodes       []Node   `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Branches    []Branch `json:"branches" yaml:"branches" mapstructure:"branches"`
	ElseActions []Action `json:"else_actions,omitempty" yaml:"else_actions,omitempty" mapstructure:"else_actions"`

	// FactSchema optionally declares the expected fact fields, e.g. {"cart_value": "number"}.
	FactSchema map[string]string `json:"fact_schema,omitempty" yaml:"fact_schema,omitempty" mapstructure:"fact_schema"`
	// SampleFact is the payload used when a simulation is run without one.
	SampleFact Fact `json:"sample_fact,omitempty" yaml:"sample_fact,omitempty" mapstructure:"sample_fact"`

	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty" mapstructure:"-"`
}

// EffectiveMode returns the flow mode, defaulting to draft.
func (f *Flow) EffectiveMode() Mode {
	if f.Mode == "" {
		return ModeDraft
	}
	return f.Mode
}

// Clone returns a deep copy of the flow's slices and maps.
// Action and node config maps are copied one level deep.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	out := *f
	if f.Nodes != nil {
		out.Nodes = make([]Node, len(f.Nodes))
		for i, n := range f.Nodes {
			n.Config = cloneConfig(n.Config)
			out.Nodes[i] = n
		}
	}
	if f.Branches != nil {
		out.Branches = make([]Branch, len(f.Branches))
		for i, b := range f.Branches {
			b.Actions = cloneActions(b.Actions)
			out.Branches[i] = b
		}
	}
	out.ElseActions = cloneActions(f.ElseActions)
	if f.FactSchema != nil {
		out.FactSchema = make(map[string]string, len(f.FactSchema))
		for k, v := range f.FactSchema {
			out.FactSchema[k] = v
		}
	}
	out.SampleFact = f.SampleFact.Clone()
	return &out
}

func cloneActions(in []Action) []Action {
	if in == nil {
		return nil
	}
	out := make([]Action, len(in))
	for i, a := range in {
		a.Config = cloneConfig(a.Config)
		out[i] = a
	}
	return out
}

func cloneConfig(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// UnmarshalJSON accepts scalar values of any JSON type for the condition value.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var raw struct {
		plain
		Value any `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node(raw.plain)
	n.Value = ""
	if raw.Value != nil {
		n.Value = FormatValue(raw.Value)
	}
	return nil
}

// UnmarshalYAML normalizes the condition value the same way as UnmarshalJSON.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	var raw struct {
		Value any `yaml:"value"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*n = Node(p)
	n.Value = ""
	if raw.Value != nil {
		n.Value = FormatValue(raw.Value)
	}
	return nil
}

// UnmarshalFlowJSON decodes a JSON flow document. Numbers in sample_fact and
// action config stay json.Number so large integers survive a round trip.
func UnmarshalFlowJSON(data []byte, flow *Flow) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(flow)
}
