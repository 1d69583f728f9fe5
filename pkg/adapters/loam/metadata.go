package loam

// FlowMetadata is the front matter (or whole JSON/YAML document) of a flow file.
// It uses "mapstructure" tags to match the keys Loam decodes.
type FlowMetadata struct {
	ID          string           `json:"id" mapstructure:"id"`
	Name        string           `json:"name" mapstructure:"name"`
	Mode        string           `json:"mode" mapstructure:"mode"`
	Note        string           `json:"note" mapstructure:"note"`
	Nodes       []NodeMetadata   `json:"nodes" mapstructure:"nodes"`
	Branches    []BranchMetadata `json:"branches" mapstructure:"branches"`
	ElseActions []ActionMetadata `json:"else_actions" mapstructure:"else_actions"`
	FactSchema  map[string]any   `json:"fact_schema" mapstructure:"fact_schema"`
	SampleFact  map[string]any   `json:"sample_fact" mapstructure:"sample_fact"`
}

type NodeMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Kind  string `json:"kind" mapstructure:"kind"`
	Title string `json:"title" mapstructure:"title"`

	// Trigger
	Event string `json:"event" mapstructure:"event"`

	// Condition; Value may be any scalar (numbers arrive as json.Number in strict mode).
	Field    string `json:"field" mapstructure:"field"`
	Operator string `json:"operator" mapstructure:"operator"`
	Value    any    `json:"value" mapstructure:"value"`

	// Action
	Channel string         `json:"channel" mapstructure:"channel"`
	Config  map[string]any `json:"config" mapstructure:"config"`
}

type ConditionMetadata struct {
	Field    string `json:"field" mapstructure:"field"`
	Operator string `json:"operator" mapstructure:"operator"`
	Value    any    `json:"value" mapstructure:"value"`
}

type BranchMetadata struct {
	Label     string            `json:"label" mapstructure:"label"`
	Condition ConditionMetadata `json:"condition" mapstructure:"condition"`
	// When is shorthand for condition.
	When    *ConditionMetadata `json:"when" mapstructure:"when"`
	Actions []ActionMetadata   `json:"actions" mapstructure:"actions"`
}

type ActionMetadata struct {
	Type  string `json:"type" mapstructure:"type"`
	Title string `json:"title" mapstructure:"title"`
	// Channel is accepted as an alias for Type.
	Channel string         `json:"channel" mapstructure:"channel"`
	Config  map[string]any `json:"config" mapstructure:"config"`
}
