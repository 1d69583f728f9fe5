package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a flow: its nodes in order,
// followed by the branch group and the else fallback.
// It applies semantic styling:
// - Trigger: ((Circle))
// - Condition: {Diamond}
// - Action: [[Subroutine]]
// When route is not nil, the branches it evaluated are styled as visited and
// the selected one (or the else fallback) as current.
func GenerateMermaid(flow *domain.Flow, route *domain.RouteResult) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if flow == nil {
		return sb.String()
	}

	prev := ""
	for i, node := range flow.Nodes {
		id := nodeID(i, node)

		opener, closer := "[", "]"
		label := node.Title
		switch node.Kind {
		case domain.NodeTrigger:
			opener, closer = "((", "))"
			label = firstNonEmpty(node.Event, label, "trigger")
		case domain.NodeCondition:
			opener, closer = "{", "}"
			label = conditionLabel(node.Condition())
		case domain.NodeAction:
			opener, closer = "[[", "]]"
			label = firstNonEmpty(node.Channel, label, "action")
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)

		if prev != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		}
		prev = id
	}

	if len(flow.Branches) == 0 && len(flow.ElseActions) == 0 {
		return sb.String()
	}

	sb.WriteString("    route{\"first match\"}\n")
	if prev != "" {
		fmt.Fprintf(&sb, "    %s --> route\n", prev)
	}
	for i, b := range flow.Branches {
		id := fmt.Sprintf("branch_%d", i)
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, escape(branchLabel(i, b)))
		fmt.Fprintf(&sb, "    route -- \"%s\" --> %s\n", escape(conditionLabel(b.Condition)), id)
	}
	if len(flow.ElseActions) > 0 {
		fmt.Fprintf(&sb, "    else_branch[\"%s\"]\n", escape("else: "+actionTypes(flow.ElseActions)))
		sb.WriteString("    route -. \"no match\" .-> else_branch\n")
	}

	if route != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for i := range route.Evaluations {
			if i == route.Index {
				continue
			}
			fmt.Fprintf(&sb, "    class branch_%d visited;\n", i)
		}
		switch {
		case route.Matched && route.Index >= 0:
			fmt.Fprintf(&sb, "    class branch_%d current;\n", route.Index)
		case len(flow.ElseActions) > 0:
			sb.WriteString("    class else_branch current;\n")
		}
	}

	return sb.String()
}

func nodeID(i int, n domain.Node) string {
	if n.ID == "" {
		return fmt.Sprintf("node_%d", i)
	}
	return "node_" + sanitizeMermaidID(n.ID)
}

func branchLabel(i int, b domain.Branch) string {
	label := b.Label
	if strings.TrimSpace(label) == "" {
		label = fmt.Sprintf("Branch %d", i+1)
	}
	if len(b.Actions) == 0 {
		return label
	}
	return label + ": " + actionTypes(b.Actions)
}

func conditionLabel(c domain.Condition) string {
	switch c.Operator {
	case domain.OpIsEmpty, domain.OpIsNotEmpty:
		return fmt.Sprintf("%s %s", c.Field, c.Operator)
	}
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value)
}

func actionTypes(actions []domain.Action) string {
	types := make([]string, len(actions))
	for i, a := range actions {
		types[i] = a.Type
	}
	return strings.Join(types, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// escape keeps labels inside Mermaid's double-quoted strings.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
