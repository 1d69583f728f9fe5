package runtime

import "github.com/aretw0/ruleflow/pkg/domain"

// Route walks branches in order and returns the first one whose condition
// matches fact. When none match, the result carries elseActions.
// Branch order is the only precedence: overlapping conditions are not detected here.
func Route(branches []domain.Branch, elseActions []domain.Action, fact domain.Fact) domain.RouteResult {
	evaluations := make([]domain.BranchEvaluation, 0, len(branches))

	for i, b := range branches {
		matched := Evaluate(b.Condition, fact)
		evaluations = append(evaluations, domain.BranchEvaluation{Label: b.Label, Matched: matched})
		if matched {
			return domain.RouteResult{
				Matched:     true,
				Label:       b.Label,
				Index:       i,
				Actions:     nonNil(b.Actions),
				Evaluations: evaluations,
			}
		}
	}

	return domain.RouteResult{
		Matched:     false,
		Index:       -1,
		Actions:     nonNil(elseActions),
		Evaluations: evaluations,
	}
}

// RouteFlow routes fact through the branch group of flow.
func RouteFlow(flow *domain.Flow, fact domain.Fact) domain.RouteResult {
	if flow == nil {
		return Route(nil, nil, fact)
	}
	return Route(flow.Branches, flow.ElseActions, fact)
}

func nonNil(actions []domain.Action) []domain.Action {
	if actions == nil {
		return []domain.Action{}
	}
	return actions
}
