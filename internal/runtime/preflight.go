package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// Check names, in the order they run.
const (
	CheckNodes        = "nodes"
	CheckEntry        = "entry"
	CheckTriggers     = "triggers"
	CheckConditions   = "conditions"
	CheckActions      = "actions"
	CheckNodeKinds    = "node_kinds"
	CheckBranches     = "branches"
	CheckLabels       = "labels"
	CheckShadowing    = "shadowing"
	CheckElse         = "else"
	CheckConfirmation = "confirmation"
)

// checkResult is what a single check contributes to the report.
type checkResult struct {
	status domain.CheckStatus
	detail string
	issues []string
}

type check struct {
	name string
	run  func(*domain.Flow) checkResult
}

var checks = []check{
	{CheckNodes, checkNodes},
	{CheckEntry, checkEntry},
	{CheckTriggers, checkTriggers},
	{CheckConditions, checkConditionNodes},
	{CheckActions, checkActionNodes},
	{CheckNodeKinds, checkNodeKinds},
	{CheckBranches, checkBranches},
	{CheckLabels, checkLabels},
	{CheckShadowing, checkShadowing},
	{CheckElse, checkElse},
	{CheckConfirmation, checkConfirmation},
}

// Preflight runs every structural check against flow and collects the
// findings. All checks run on every call so the author sees the whole list.
// It never mutates the flow.
func Preflight(flow *domain.Flow) domain.Report {
	if flow == nil {
		flow = &domain.Flow{}
	}

	report := domain.Report{
		Issues: []string{},
		Trace:  make([]domain.TraceEntry, 0, len(checks)),
	}
	for _, c := range checks {
		res := c.run(flow)
		report.Trace = append(report.Trace, domain.TraceEntry{
			Check:  c.name,
			Status: res.status,
			Detail: res.detail,
		})
		report.Issues = append(report.Issues, res.issues...)
	}
	report.Ready = len(report.Issues) == 0
	return report
}

func pass(detail string) checkResult {
	return checkResult{status: domain.StatusPass, detail: detail}
}

func warn(detail string) checkResult {
	return checkResult{status: domain.StatusWarn, detail: detail}
}

func fail(issues ...string) checkResult {
	return checkResult{status: domain.StatusFail, detail: strings.Join(issues, " "), issues: issues}
}

// nodeName identifies a node in messages by position, plus ID or title when set.
func nodeName(i int, n domain.Node) string {
	name := fmt.Sprintf("Node %d", i+1)
	switch {
	case n.ID != "":
		name += fmt.Sprintf(" (%s)", n.ID)
	case n.Title != "":
		name += fmt.Sprintf(" (%s)", n.Title)
	}
	return name
}

func branchName(i int, b domain.Branch) string {
	if strings.TrimSpace(b.Label) != "" {
		return fmt.Sprintf("Branch %q", b.Label)
	}
	return fmt.Sprintf("Branch %d", i+1)
}

func checkNodes(f *domain.Flow) checkResult {
	if len(f.Nodes) == 0 {
		return fail("Add at least one node to the flow.")
	}
	return pass(fmt.Sprintf("Flow has %d node(s).", len(f.Nodes)))
}

func checkEntry(f *domain.Flow) checkResult {
	if len(f.Nodes) == 0 || f.Nodes[0].Kind != domain.NodeTrigger {
		return fail("First node must be a trigger.")
	}
	return pass("Flow starts with a trigger.")
}

func checkTriggers(f *domain.Flow) checkResult {
	var issues []string
	count := 0
	for i, n := range f.Nodes {
		if n.Kind != domain.NodeTrigger {
			continue
		}
		count++
		if strings.TrimSpace(n.Event) == "" {
			issues = append(issues, fmt.Sprintf("%s: trigger needs an event.", nodeName(i, n)))
		}
	}
	if len(issues) > 0 {
		return fail(issues...)
	}
	return pass(fmt.Sprintf("%d trigger(s) have events.", count))
}

func checkConditionNodes(f *domain.Flow) checkResult {
	var issues, unknown []string
	count := 0
	for i, n := range f.Nodes {
		if n.Kind != domain.NodeCondition {
			continue
		}
		count++
		if strings.TrimSpace(n.Field) == "" || n.Operator == "" {
			issues = append(issues, fmt.Sprintf("%s: condition needs a field and an operator.", nodeName(i, n)))
			continue
		}
		if !n.Operator.Valid() {
			unknown = append(unknown, fmt.Sprintf("%s uses unknown operator %q and will never match.", nodeName(i, n), n.Operator))
		}
	}
	if len(issues) > 0 {
		return fail(issues...)
	}
	if len(unknown) > 0 {
		return warn(strings.Join(unknown, " "))
	}
	return pass(fmt.Sprintf("%d condition(s) are complete.", count))
}

func checkActionNodes(f *domain.Flow) checkResult {
	var issues []string
	count := 0
	for i, n := range f.Nodes {
		if n.Kind != domain.NodeAction {
			continue
		}
		count++
		if strings.TrimSpace(n.Channel) == "" {
			issues = append(issues, fmt.Sprintf("%s: action needs a channel.", nodeName(i, n)))
		}
	}
	if len(issues) > 0 {
		return fail(issues...)
	}
	return pass(fmt.Sprintf("%d action(s) have channels.", count))
}

func checkNodeKinds(f *domain.Flow) checkResult {
	var issues []string
	for i, n := range f.Nodes {
		if !n.Kind.Valid() {
			issues = append(issues, fmt.Sprintf("%s has unknown kind %q.", nodeName(i, n), n.Kind))
		}
	}
	if len(issues) > 0 {
		return fail(issues...)
	}
	return pass("All node kinds are recognized.")
}

func checkBranches(f *domain.Flow) checkResult {
	if len(f.Branches) == 0 {
		return fail("Define at least one branch.")
	}

	var issues, unknown []string
	for i, b := range f.Branches {
		name := branchName(i, b)
		if !b.Condition.Complete() {
			issues = append(issues, fmt.Sprintf("%s needs a complete condition.", name))
		} else if !b.Condition.Operator.Valid() {
			unknown = append(unknown, fmt.Sprintf("%s uses unknown operator %q and will never match.", name, b.Condition.Operator))
		}
		if len(b.Actions) == 0 {
			issues = append(issues, fmt.Sprintf("%s has no actions.", name))
		}
	}
	if len(issues) > 0 {
		return fail(issues...)
	}
	if len(unknown) > 0 {
		return warn(strings.Join(unknown, " "))
	}
	return pass(fmt.Sprintf("%d branch(es) are complete.", len(f.Branches)))
}

func checkLabels(f *domain.Flow) checkResult {
	seen := make(map[string]int, len(f.Branches))
	var issues []string
	for _, b := range f.Branches {
		label := strings.TrimSpace(b.Label)
		if label == "" {
			continue
		}
		seen[label]++
		if seen[label] == 2 {
			issues = append(issues, fmt.Sprintf("Duplicate branch label: %s", label))
		}
	}
	if len(issues) > 0 {
		return fail(issues...)
	}
	return pass("Branch labels are unique.")
}

// checkShadowing warns when a later branch repeats an earlier condition:
// with first-match-wins routing it can never be selected.
func checkShadowing(f *domain.Flow) checkResult {
	first := make(map[domain.Condition]int, len(f.Branches))
	var shadowed []string
	for i, b := range f.Branches {
		if !b.Condition.Complete() {
			continue
		}
		if j, ok := first[b.Condition]; ok {
			shadowed = append(shadowed, fmt.Sprintf("%s is shadowed by %s.", branchName(i, b), branchName(j, f.Branches[j])))
			continue
		}
		first[b.Condition] = i
	}
	if len(shadowed) > 0 {
		return warn(strings.Join(shadowed, " "))
	}
	return pass("No branch repeats an earlier condition.")
}

func checkElse(f *domain.Flow) checkResult {
	if len(f.ElseActions) == 0 {
		return warn("No else actions: facts matching no branch do nothing.")
	}
	return pass(fmt.Sprintf("%d else action(s) defined.", len(f.ElseActions)))
}

func checkConfirmation(f *domain.Flow) checkResult {
	if f.EffectiveMode() != domain.ModeProduction {
		return pass("Confirmation note not required in draft mode.")
	}
	if strings.TrimSpace(f.Note) == "" {
		return fail("Production mode requires a confirmation note.")
	}
	return pass("Confirmation note provided.")
}
