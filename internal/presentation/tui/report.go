package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/ruleflow/pkg/domain"
)

// ReportMarkdown formats a preflight report as a markdown document.
func ReportMarkdown(title string, report domain.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Preflight: %s\n\n", title)

	if report.Ready {
		sb.WriteString("**Ready.** No check failed.\n\n")
	} else {
		fmt.Fprintf(&sb, "**Not ready.** %d issue(s):\n\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Fprintf(&sb, "- %s\n", issue)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("| Check | Status | Detail |\n")
	sb.WriteString("|---|---|---|\n")
	for _, t := range report.Trace {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", t.Check, strings.ToUpper(string(t.Status)), cell(t.Detail))
	}
	return sb.String()
}

// RouteMarkdown formats a routing result.
func RouteMarkdown(route domain.RouteResult) string {
	var sb strings.Builder
	sb.WriteString("## Route\n\n")

	if route.Matched {
		label := route.Label
		if label == "" {
			label = fmt.Sprintf("Branch %d", route.Index+1)
		}
		fmt.Fprintf(&sb, "Matched **%s** (branch %d).\n\n", label, route.Index+1)
	} else {
		sb.WriteString("No branch matched: **else** actions selected.\n\n")
	}

	if len(route.Evaluations) > 0 {
		sb.WriteString("| # | Branch | Matched |\n")
		sb.WriteString("|---|---|---|\n")
		for i, ev := range route.Evaluations {
			fmt.Fprintf(&sb, "| %d | %s | %t |\n", i+1, cell(ev.Label), ev.Matched)
		}
		sb.WriteString("\n")
	}

	if len(route.Actions) == 0 {
		sb.WriteString("_No actions._\n")
		return sb.String()
	}
	sb.WriteString("Actions:\n\n")
	for _, a := range route.Actions {
		if a.Title != "" {
			fmt.Fprintf(&sb, "- `%s` %s\n", a.Type, a.Title)
		} else {
			fmt.Fprintf(&sb, "- `%s`\n", a.Type)
		}
	}
	return sb.String()
}

// SimulationMarkdown formats a full simulation record.
func SimulationMarkdown(sim *domain.Simulation) string {
	var sb strings.Builder
	title := sim.FlowID
	if title == "" {
		title = "(inline flow)"
	}
	sb.WriteString(ReportMarkdown(title, sim.Preflight))
	sb.WriteString("\n## Fact\n\n")
	if len(sim.Fact) == 0 {
		sb.WriteString("_Empty fact._\n")
	} else {
		keys := make([]string, 0, len(sim.Fact))
		for k := range sim.Fact {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "| %s | %s |\n", cell(k), cell(domain.FormatValue(sim.Fact[k])))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(RouteMarkdown(sim.Route))
	fmt.Fprintf(&sb, "\n_Simulation %s at %s_\n", sim.ID, sim.At.Format("2006-01-02 15:04:05 MST"))
	return sb.String()
}

// cell escapes pipes so values cannot break a table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
