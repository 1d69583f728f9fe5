package tui_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ruleflow/internal/presentation/tui"
	"github.com/aretw0/ruleflow/internal/runtime"
	"github.com/aretw0/ruleflow/pkg/domain"
)

func TestReportMarkdown(t *testing.T) {
	report := runtime.Preflight(&domain.Flow{Mode: domain.ModeProduction})
	md := tui.ReportMarkdown("draft-1", report)

	assert.Contains(t, md, "# Preflight: draft-1")
	assert.Contains(t, md, "**Not ready.** 4 issue(s):")
	assert.Contains(t, md, "- Add at least one node to the flow.")
	assert.Contains(t, md, "| confirmation | FAIL | Production mode requires a confirmation note. |")
	assert.Contains(t, md, "| else | WARN |")
	assert.Equal(t, len(report.Trace)+1, strings.Count(md, "\n| "), "one row per check plus the header")
}

func TestRouteMarkdown(t *testing.T) {
	matched := tui.RouteMarkdown(domain.RouteResult{
		Matched: true, Label: "VIP", Index: 0,
		Actions:     []domain.Action{{Type: "email", Title: "Coupon"}},
		Evaluations: []domain.BranchEvaluation{{Label: "VIP", Matched: true}},
	})
	assert.Contains(t, matched, "Matched **VIP** (branch 1).")
	assert.Contains(t, matched, "- `email` Coupon")

	unmatched := tui.RouteMarkdown(domain.RouteResult{Index: -1})
	assert.Contains(t, unmatched, "**else** actions selected")
	assert.Contains(t, unmatched, "_No actions._")
}

func TestSimulationMarkdown(t *testing.T) {
	sim := &domain.Simulation{
		ID:   "sim-1",
		At:   time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		Fact: domain.Fact{"segment": "a|b", "cart_value": 12.5},
		Route: domain.RouteResult{
			Index:   -1,
			Actions: []domain.Action{{Type: "push"}},
		},
	}
	md := tui.SimulationMarkdown(sim)

	assert.Contains(t, md, "# Preflight: (inline flow)")
	assert.Contains(t, md, "| cart_value | 12.5 |")
	assert.Contains(t, md, `| segment | a\|b |`)
	assert.Contains(t, md, "- `push`")
	assert.Contains(t, md, "_Simulation sim-1 at 2026-05-01 09:30:00 UTC_")
	assert.Less(t, strings.Index(md, "cart_value"), strings.Index(md, "segment"))
}

func TestRenderer_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))

	out, err := tui.NewRenderer(&buf)("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)

	require.NoError(t, tui.Print(&buf, "plain *markdown*"))
	assert.Equal(t, "plain *markdown*", buf.String())
}

func TestBadges_NoColorOutsideTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, "PASS", tui.StatusBadge(&buf, domain.StatusPass))
	assert.Equal(t, "WARN", tui.StatusBadge(&buf, domain.StatusWarn))
	assert.Equal(t, "FAIL", tui.StatusBadge(&buf, domain.StatusFail))

	assert.Equal(t, "Not ready: 1 issue(s)", tui.ReadyLine(&buf, domain.Report{Issues: []string{"x"}}))
	warned := domain.Report{Ready: true, Trace: []domain.TraceEntry{{Status: domain.StatusWarn, Detail: "w"}}}
	assert.Equal(t, "Ready with 1 warning(s)", tui.ReadyLine(&buf, warned))

	tui.PrintBanner(&buf, "0.1.0")
	assert.Contains(t, buf.String(), "v0.1.0")
	assert.NotContains(t, buf.String(), "\x1b[")
}
