package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/pkg/domain"
)

const cartYAML = `id: cart
name: Cart recovery
nodes:
  - kind: trigger
    event: cart_abandoned
branches:
  - label: VIP
    condition: {field: segment, operator: equals, value: VIP}
    actions: [{type: email, title: VIP coupon}]
  - label: Big cart
    condition: {field: cart_value, operator: ">", value: 100}
    actions: [{type: sms}]
else_actions: [{type: push}]
sample_fact:
  segment: new
  cart_value: 180
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "ruleflow version "+ruleflow.Version+"\n", out)
}

func TestEval(t *testing.T) {
	out, _, err := run(t, "", "eval", "--field", "cart_value", "--operator", "gt", "--value", "100", "--fact", `{"cart_value": 180}`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, _, err = run(t, `{"email": "ana@example.com"}`, "eval", "-f", "email", "-o", "contains", "-v", "EXAMPLE", "--fact", "@-", "--json")
	require.NoError(t, err)
	var res struct {
		Matched bool `json:"matched"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Matched)

	_, errOut, err := run(t, "", "eval", "-f", "x", "-o", "between")
	require.NoError(t, err)
	assert.Contains(t, errOut, `unknown operator "between"`)

	_, _, err = run(t, "", "eval", "-f", "x", "--fact", `{"x": {"nested": true}}`)
	assert.ErrorIs(t, err, domain.ErrFactNotFlat)
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "cart.yaml", cartYAML)
	bad := writeFile(t, dir, "bad.json", `{"id": "bad", "mode": "production"}`)

	out, errOut, err := run(t, "", "preflight", good)
	require.NoError(t, err)
	assert.Contains(t, out, "# Preflight: cart")
	assert.Contains(t, out, "**Ready.**")
	assert.Contains(t, errOut, "Ready")

	out, _, err = run(t, "", "preflight", bad, "--json")
	require.NoError(t, err)
	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Ready)
	assert.Contains(t, report.Issues, "Production mode requires a confirmation note.")

	_, _, err = run(t, "", "preflight", bad, "--strict")
	assert.ErrorIs(t, err, errNotReady)
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cart.yaml", cartYAML)

	out, _, err := run(t, "", "simulate", path, "--json")
	require.NoError(t, err)
	var sim domain.Simulation
	require.NoError(t, json.Unmarshal([]byte(out), &sim))
	assert.Equal(t, "Big cart", sim.Route.Label)

	out, _, err = run(t, "", "simulate", path, "--fact", `{"segment": "VIP"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Matched **VIP** (branch 1).")
	assert.Contains(t, out, "- `email` VIP coupon")

	out, _, err = run(t, cartYAML, "simulate", "-", "--fact", `{}`, "--graph")
	require.NoError(t, err)
	assert.Contains(t, out, "class else_branch current;")

	typed := writeFile(t, dir, "typed.json", `{"id": "typed", "fact_schema": {"x": "decimal"}}`)
	_, _, err = run(t, "", "simulate", typed, "--fact", `{"x": 1}`)
	assert.ErrorIs(t, err, domain.ErrInvalidFactSchema)
}

func TestFlowsLifecycle(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "cart.yaml", cartYAML)
	store := []string{"--store", "file", "--store-path", filepath.Join(dir, "store")}
	with := func(args ...string) []string { return append(args, store...) }

	out, _, err := run(t, "", with("flows", "import", src)...)
	require.NoError(t, err)
	assert.Contains(t, out, ">>> Imported 'cart'.")

	out, _, err = run(t, "", with("flows", "list")...)
	require.NoError(t, err)
	assert.Equal(t, "cart\n", out)

	out, _, err = run(t, "", with("flows", "show", "cart")...)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Cart recovery")

	exported := filepath.Join(dir, "out.json")
	_, _, err = run(t, "", with("flows", "export", "cart", "-o", exported)...)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	flow, err := ruleflow.DecodeFlow(data, ruleflow.FormatJSON)
	require.NoError(t, err)
	assert.Len(t, flow.Branches, 2)

	out, _, err = run(t, "", with("simulate", "cart", "--json")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"flow_id": "cart"`)

	out, _, err = run(t, "", with("flows", "graph", "cart")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))

	_, _, err = run(t, "", with("flows", "delete", "cart")...)
	require.NoError(t, err)

	_, _, err = run(t, "", with("flows", "show", "cart")...)
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestCatalogFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "welcome.yaml", `id: welcome
nodes:
  - kind: trigger
    event: signup
branches:
  - label: All
    condition: {field: email, operator: is not empty}
    actions: [{type: email}]
`)

	out, _, err := run(t, "", "flows", "list", "--catalog", dir)
	require.NoError(t, err)
	assert.Equal(t, "welcome\n", out)
}

func TestInvalidStoreFlag(t *testing.T) {
	_, _, err := run(t, "", "flows", "list", "--store", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}
