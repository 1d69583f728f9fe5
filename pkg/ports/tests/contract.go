package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/ports"
)

// FlowCatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.FlowCatalog.
// expected maps flow IDs to the number of branches each flow declares.
func FlowCatalogContractTest(t *testing.T, catalog ports.FlowCatalog, expected map[string]int) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetFlow_Success", func(t *testing.T) {
		for id, branches := range expected {
			flow, err := catalog.GetFlow(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting flow %s: %v", id, err)
			}
			if flow.ID != id {
				t.Errorf("flow ID mismatch: got %q, want %q", flow.ID, id)
			}
			if len(flow.Branches) != branches {
				t.Errorf("flow %s: got %d branches, want %d", id, len(flow.Branches), branches)
			}
		}
	})

	t.Run("GetFlow_NotFound", func(t *testing.T) {
		_, err := catalog.GetFlow(ctx, "non-existent-flow")
		if !errors.Is(err, domain.ErrFlowNotFound) {
			t.Errorf("expected ErrFlowNotFound, got %v", err)
		}
	})

	t.Run("ListFlows", func(t *testing.T) {
		ids, err := catalog.ListFlows(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing flows: %v", err)
		}
		if len(ids) != len(expected) {
			t.Errorf("expected %d flows, got %d (%v)", len(expected), len(ids), ids)
		}
		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range expected {
			if !lookup[id] {
				t.Errorf("flow %s missing from list", id)
			}
		}
	})
}
