package ports

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore
// implementation adheres to the interface contract.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	t.Helper()
	ctx := context.Background()
	flowID := "contract-flow-" + time.Now().Format("20060102150405")

	newFlow := func(id string) *domain.Flow {
		return &domain.Flow{
			ID:   id,
			Name: "Contract",
			Nodes: []domain.Node{
				{Kind: domain.NodeTrigger, Event: "order.created"},
			},
			Branches: []domain.Branch{{
				Label:     "VIP",
				Condition: domain.Condition{Field: "segment", Operator: domain.OpEquals, Value: "VIP"},
				Actions:   []domain.Action{{Type: "email", Title: "Coupon", Config: map[string]any{"template": "vip"}}},
			}},
			SampleFact: domain.Fact{"segment": "VIP", "order_id": int64(9007199254740993)},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		flow := newFlow(flowID)

		err := store.Save(ctx, flowID, flow)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, flow.ID, loaded.ID)
		assert.Equal(t, flow.Nodes, loaded.Nodes)
		require.Len(t, loaded.Branches, 1)
		assert.Equal(t, flow.Branches[0].Condition, loaded.Branches[0].Condition)
		assert.Equal(t, "vip", loaded.Branches[0].Actions[0].Config["template"])
		assert.Equal(t, "VIP", loaded.SampleFact["segment"])
		assert.Equal(t, "9007199254740993", domain.FormatValue(loaded.SampleFact["order_id"]), "large integers keep their precision")
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		loaded.Name = "mutated"
		loaded.Branches[0].Label = "mutated"

		again, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		assert.Equal(t, "Contract", again.Name)
		assert.Equal(t, "VIP", again.Branches[0].Label)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, flowID, newFlow(flowID))
		require.NoError(t, err)

		err = store.Delete(ctx, flowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")

		assert.NoError(t, store.Delete(ctx, flowID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := flowID + "-1"
		id2 := flowID + "-2"
		require.NoError(t, store.Save(ctx, id1, newFlow(id1)))
		require.NoError(t, store.Save(ctx, id2, newFlow(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		flows, err := store.List(ctx)
		require.NoError(t, err)
		sort.Strings(flows)
		assert.Contains(t, flows, id1)
		assert.Contains(t, flows, id2)
	})
}
