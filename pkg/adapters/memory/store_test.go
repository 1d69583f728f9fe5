package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/ruleflow/pkg/adapters/memory"
	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunFlowStoreContract(t, store)
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	store := memory.NewStore()
	err := store.Save(context.Background(), "", &domain.Flow{})
	assert.ErrorIs(t, err, domain.ErrInvalidFlowID)
}
