// Package custody holds the in-memory non-fungible item custody.
package custody

import (
	"context"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

type holding struct {
	owner      shared.EntityRef
	collection shared.Address
}

// ItemVault counts the items each entity holds per collection
type ItemVault struct {
	mu     sync.RWMutex
	counts map[holding]int
}

// NewItemVault creates an empty vault
func NewItemVault() *ItemVault {
	return &ItemVault{counts: make(map[holding]int)}
}

// Add changes owner's item count by delta. Counts never drop below zero.
func (v *ItemVault) Add(ctx context.Context, owner shared.EntityRef, collection shared.Address, delta int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := holding{owner, collection}
	prev := v.counts[key]
	if prev+delta < 0 {
		return shared.NewInsufficientBalanceError("%s holds %d items of %s, cannot remove %d", owner, prev, collection, -delta)
	}
	v.counts[key] = prev + delta
	shared.RecordUndo(ctx, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.counts[key] = prev
	})
	return nil
}

// ItemCount implements boost.ItemCustody
func (v *ItemVault) ItemCount(_ context.Context, owner shared.EntityRef, collection shared.Address) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.counts[holding{owner, collection}], nil
}
