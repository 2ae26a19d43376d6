package helpers

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

type holding struct {
	owner shared.EntityRef
	asset shared.Address
}

// MockBalanceReader is a test double for boost.BalanceReader
type MockBalanceReader struct {
	mu       sync.RWMutex
	balances map[holding]decimal.Decimal
}

// NewMockBalanceReader creates a reader where every balance is zero
func NewMockBalanceReader() *MockBalanceReader {
	return &MockBalanceReader{balances: make(map[holding]decimal.Decimal)}
}

// Set fixes the redeemable balance of owner in currency
func (m *MockBalanceReader) Set(owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[holding{owner, currency}] = amount
}

// RedeemableAmount implements boost.BalanceReader
func (m *MockBalanceReader) RedeemableAmount(_ context.Context, owner shared.EntityRef, currency shared.Address) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[holding{owner, currency}], nil
}

// MockItemCustody is a test double for the non-fungible item custody collaborator
type MockItemCustody struct {
	mu     sync.RWMutex
	counts map[holding]int
}

// NewMockItemCustody creates a custody where every entity holds nothing
func NewMockItemCustody() *MockItemCustody {
	return &MockItemCustody{counts: make(map[holding]int)}
}

// Set fixes how many items of collection owner holds
func (m *MockItemCustody) Set(owner shared.EntityRef, collection shared.Address, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[holding{owner, collection}] = n
}

// ItemCount implements boost.ItemCustody
func (m *MockItemCustody) ItemCount(_ context.Context, owner shared.EntityRef, collection shared.Address) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[holding{owner, collection}], nil
}
