package helpers

import (
	"context"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// MockLocator is a test double for ledger.Locator
type MockLocator struct {
	mu        sync.RWMutex
	locations map[shared.EntityRef]shared.Address
}

// NewMockLocator creates a locator where nothing is placed
func NewMockLocator() *MockLocator {
	return &MockLocator{locations: make(map[shared.EntityRef]shared.Address)}
}

// Place puts ref at location
func (m *MockLocator) Place(ref shared.EntityRef, location shared.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[ref] = location
}

// LocationOf implements ledger.Locator
func (m *MockLocator) LocationOf(_ context.Context, ref shared.EntityRef) (shared.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locations[ref], nil
}
