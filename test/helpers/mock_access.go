package helpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// MockRoleGate is a test double for shared.RoleGate
type MockRoleGate struct {
	mu    sync.RWMutex
	roles map[shared.Address]map[shared.Role]bool
}

// NewMockRoleGate creates a role gate with no grants
func NewMockRoleGate() *MockRoleGate {
	return &MockRoleGate{roles: make(map[shared.Address]map[shared.Role]bool)}
}

// Grant gives account every listed role
func (m *MockRoleGate) Grant(account shared.Address, roles ...shared.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roles[account] == nil {
		m.roles[account] = make(map[shared.Role]bool)
	}
	for _, r := range roles {
		m.roles[account][r] = true
	}
}

// HasRole implements shared.RoleGate
func (m *MockRoleGate) HasRole(_ context.Context, account shared.Address, role shared.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roles[account][role]
}

// MockOwnershipOracle is a test double for shared.OwnershipOracle
type MockOwnershipOracle struct {
	mu     sync.RWMutex
	owners map[shared.EntityRef]shared.Address
}

// NewMockOwnershipOracle creates an oracle that knows no entities
func NewMockOwnershipOracle() *MockOwnershipOracle {
	return &MockOwnershipOracle{owners: make(map[shared.EntityRef]shared.Address)}
}

// SetOwner records owner as the owner of ref
func (m *MockOwnershipOracle) SetOwner(ref shared.EntityRef, owner shared.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[ref] = owner
}

// OwnerOf implements shared.OwnershipOracle
func (m *MockOwnershipOracle) OwnerOf(_ context.Context, ref shared.EntityRef) (shared.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[ref]
	if !ok {
		return shared.ZeroAddress, fmt.Errorf("entity not found: %s", ref)
	}
	return owner, nil
}
