// Package access holds the in-process role system.
package access

import (
	"context"
	"sort"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// RoleTable is an in-memory role registry implementing shared.RoleGate
type RoleTable struct {
	mu     sync.RWMutex
	grants map[shared.Role]map[shared.Address]bool
}

// NewRoleTable creates a table without grants
func NewRoleTable() *RoleTable {
	return &RoleTable{grants: make(map[shared.Role]map[shared.Address]bool)}
}

// Grant gives account every listed role
func (t *RoleTable) Grant(account shared.Address, roles ...shared.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range roles {
		if t.grants[r] == nil {
			t.grants[r] = make(map[shared.Address]bool)
		}
		t.grants[r][account] = true
	}
}

// Revoke removes role from account
func (t *RoleTable) Revoke(account shared.Address, role shared.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.grants[role], account)
}

// HasRole implements shared.RoleGate
func (t *RoleTable) HasRole(_ context.Context, account shared.Address, role shared.Role) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.grants[role][account]
}

// Members lists the accounts holding role, sorted
func (t *RoleTable) Members(role shared.Role) []shared.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members := make([]shared.Address, 0, len(t.grants[role]))
	for a := range t.grants[role] {
		members = append(members, a)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}
