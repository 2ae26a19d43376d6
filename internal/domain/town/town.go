// Package town implements the town square: the location gangs are spawned at
// and where players move currency in and out of the share ledger.
package town

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/location"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// GangMinter mints a gang and spawns it at a location
type GangMinter interface {
	Mint(ctx context.Context, caller, to, loc shared.Address) (shared.EntityRef, error)
}

// Custody is the part of the share ledger the town moves balances through
type Custody interface {
	Deposit(ctx context.Context, caller shared.Address, owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) error
	Withdraw(ctx context.Context, caller shared.Address, owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) error
}

// Wallets moves player funds
type Wallets interface {
	Transfer(ctx context.Context, currency, from, to shared.Address, amount decimal.Decimal) error
}

// Dependencies are the collaborators of the town
type Dependencies struct {
	Gangs   GangMinter
	Owners  shared.OwnershipOracle
	Roles   shared.RoleGate
	Custody Custody
	Wallets Wallets
}

// Town is a location that mints gangs and custodies player deposits
type Town struct {
	*location.Base

	mu         sync.RWMutex
	deps       Dependencies
	currencies map[shared.Address]bool
}

// NewTown creates a town at address driven by the graph at graphAddress
func NewTown(address, graphAddress shared.Address, deps Dependencies) (*Town, error) {
	if deps.Gangs == nil || deps.Owners == nil || deps.Custody == nil || deps.Wallets == nil {
		return nil, fmt.Errorf("town %s: gangs, owners, custody and wallets are required", address)
	}
	return &Town{
		Base:       location.NewBase(address, graphAddress, deps.Roles),
		deps:       deps,
		currencies: make(map[shared.Address]bool),
	}, nil
}

// SpawnGang mints a gang for player and spawns it here.
// The town must hold MINTER_ROLE on the gang registry.
func (t *Town) SpawnGang(ctx context.Context, player shared.Address) (shared.EntityRef, error) {
	if player.IsZero() {
		return shared.EntityRef{}, shared.NewInvalidTransitionError("player address must not be empty")
	}
	return t.deps.Gangs.Mint(ctx, t.Address(), player, t.Address())
}

// SetCurrencies toggles the currencies players may deposit. Requires MANAGER_ROLE.
func (t *Town) SetCurrencies(ctx context.Context, caller shared.Address, currencies []shared.Address, enabled bool) error {
	if err := shared.RequireRole(ctx, t.deps.Roles, caller, shared.RoleManager); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range currencies {
		prev := t.currencies[c]
		if enabled {
			t.currencies[c] = true
		} else {
			delete(t.currencies, c)
		}
		c := c
		shared.RecordUndo(ctx, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if prev {
				t.currencies[c] = true
			} else {
				delete(t.currencies, c)
			}
		})
	}
	return nil
}

// Currencies lists accepted currencies, sorted
func (t *Town) Currencies() []shared.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]shared.Address, 0, len(t.currencies))
	for c := range t.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AcceptsCurrency reports whether players may deposit currency
func (t *Town) AcceptsCurrency(currency shared.Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currencies[currency]
}

// DepositCurrency moves amount from player into the share ledger for gang.
// player must own gang and gang must be in town.
func (t *Town) DepositCurrency(ctx context.Context, player shared.Address, gang shared.EntityRef, currency shared.Address, amount decimal.Decimal) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := t.checkPlayer(ctx, player, gang, currency); err != nil {
			return err
		}
		if err := t.deps.Wallets.Transfer(ctx, currency, player, t.Address(), amount); err != nil {
			return fmt.Errorf("failed to collect %s %s from %s: %w", amount, currency, player, err)
		}
		return t.deps.Custody.Deposit(ctx, t.Address(), gang, currency, amount)
	})
}

// WithdrawCurrency pays amount of gang's ledger balance out to player.
// player must own gang and gang must be in town.
func (t *Town) WithdrawCurrency(ctx context.Context, player shared.Address, gang shared.EntityRef, currency shared.Address, amount decimal.Decimal) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := t.checkPlayer(ctx, player, gang, currency); err != nil {
			return err
		}
		if err := t.deps.Custody.Withdraw(ctx, t.Address(), gang, currency, amount); err != nil {
			return err
		}
		if err := t.deps.Wallets.Transfer(ctx, currency, t.Address(), player, amount); err != nil {
			return fmt.Errorf("failed to pay %s %s to %s: %w", amount, currency, player, err)
		}
		return nil
	})
}

func (t *Town) checkPlayer(ctx context.Context, player shared.Address, gang shared.EntityRef, currency shared.Address) error {
	if err := shared.RequireOwner(ctx, t.deps.Owners, player, gang); err != nil {
		return err
	}
	if !t.AcceptsCurrency(currency) {
		return shared.NewInvalidTransitionError("%s does not accept %s", t.Address(), currency)
	}
	return nil
}
