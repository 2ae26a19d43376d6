// Package token provides an in-memory multi-currency bank used as the fungible
// currency collaborator of the simulation.
package token

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// Bank keeps balances per (currency, account).
// Every mutation records its inverse in the operation journal.
type Bank struct {
	mu       sync.RWMutex
	balances map[shared.Address]map[shared.Address]decimal.Decimal
	supply   map[shared.Address]decimal.Decimal
}

// NewBank creates an empty bank
func NewBank() *Bank {
	return &Bank{
		balances: make(map[shared.Address]map[shared.Address]decimal.Decimal),
		supply:   make(map[shared.Address]decimal.Decimal),
	}
}

// BalanceOf implements ledger.Tokens
func (b *Bank) BalanceOf(_ context.Context, currency, account shared.Address) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[currency][account], nil
}

// Transfer implements ledger.Tokens
func (b *Bank) Transfer(ctx context.Context, currency, from, to shared.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewInvalidTransitionError("transfer amount must not be negative, got %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if have := b.balances[currency][from]; have.LessThan(amount) {
		return shared.NewInsufficientBalanceError("%s holds %s %s, needs %s", from, have, currency, amount)
	}
	b.credit(ctx, currency, from, amount.Neg())
	b.credit(ctx, currency, to, amount)
	return nil
}

// Mint implements ledger.MintBurner
func (b *Bank) Mint(ctx context.Context, currency, to shared.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewInvalidTransitionError("mint amount must not be negative, got %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.credit(ctx, currency, to, amount)
	b.adjustSupply(ctx, currency, amount)
	return nil
}

// Burn implements ledger.MintBurner
func (b *Bank) Burn(ctx context.Context, currency, from shared.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewInvalidTransitionError("burn amount must not be negative, got %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if have := b.balances[currency][from]; have.LessThan(amount) {
		return shared.NewInsufficientBalanceError("%s holds %s %s, cannot burn %s", from, have, currency, amount)
	}
	b.credit(ctx, currency, from, amount.Neg())
	b.adjustSupply(ctx, currency, amount.Neg())
	return nil
}

// TotalSupply returns the outstanding supply of currency
func (b *Bank) TotalSupply(currency shared.Address) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.supply[currency]
}

// Currencies lists every currency the bank has seen, sorted
func (b *Bank) Currencies() []shared.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]shared.Address, 0, len(b.balances))
	for c := range b.balances {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// credit must be called with the write lock held
func (b *Bank) credit(ctx context.Context, currency, account shared.Address, delta decimal.Decimal) {
	accounts, ok := b.balances[currency]
	if !ok {
		accounts = make(map[shared.Address]decimal.Decimal)
		b.balances[currency] = accounts
	}
	prev := accounts[account]
	accounts[account] = prev.Add(delta)
	shared.RecordUndo(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		accounts[account] = prev
	})
}

// adjustSupply must be called with the write lock held
func (b *Bank) adjustSupply(ctx context.Context, currency shared.Address, delta decimal.Decimal) {
	prev := b.supply[currency]
	b.supply[currency] = prev.Add(delta)
	shared.RecordUndo(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.supply[currency] = prev
	})
}
