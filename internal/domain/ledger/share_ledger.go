package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// DefaultBootstrapSharesPerUnit is the share price of an empty pool: 10^8 shares per base unit
var DefaultBootstrapSharesPerUnit = decimal.New(1, 8)

// pool tracks the shares of one currency.
// Σ shares == totalShares; emptied accounts stay in the map.
type pool struct {
	totalShares decimal.Decimal
	shares      map[shared.EntityRef]decimal.Decimal
}

// ShareLedger is a proportional-share custodial ledger.
//
// It holds fungible currencies on behalf of entities. Each entity owns shares of
// the ledger's live balance of a currency, so minting into or burning from that
// balance re-values every holder at once. Only the location an entity currently
// resides at may deposit or withdraw for it.
type ShareLedger struct {
	mu        sync.RWMutex
	address   shared.Address
	tokens    Tokens
	locator   Locator
	clock     shared.Clock
	bootstrap decimal.Decimal
	pools     map[shared.Address]*pool
	observers []TransactionObserver
}

// Option configures a ShareLedger
type Option func(*ShareLedger)

// WithBootstrapShares overrides the shares minted per base unit into an empty pool
func WithBootstrapShares(perUnit decimal.Decimal) Option {
	return func(l *ShareLedger) { l.bootstrap = perUnit }
}

// WithObserver registers a transaction observer
func WithObserver(o TransactionObserver) Option {
	return func(l *ShareLedger) { l.observers = append(l.observers, o) }
}

// NewShareLedger creates a ledger custodying balances at address
func NewShareLedger(address shared.Address, tokens Tokens, locator Locator, clock shared.Clock, opts ...Option) *ShareLedger {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	l := &ShareLedger{
		address:   address,
		tokens:    tokens,
		locator:   locator,
		clock:     clock,
		bootstrap: DefaultBootstrapSharesPerUnit,
		pools:     make(map[shared.Address]*pool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Address returns the account holding the pooled currency
func (l *ShareLedger) Address() shared.Address {
	return l.address
}

// AddObserver registers an observer after construction
func (l *ShareLedger) AddObserver(o TransactionObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Deposit moves amount from caller into the pool and mints shares for owner.
// caller must be the owner's current location.
func (l *ShareLedger) Deposit(ctx context.Context, caller shared.Address, owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := l.checkCaller(ctx, caller, owner); err != nil {
			return err
		}
		if !amount.IsPositive() {
			return shared.NewInvalidTransitionError("deposit amount must be positive, got %s", amount)
		}

		poolBalance, err := l.PoolBalance(ctx, currency)
		if err != nil {
			return err
		}
		before := l.redeemable(owner, currency, poolBalance)

		total := l.TotalShares(currency)
		var minted decimal.Decimal
		switch {
		case total.IsZero():
			minted = amount.Mul(l.bootstrap)
		case poolBalance.IsZero():
			return drainedPoolError(currency, total)
		default:
			minted = utils.MulDivFloor(amount, total, poolBalance)
		}

		if err := l.tokens.Transfer(ctx, currency, caller, l.address, amount); err != nil {
			return fmt.Errorf("deposit of %s %s for %s: %w", amount, currency, owner, err)
		}
		l.adjustShares(ctx, currency, owner, minted)

		after, err := l.RedeemableAmount(ctx, owner, currency)
		if err != nil {
			return err
		}
		return l.journal(ctx, annotationFrom(ctx, TransactionTypeDeposit), owner, currency, amount, minted, before, after)
	})
}

// Withdraw burns owner's shares worth amount (rounded up) and pays amount to caller.
// caller must be the owner's current location.
func (l *ShareLedger) Withdraw(ctx context.Context, caller shared.Address, owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := l.checkCaller(ctx, caller, owner); err != nil {
			return err
		}
		if !amount.IsPositive() {
			return shared.NewInvalidTransitionError("withdraw amount must be positive, got %s", amount)
		}

		poolBalance, err := l.PoolBalance(ctx, currency)
		if err != nil {
			return err
		}
		before := l.redeemable(owner, currency, poolBalance)
		if before.LessThan(amount) {
			return shared.NewInsufficientBalanceError("%s holds %s %s, cannot withdraw %s", owner, before, currency, amount)
		}

		burned := decimal.Min(
			utils.MulDivCeil(amount, l.TotalShares(currency), poolBalance),
			l.SharesOf(owner, currency),
		)
		l.adjustShares(ctx, currency, owner, burned.Neg())

		if err := l.tokens.Transfer(ctx, currency, l.address, caller, amount); err != nil {
			return fmt.Errorf("withdraw of %s %s for %s: %w", amount, currency, owner, err)
		}

		after, err := l.RedeemableAmount(ctx, owner, currency)
		if err != nil {
			return err
		}
		return l.journal(ctx, annotationFrom(ctx, TransactionTypeWithdrawal), owner, currency, amount.Neg(), burned.Neg(), before, after)
	})
}

// RedeemableAmount is floor(shares × poolBalance / totalShares), zero for empty accounts
func (l *ShareLedger) RedeemableAmount(ctx context.Context, owner shared.EntityRef, currency shared.Address) (decimal.Decimal, error) {
	poolBalance, err := l.PoolBalance(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return l.redeemable(owner, currency, poolBalance), nil
}

// ExchangeRate returns floor(totalShares / poolBalance), or the bootstrap rate
// while no shares are outstanding. A pool drained under outstanding shares has
// no rate.
func (l *ShareLedger) ExchangeRate(ctx context.Context, currency shared.Address) (decimal.Decimal, error) {
	poolBalance, err := l.PoolBalance(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	total := l.TotalShares(currency)
	if total.IsZero() {
		return l.bootstrap, nil
	}
	if poolBalance.IsZero() {
		return decimal.Zero, drainedPoolError(currency, total)
	}
	return utils.MulDivFloor(total, decimal.NewFromInt(1), poolBalance), nil
}

// PoolBalance is the live balance the ledger holds in currency
func (l *ShareLedger) PoolBalance(ctx context.Context, currency shared.Address) (decimal.Decimal, error) {
	balance, err := l.tokens.BalanceOf(ctx, currency, l.address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read pool balance of %s: %w", currency, err)
	}
	return balance, nil
}

// TotalShares returns the outstanding shares of currency
func (l *ShareLedger) TotalShares(currency shared.Address) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.pools[currency]; ok {
		return p.totalShares
	}
	return decimal.Zero
}

// SharesOf returns owner's shares of currency
func (l *ShareLedger) SharesOf(owner shared.EntityRef, currency shared.Address) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.pools[currency]; ok {
		return p.shares[owner]
	}
	return decimal.Zero
}

// Holders returns every entity that ever held shares of currency
func (l *ShareLedger) Holders(currency shared.Address) []shared.EntityRef {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pools[currency]
	if !ok {
		return nil
	}
	holders := make([]shared.EntityRef, 0, len(p.shares))
	for ref := range p.shares {
		holders = append(holders, ref)
	}
	return holders
}

func (l *ShareLedger) redeemable(owner shared.EntityRef, currency shared.Address, poolBalance decimal.Decimal) decimal.Decimal {
	total := l.TotalShares(currency)
	if total.IsZero() {
		return decimal.Zero
	}
	return utils.MulDivFloor(l.SharesOf(owner, currency), poolBalance, total)
}

func (l *ShareLedger) checkCaller(ctx context.Context, caller shared.Address, owner shared.EntityRef) error {
	location, err := l.locator.LocationOf(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to locate %s: %w", owner, err)
	}
	if location.IsZero() || location != caller {
		return shared.NewPermissionDeniedError("only the location of %s may move its balance", owner)
	}
	return nil
}

func drainedPoolError(currency shared.Address, total decimal.Decimal) error {
	return shared.NewArithmeticOverflowError("pool of %s is empty with %s shares outstanding", currency, total)
}

func (l *ShareLedger) adjustShares(ctx context.Context, currency shared.Address, owner shared.EntityRef, delta decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pools[currency]
	if !ok {
		p = &pool{shares: make(map[shared.EntityRef]decimal.Decimal)}
		l.pools[currency] = p
	}
	prevTotal, prevShares := p.totalShares, p.shares[owner]
	p.totalShares = prevTotal.Add(delta)
	p.shares[owner] = prevShares.Add(delta)

	shared.RecordUndo(ctx, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		p.totalShares = prevTotal
		p.shares[owner] = prevShares
	})
}

func (l *ShareLedger) journal(ctx context.Context, a Annotation, owner shared.EntityRef, currency shared.Address, amount, sharesDelta, before, after decimal.Decimal) error {
	tx, err := NewTransaction(TransactionParams{
		Owner:         owner,
		Currency:      currency,
		Timestamp:     l.clock.Now(),
		Type:          a.Type,
		Amount:        amount,
		SharesDelta:   sharesDelta,
		BalanceBefore: before,
		BalanceAfter:  after,
		Counterparty:  a.Counterparty,
		Description:   a.Description,
		Operation:     shared.OperationFromContext(ctx),
	})
	if err != nil {
		return err
	}

	l.mu.RLock()
	observers := append([]TransactionObserver(nil), l.observers...)
	l.mu.RUnlock()

	shared.AfterCommit(ctx, func(ctx context.Context) {
		for _, o := range observers {
			o.TransactionCommitted(ctx, tx)
		}
	})
	return nil
}
