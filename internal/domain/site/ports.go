package site

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/boost"
	"github.com/andrescamacho/gangsim/internal/domain/roller"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// RandomSource exposes the random word history. A word for tick t becomes
// available at some point after t is the current tick and never changes afterward.
type RandomSource interface {
	CurrentTick(ctx context.Context) uint64
	RandomWordFor(ctx context.Context, tick uint64) (roller.Seed, bool)
}

// Booster computes boosted per-gang values
type Booster interface {
	BoostedValue(ctx context.Context, base decimal.Decimal, category boost.Category, target shared.EntityRef) (decimal.Decimal, error)
}

// Custody is the part of the share ledger a site moves balances through
type Custody interface {
	Deposit(ctx context.Context, caller shared.Address, owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) error
	Withdraw(ctx context.Context, caller shared.Address, owner shared.EntityRef, currency shared.Address, amount decimal.Decimal) error
	RedeemableAmount(ctx context.Context, owner shared.EntityRef, currency shared.Address) (decimal.Decimal, error)
}

// Dependencies are the collaborators a site calls out to
type Dependencies struct {
	Owners  shared.OwnershipOracle
	Roles   shared.RoleGate
	Custody Custody
	Supply  SupplyController
	Boosts  Booster
	RNG     RandomSource
	Clock   shared.Clock
}

// SupplyController mints production and burns attack costs
type SupplyController interface {
	Mint(ctx context.Context, currency, to shared.Address, amount decimal.Decimal) error
	Burn(ctx context.Context, currency, from shared.Address, amount decimal.Decimal) error
}

// AttackHistory persists resolved attacks
type AttackHistory interface {
	// Record stores the attack at position index of the site's log
	Record(ctx context.Context, site shared.Address, index int, rec AttackRecord, op *shared.OperationContext) error

	// FindBySite returns the site's attacks, most recent first
	FindBySite(ctx context.Context, site shared.Address, limit, offset int) ([]AttackRecord, error)

	// CountBySite returns how many attacks the site recorded
	CountBySite(ctx context.Context, site shared.Address) (int, error)
}
