package boost

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// Category names a boosted quantity
type Category string

const (
	CategoryGangPull      Category = "BOOSTER_GANG_PULL"
	CategoryGangPower     Category = "BOOSTER_GANG_POWER"
	CategoryGangProdDaily Category = "BOOSTER_GANG_PROD_DAILY"
)

// Modifier contributes a value for a target entity.
// Additive modifiers return amounts; multiplicative modifiers return basis points.
type Modifier interface {
	ID() string
	Value(ctx context.Context, target shared.EntityRef) (decimal.Decimal, error)
}

// BalanceReader exposes custodial balances, implemented by the share ledger
type BalanceReader interface {
	RedeemableAmount(ctx context.Context, owner shared.EntityRef, currency shared.Address) (decimal.Decimal, error)
}

// ItemCustody exposes non-fungible item holdings per entity
type ItemCustody interface {
	ItemCount(ctx context.Context, owner shared.EntityRef, collection shared.Address) (int, error)
}

// Constant always yields the same value
type Constant struct {
	Name   string
	Amount decimal.Decimal
}

func (c Constant) ID() string { return "constant:" + c.Name }

func (c Constant) Value(context.Context, shared.EntityRef) (decimal.Decimal, error) {
	return c.Amount, nil
}

// StoredBalance yields the target's redeemable ledger balance scaled by basis points
type StoredBalance struct {
	Ledger   BalanceReader
	Currency shared.Address
	Bps      decimal.Decimal
}

func (s StoredBalance) ID() string {
	return fmt.Sprintf("stored-balance:%s:%s", s.Currency, s.Bps)
}

func (s StoredBalance) Value(ctx context.Context, target shared.EntityRef) (decimal.Decimal, error) {
	balance, err := s.Ledger.RedeemableAmount(ctx, target, s.Currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read %s balance of %s: %w", s.Currency, target, err)
	}
	return utils.MulDivFloor(balance, s.Bps, utils.BPS), nil
}

// ItemCount yields Base + PerItem for every item of Collection the target holds.
// As a multiplicative modifier Base is usually 10000 (x1.0).
type ItemCount struct {
	Custody    ItemCustody
	Collection shared.Address
	Base       decimal.Decimal
	PerItem    decimal.Decimal
}

func (i ItemCount) ID() string {
	return fmt.Sprintf("item-count:%s:%s:%s", i.Collection, i.Base, i.PerItem)
}

func (i ItemCount) Value(ctx context.Context, target shared.EntityRef) (decimal.Decimal, error) {
	n, err := i.Custody.ItemCount(ctx, target, i.Collection)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to count %s items of %s: %w", i.Collection, target, err)
	}
	return i.Base.Add(i.PerItem.Mul(decimal.NewFromInt(int64(n)))), nil
}

// ModifierFunc adapts a function into a named Modifier
type ModifierFunc struct {
	Name string
	Fn   func(ctx context.Context, target shared.EntityRef) (decimal.Decimal, error)
}

func (f ModifierFunc) ID() string { return "func:" + f.Name }

func (f ModifierFunc) Value(ctx context.Context, target shared.EntityRef) (decimal.Decimal, error) {
	return f.Fn(ctx, target)
}
