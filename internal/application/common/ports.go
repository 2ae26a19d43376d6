package common

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
	"github.com/andrescamacho/gangsim/internal/domain/town"
)

// Directory resolves the towns and sites of a world
type Directory interface {
	Town(addr shared.Address) (*town.Town, error)
	Site(addr shared.Address) (*site.Site, error)
	Sites() []*site.Site
}

// GangGraph moves gangs between locations, implemented by the location graph
type GangGraph interface {
	Move(ctx context.Context, caller shared.Address, ref shared.EntityRef, destination shared.Address) error
	Despawn(ctx context.Context, caller shared.Address, ref shared.EntityRef) error
	LocationOf(ctx context.Context, ref shared.EntityRef) (shared.Address, error)
}

// GangRegistry tracks gang ownership, implemented by the gang registry
type GangRegistry interface {
	shared.OwnershipOracle
	Transfer(ctx context.Context, caller shared.Address, ref shared.EntityRef, to shared.Address) error
	TokensOfOwner(owner shared.Address) []shared.EntityRef
}

// Balances reads the share ledger
type Balances interface {
	RedeemableAmount(ctx context.Context, owner shared.EntityRef, currency shared.Address) (decimal.Decimal, error)
	PoolBalance(ctx context.Context, currency shared.Address) (decimal.Decimal, error)
	SharesOf(owner shared.EntityRef, currency shared.Address) decimal.Decimal
}

// CurrencyLister lists every currency ever minted
type CurrencyLister interface {
	Currencies() []shared.Address
}
