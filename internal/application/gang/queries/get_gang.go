package queries

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	sitequeries "github.com/andrescamacho/gangsim/internal/application/site/queries"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// GetGangQuery represents a query for one gang
type GetGangQuery struct {
	Gang shared.EntityRef
}

// BalanceDTO is the ledger position of a gang in one currency
type BalanceDTO struct {
	Currency shared.Address
	Amount   decimal.Decimal
	Shares   decimal.Decimal
}

// GangDTO represents a gang, where it is and what it holds
type GangDTO struct {
	Gang     shared.EntityRef
	Owner    shared.Address
	Location shared.Address
	Balances []BalanceDTO
	// Site is set while the gang is at a production site
	Site *sitequeries.ResidentDTO
}

// GangReader bundles what the gang queries read from the world
type GangReader struct {
	World      common.Directory
	Graph      common.GangGraph
	Registry   common.GangRegistry
	Balances   common.Balances
	Currencies common.CurrencyLister
}

func (r GangReader) describe(ctx context.Context, ref shared.EntityRef) (*GangDTO, error) {
	owner, err := r.Registry.OwnerOf(ctx, ref)
	if err != nil {
		return nil, err
	}
	loc, err := r.Graph.LocationOf(ctx, ref)
	if err != nil {
		return nil, err
	}

	dto := &GangDTO{Gang: ref, Owner: owner, Location: loc}
	for _, currency := range r.Currencies.Currencies() {
		amount, err := r.Balances.RedeemableAmount(ctx, ref, currency)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s balance of %s: %w", currency, ref, err)
		}
		shares := r.Balances.SharesOf(ref, currency)
		if amount.IsZero() && shares.IsZero() {
			continue
		}
		dto.Balances = append(dto.Balances, BalanceDTO{Currency: currency, Amount: amount, Shares: shares})
	}
	if s, err := r.World.Site(loc); err == nil {
		dto.Site = sitequeries.Resident(s, ref)
	}
	return dto, nil
}

// GetGangHandler handles the GetGang query
type GetGangHandler struct {
	reader GangReader
}

// NewGetGangHandler creates a new GetGangHandler
func NewGetGangHandler(reader GangReader) *GetGangHandler {
	return &GetGangHandler{reader: reader}
}

// Handle executes the GetGang query
func (h *GetGangHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetGangQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetGangQuery")
	}
	return h.reader.describe(ctx, query.Gang)
}
