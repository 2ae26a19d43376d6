package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
)

// GetAttackHistoryQuery represents a query for the resolved attacks of a site, most recent first
type GetAttackHistoryQuery struct {
	Site   shared.Address
	Limit  int
	Offset int
}

// GetAttackHistoryResponse represents the result of the query
type GetAttackHistoryResponse struct {
	Attacks []site.AttackRecord
	Total   int
}

// GetAttackHistoryHandler handles the GetAttackHistory query.
// It reads the persisted history when one is configured and the live log otherwise.
type GetAttackHistoryHandler struct {
	world   common.Directory
	history site.AttackHistory
}

// NewGetAttackHistoryHandler creates a new GetAttackHistoryHandler. history may be nil.
func NewGetAttackHistoryHandler(world common.Directory, history site.AttackHistory) *GetAttackHistoryHandler {
	return &GetAttackHistoryHandler{world: world, history: history}
}

// Handle executes the GetAttackHistory query
func (h *GetAttackHistoryHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetAttackHistoryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetAttackHistoryQuery")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	if h.history != nil {
		attacks, err := h.history.FindBySite(ctx, query.Site, limit, query.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to query attack history: %w", err)
		}
		total, err := h.history.CountBySite(ctx, query.Site)
		if err != nil {
			return nil, fmt.Errorf("failed to count attack history: %w", err)
		}
		return &GetAttackHistoryResponse{Attacks: attacks, Total: total}, nil
	}

	s, err := h.world.Site(query.Site)
	if err != nil {
		return nil, err
	}
	log := s.AttackLog()
	attacks := make([]site.AttackRecord, 0, limit)
	for i := len(log) - 1 - query.Offset; i >= 0 && len(attacks) < limit; i-- {
		attacks = append(attacks, log[i])
	}
	return &GetAttackHistoryResponse{Attacks: attacks, Total: len(log)}, nil
}
