package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// ClaimResourcesCommand pays the pending production of Gang into the ledger
type ClaimResourcesCommand struct {
	Site   shared.Address
	Player shared.Address
	Gang   shared.EntityRef
}

func (c *ClaimResourcesCommand) OperationType() string    { return "claim" }
func (c *ClaimResourcesCommand) OperationSubject() string { return c.Gang.String() }

// ClaimResourcesResponse reports the claimed amount
type ClaimResourcesResponse struct {
	Gang     shared.EntityRef
	Resource shared.Address
	Claimed  decimal.Decimal
}

// ClaimResourcesHandler handles the ClaimResources command
type ClaimResourcesHandler struct {
	world    common.Directory
	balances common.Balances
}

// NewClaimResourcesHandler creates a new ClaimResourcesHandler
func NewClaimResourcesHandler(world common.Directory, balances common.Balances) *ClaimResourcesHandler {
	return &ClaimResourcesHandler{world: world, balances: balances}
}

// Handle executes the ClaimResources command
func (h *ClaimResourcesHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*ClaimResourcesCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ClaimResourcesCommand")
	}
	s, err := h.world.Site(cmd.Site)
	if err != nil {
		return nil, err
	}

	claimed, err := s.Claim(ctx, cmd.Player, cmd.Gang)
	if err != nil {
		return nil, fmt.Errorf("failed to claim for %s: %w", cmd.Gang, err)
	}
	resource := s.Config().Resource
	common.ReportSiteAfterCommit(ctx, s)
	common.ReportPoolAfterCommit(ctx, h.balances, resource)

	logging.LoggerFromContext(ctx).Log("DEBUG", "Resources claimed", map[string]interface{}{
		"gang":    cmd.Gang.String(),
		"site":    cmd.Site.String(),
		"claimed": claimed.String(),
	})
	return &ClaimResourcesResponse{Gang: cmd.Gang, Resource: resource, Claimed: claimed}, nil
}
