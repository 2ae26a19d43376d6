package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// SetBaseProdDailyCommand changes the daily production of Site. Requires MANAGER_ROLE.
type SetBaseProdDailyCommand struct {
	Site   shared.Address
	Caller shared.Address
	Amount decimal.Decimal
}

func (c *SetBaseProdDailyCommand) OperationType() string    { return "set_prod_daily" }
func (c *SetBaseProdDailyCommand) OperationSubject() string { return string(c.Site) }

// SetFixedDestinationsCommand toggles where gangs at Site may prepare to move. Requires MANAGER_ROLE.
type SetFixedDestinationsCommand struct {
	Site         shared.Address
	Caller       shared.Address
	Destinations []shared.Address
	Enabled      bool
}

func (c *SetFixedDestinationsCommand) OperationType() string    { return "set_fixed_destinations" }
func (c *SetFixedDestinationsCommand) OperationSubject() string { return string(c.Site) }

// ManageSiteHandler handles the site administration commands
type ManageSiteHandler struct {
	world common.Directory
}

// NewManageSiteHandler creates a new ManageSiteHandler
func NewManageSiteHandler(world common.Directory) *ManageSiteHandler {
	return &ManageSiteHandler{world: world}
}

// Handle executes SetBaseProdDaily or SetFixedDestinations
func (h *ManageSiteHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	switch cmd := request.(type) {
	case *SetBaseProdDailyCommand:
		s, err := h.world.Site(cmd.Site)
		if err != nil {
			return nil, err
		}
		if err := s.SetBaseProdDaily(ctx, cmd.Caller, cmd.Amount); err != nil {
			return nil, fmt.Errorf("failed to set production of %s: %w", cmd.Site, err)
		}
		common.ReportSiteAfterCommit(ctx, s)
		return nil, nil

	case *SetFixedDestinationsCommand:
		s, err := h.world.Site(cmd.Site)
		if err != nil {
			return nil, err
		}
		if err := s.SetFixedDestinations(ctx, cmd.Caller, cmd.Destinations, cmd.Enabled); err != nil {
			return nil, fmt.Errorf("failed to set fixed destinations of %s: %w", cmd.Site, err)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("invalid request type: expected *SetBaseProdDailyCommand or *SetFixedDestinationsCommand")
	}
}
