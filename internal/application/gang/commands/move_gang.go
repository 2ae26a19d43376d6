package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// MoveGangCommand moves Gang to Destination on behalf of its owner
type MoveGangCommand struct {
	Player      shared.Address
	Gang        shared.EntityRef
	Destination shared.Address
}

func (c *MoveGangCommand) OperationType() string    { return "move" }
func (c *MoveGangCommand) OperationSubject() string { return c.Gang.String() }

// DespawnGangCommand removes Gang from the world
type DespawnGangCommand struct {
	Player shared.Address
	Gang   shared.EntityRef
}

func (c *DespawnGangCommand) OperationType() string    { return "despawn" }
func (c *DespawnGangCommand) OperationSubject() string { return c.Gang.String() }

// MoveGangResponse reports where the gang came from and where it is now
type MoveGangResponse struct {
	Gang shared.EntityRef
	From shared.Address
	To   shared.Address
}

// MoveGangHandler handles the MoveGang and DespawnGang commands
type MoveGangHandler struct {
	graph common.GangGraph
}

// NewMoveGangHandler creates a new MoveGangHandler
func NewMoveGangHandler(graph common.GangGraph) *MoveGangHandler {
	return &MoveGangHandler{graph: graph}
}

// Handle executes MoveGang or DespawnGang
func (h *MoveGangHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	var (
		player shared.Address
		gang   shared.EntityRef
		to     shared.Address
	)
	switch cmd := request.(type) {
	case *MoveGangCommand:
		player, gang, to = cmd.Player, cmd.Gang, cmd.Destination
	case *DespawnGangCommand:
		player, gang = cmd.Player, cmd.Gang
	default:
		return nil, fmt.Errorf("invalid request type: expected *MoveGangCommand or *DespawnGangCommand")
	}

	from, err := h.graph.LocationOf(ctx, gang)
	if err != nil {
		return nil, err
	}
	if to.IsZero() {
		err = h.graph.Despawn(ctx, player, gang)
	} else {
		err = h.graph.Move(ctx, player, gang, to)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to move %s from %s to %s: %w", gang, from, to, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Gang moved", map[string]interface{}{
		"gang": gang.String(),
		"from": from.String(),
		"to":   to.String(),
	})
	return &MoveGangResponse{Gang: gang, From: from, To: to}, nil
}
