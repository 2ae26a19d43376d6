package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// PrepareToMoveCommand stops Gang working at Site so it may leave for Destination
type PrepareToMoveCommand struct {
	Site        shared.Address
	Player      shared.Address
	Gang        shared.EntityRef
	Destination shared.Address
}

func (c *PrepareToMoveCommand) OperationType() string    { return "prepare_to_move" }
func (c *PrepareToMoveCommand) OperationSubject() string { return c.Gang.String() }

// PrepareToMoveResponse reports when the gang may leave
type PrepareToMoveResponse struct {
	Gang        shared.EntityRef
	Destination shared.Address
	ReadyAt     time.Time
}

// PrepareToMoveHandler handles the PrepareToMove command
type PrepareToMoveHandler struct {
	world common.Directory
}

// NewPrepareToMoveHandler creates a new PrepareToMoveHandler
func NewPrepareToMoveHandler(world common.Directory) *PrepareToMoveHandler {
	return &PrepareToMoveHandler{world: world}
}

// Handle executes the PrepareToMove command
func (h *PrepareToMoveHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*PrepareToMoveCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *PrepareToMoveCommand")
	}
	s, err := h.world.Site(cmd.Site)
	if err != nil {
		return nil, err
	}
	if err := s.PrepareToMove(ctx, cmd.Player, cmd.Gang, cmd.Destination); err != nil {
		return nil, fmt.Errorf("failed to prepare %s to move: %w", cmd.Gang, err)
	}
	common.ReportSiteAfterCommit(ctx, s)

	travel, _ := s.Travel(cmd.Gang)
	return &PrepareToMoveResponse{Gang: cmd.Gang, Destination: travel.Destination(), ReadyAt: travel.ReadyAt()}, nil
}
