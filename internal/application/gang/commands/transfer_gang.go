package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// TransferGangCommand hands Gang over to another player
type TransferGangCommand struct {
	Player shared.Address
	Gang   shared.EntityRef
	To     shared.Address
}

func (c *TransferGangCommand) OperationType() string    { return "transfer_gang" }
func (c *TransferGangCommand) OperationSubject() string { return c.Gang.String() }

// TransferGangHandler handles the TransferGang command
type TransferGangHandler struct {
	registry common.GangRegistry
}

// NewTransferGangHandler creates a new TransferGangHandler
func NewTransferGangHandler(registry common.GangRegistry) *TransferGangHandler {
	return &TransferGangHandler{registry: registry}
}

// Handle executes the TransferGang command
func (h *TransferGangHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*TransferGangCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *TransferGangCommand")
	}
	if err := h.registry.Transfer(ctx, cmd.Player, cmd.Gang, cmd.To); err != nil {
		return nil, fmt.Errorf("failed to transfer %s to %s: %w", cmd.Gang, cmd.To, err)
	}
	return nil, nil
}
