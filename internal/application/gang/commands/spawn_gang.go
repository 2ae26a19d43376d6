package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// SpawnGangCommand mints a gang for Player at Town
type SpawnGangCommand struct {
	Town   shared.Address
	Player shared.Address
}

func (c *SpawnGangCommand) OperationType() string    { return "spawn_gang" }
func (c *SpawnGangCommand) OperationSubject() string { return string(c.Player) }

// SpawnGangResponse carries the freshly minted gang
type SpawnGangResponse struct {
	Gang shared.EntityRef
	Town shared.Address
}

// SpawnGangHandler handles the SpawnGang command
type SpawnGangHandler struct {
	world common.Directory
}

// NewSpawnGangHandler creates a new SpawnGangHandler
func NewSpawnGangHandler(world common.Directory) *SpawnGangHandler {
	return &SpawnGangHandler{world: world}
}

// Handle executes the SpawnGang command
func (h *SpawnGangHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SpawnGangCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SpawnGangCommand")
	}

	t, err := h.world.Town(cmd.Town)
	if err != nil {
		return nil, err
	}
	ref, err := t.SpawnGang(ctx, cmd.Player)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn gang for %s: %w", cmd.Player, err)
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Gang spawned", map[string]interface{}{
		"gang":   ref.String(),
		"player": cmd.Player.String(),
		"town":   cmd.Town.String(),
	})
	return &SpawnGangResponse{Gang: ref, Town: cmd.Town}, nil
}
