package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gangsim/internal/adapters/metrics"
	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
)

// StartAttackCommand commits Attacker to attack Defender at Site
type StartAttackCommand struct {
	Site     shared.Address
	Player   shared.Address
	Attacker shared.EntityRef
	Defender shared.EntityRef
}

func (c *StartAttackCommand) OperationType() string    { return "start_attack" }
func (c *StartAttackCommand) OperationSubject() string { return c.Attacker.String() }

// ResolveAttackCommand rolls the pending attack of Attacker
type ResolveAttackCommand struct {
	Site     shared.Address
	Player   shared.Address
	Attacker shared.EntityRef
}

func (c *ResolveAttackCommand) OperationType() string    { return "resolve_attack" }
func (c *ResolveAttackCommand) OperationSubject() string { return c.Attacker.String() }

// StartAttackResponse reports the pending attack
type StartAttackResponse struct {
	Status site.AttackStatus
}

// ResolveAttackResponse reports how the attack ended
type ResolveAttackResponse struct {
	Outcome site.AttackOutcome
}

// AttackHandler handles the StartAttack and ResolveAttack commands.
// Resolved attacks are appended to history once the operation commits.
type AttackHandler struct {
	world    common.Directory
	balances common.Balances
	history  site.AttackHistory
}

// NewAttackHandler creates a new AttackHandler. history may be nil.
func NewAttackHandler(world common.Directory, balances common.Balances, history site.AttackHistory) *AttackHandler {
	return &AttackHandler{world: world, balances: balances, history: history}
}

// Handle executes StartAttack or ResolveAttack
func (h *AttackHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	switch cmd := request.(type) {
	case *StartAttackCommand:
		s, err := h.world.Site(cmd.Site)
		if err != nil {
			return nil, err
		}
		if err := s.StartAttack(ctx, cmd.Player, cmd.Attacker, cmd.Defender); err != nil {
			return nil, fmt.Errorf("failed to start attack of %s on %s: %w", cmd.Attacker, cmd.Defender, err)
		}
		return &StartAttackResponse{Status: s.AttackStatus(cmd.Attacker)}, nil

	case *ResolveAttackCommand:
		s, err := h.world.Site(cmd.Site)
		if err != nil {
			return nil, err
		}
		return h.resolve(ctx, s, cmd)

	default:
		return nil, fmt.Errorf("invalid request type: expected *StartAttackCommand or *ResolveAttackCommand")
	}
}

func (h *AttackHandler) resolve(ctx context.Context, s *site.Site, cmd *ResolveAttackCommand) (mediator.Response, error) {
	outcome, err := s.ResolveAttack(ctx, cmd.Player, cmd.Attacker)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attack of %s: %w", cmd.Attacker, err)
	}

	logger := logging.LoggerFromContext(ctx)
	if outcome.Fizzled {
		logger.Log("INFO", "Attack fizzled: defender left", map[string]interface{}{
			"site":     s.Address().String(),
			"attacker": outcome.Attacker.String(),
			"defender": outcome.Defender.String(),
		})
		shared.AfterCommit(ctx, func(context.Context) {
			metrics.RecordAttack(s.Address(), true, outcome.Cost, outcome.Winnings)
		})
		return &ResolveAttackResponse{Outcome: outcome}, nil
	}

	index := s.AttackLogLength() - 1
	op := shared.OperationFromContext(ctx)
	shared.AfterCommit(ctx, func(ctx context.Context) {
		metrics.RecordAttack(s.Address(), false, outcome.Cost, outcome.Winnings)
		if h.history == nil {
			return
		}
		if err := h.history.Record(ctx, s.Address(), index, outcome.AttackRecord, op); err != nil {
			logging.LoggerFromContext(ctx).Log("ERROR", "failed to persist attack", map[string]interface{}{
				"site":  s.Address().String(),
				"index": index,
				"error": err.Error(),
			})
		}
	})
	common.ReportSiteAfterCommit(ctx, s)
	common.ReportPoolAfterCommit(ctx, h.balances, s.Config().Stake)

	logger.Log("INFO", "Attack resolved", map[string]interface{}{
		"site":     s.Address().String(),
		"attacker": outcome.Attacker.String(),
		"defender": outcome.Defender.String(),
		"winnings": outcome.Winnings.String(),
		"cost":     outcome.Cost.String(),
		"win_bps":  outcome.WinBps.String(),
	})
	return &ResolveAttackResponse{Outcome: outcome}, nil
}
