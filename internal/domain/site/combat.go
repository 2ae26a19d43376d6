package site

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/boost"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/roller"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// AttackRecord is an immutable entry of the attack log
type AttackRecord struct {
	Attacker  shared.EntityRef
	Defender  shared.EntityRef
	Cost      decimal.Decimal
	Winnings  decimal.Decimal
	WinBps    decimal.Decimal
	Timestamp time.Time
}

// AttackOutcome reports how ResolveAttack ended. A fizzled attack found its
// defender gone; nothing was charged and nothing was logged.
type AttackOutcome struct {
	AttackRecord
	Bias    decimal.Decimal
	Fizzled bool
}

// AttackStatus is the combat state of one gang at a site
type AttackStatus struct {
	LastAttack time.Time
	Cooldown   time.Time
	Target     shared.EntityRef
	HasTarget  bool
	Tick       uint64
}

type combatState struct {
	lastAttack time.Time
	cooldown   time.Time
	target     shared.EntityRef
	hasTarget  bool
	tick       uint64
}

// cleared drops the pending attack and keeps the cooldown
func (c combatState) cleared() combatState {
	c.lastAttack = time.Time{}
	c.target = shared.EntityRef{}
	c.hasTarget = false
	return c
}

// StartAttack commits attacker to attack defender. The outcome is rolled by
// ResolveAttack with the random word of the current tick.
func (s *Site) StartAttack(ctx context.Context, caller shared.Address, attacker, defender shared.EntityRef) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := shared.RequireOwner(ctx, s.deps.Owners, caller, attacker); err != nil {
			return err
		}
		if attacker == defender {
			return shared.NewInvalidTransitionError("%s cannot attack itself", attacker)
		}
		now := s.deps.Clock.Now()
		tick := s.deps.RNG.CurrentTick(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.residents[attacker]
		if !ok {
			return shared.NewInvalidTransitionError("attacker %s is not at %s", attacker, s.Address())
		}
		if !a.travel.IsWorking() {
			return shared.NewInvalidTransitionError("attacker %s is preparing to move", attacker)
		}
		if _, ok := s.residents[defender]; !ok {
			return shared.NewInvalidTransitionError("defender %s is not at %s", defender, s.Address())
		}
		c := s.combat[attacker]
		if c.hasTarget {
			return shared.NewInvalidTransitionError("%s is already attacking %s", attacker, c.target)
		}
		if now.Before(c.cooldown) {
			return shared.NewNotYetAvailableError("%s can attack again in %s", attacker, c.cooldown.Sub(now))
		}

		c.lastAttack = now
		c.cooldown = now.Add(s.cfg.Combat.Cooldown)
		c.target = defender
		c.hasTarget = true
		c.tick = tick
		s.putCombat(ctx, attacker, c)
		return nil
	})
}

// ResolveAttack rolls the pending attack of attacker.
//
// The cost is burned from the attacker's stake balance before winnings are
// taken from the defender. Bias = defender power / attacker power, clamped to
// the configured range; a stronger attacker skews the win share toward its maximum.
func (s *Site) ResolveAttack(ctx context.Context, caller shared.Address, attacker shared.EntityRef) (AttackOutcome, error) {
	var out AttackOutcome
	err := shared.Atomically(ctx, func(ctx context.Context) error {
		if err := shared.RequireOwner(ctx, s.deps.Owners, caller, attacker); err != nil {
			return err
		}

		s.mu.RLock()
		c := s.combat[attacker]
		_, defenderHere := s.residents[c.target]
		s.mu.RUnlock()

		if !c.hasTarget {
			return shared.NewInvalidTransitionError("%s has no pending attack", attacker)
		}
		word, ok := s.deps.RNG.RandomWordFor(ctx, c.tick)
		if !ok {
			return shared.NewNotYetAvailableError("random word for tick %d is not available yet", c.tick)
		}

		out = AttackOutcome{AttackRecord: AttackRecord{
			Attacker:  attacker,
			Defender:  c.target,
			Cost:      decimal.Zero,
			Winnings:  decimal.Zero,
			WinBps:    decimal.Zero,
			Timestamp: s.deps.Clock.Now(),
		}}
		if defenderHere {
			if err := s.fight(ctx, word, &out); err != nil {
				return err
			}
		} else {
			out.Fizzled = true
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.putCombat(ctx, attacker, c.cleared())
		if !out.Fizzled {
			s.appendAttack(ctx, out.AttackRecord)
		}
		return nil
	})
	if err != nil {
		return AttackOutcome{}, err
	}
	return out, nil
}

func (s *Site) fight(ctx context.Context, word roller.Seed, out *AttackOutcome) error {
	cfg := s.cfg.Combat
	attacker, defender := out.Attacker, out.Defender

	powerA, err := s.deps.Boosts.BoostedValue(ctx, decimal.Zero, boost.CategoryGangPower, attacker)
	if err != nil {
		return fmt.Errorf("failed to compute power of %s: %w", attacker, err)
	}
	powerD, err := s.deps.Boosts.BoostedValue(ctx, decimal.Zero, boost.CategoryGangPower, defender)
	if err != nil {
		return fmt.Errorf("failed to compute power of %s: %w", defender, err)
	}
	out.Bias = cfg.BiasMax
	if powerA.IsPositive() {
		out.Bias = utils.Clamp(utils.MulDivFloor(powerD, utils.WAD, powerA), cfg.BiasMin, cfg.BiasMax)
	}

	out.WinBps, err = roller.BiasedDraw(word, cfg.WinMinBps, cfg.WinMaxBps, out.Bias)
	if err != nil {
		return fmt.Errorf("failed to roll attack of %s: %w", attacker, err)
	}

	balanceA, err := s.deps.Custody.RedeemableAmount(ctx, attacker, s.cfg.Stake)
	if err != nil {
		return err
	}
	out.Cost = utils.MulDivFloor(balanceA, cfg.CostBps, utils.BPS)
	if out.Cost.IsPositive() {
		costCtx := ledger.Annotate(ctx, ledger.Annotation{
			Type:         ledger.TransactionTypeAttackCost,
			Counterparty: defender,
			Description:  fmt.Sprintf("attack cost at %s", s.Address()),
		})
		if err := s.deps.Custody.Withdraw(costCtx, s.Address(), attacker, s.cfg.Stake, out.Cost); err != nil {
			return fmt.Errorf("failed to charge attack cost: %w", err)
		}
		if err := s.deps.Supply.Burn(ctx, s.cfg.Stake, s.Address(), out.Cost); err != nil {
			return fmt.Errorf("failed to burn attack cost: %w", err)
		}
	}

	balanceD, err := s.deps.Custody.RedeemableAmount(ctx, defender, s.cfg.Stake)
	if err != nil {
		return err
	}
	out.Winnings = utils.MulDivFloor(balanceD, out.WinBps, utils.BPS)
	if out.Winnings.IsPositive() {
		lossCtx := ledger.Annotate(ctx, ledger.Annotation{
			Type:         ledger.TransactionTypeAttackLoss,
			Counterparty: attacker,
			Description:  fmt.Sprintf("attacked at %s", s.Address()),
		})
		if err := s.deps.Custody.Withdraw(lossCtx, s.Address(), defender, s.cfg.Stake, out.Winnings); err != nil {
			return fmt.Errorf("failed to take winnings from %s: %w", defender, err)
		}
		winCtx := ledger.Annotate(ctx, ledger.Annotation{
			Type:         ledger.TransactionTypeAttackWinnings,
			Counterparty: defender,
			Description:  fmt.Sprintf("attack winnings at %s", s.Address()),
		})
		if err := s.deps.Custody.Deposit(winCtx, s.Address(), attacker, s.cfg.Stake, out.Winnings); err != nil {
			return fmt.Errorf("failed to pay winnings to %s: %w", attacker, err)
		}
	}

	if err := s.refreshPull(ctx, attacker); err != nil {
		return err
	}
	return s.refreshPull(ctx, defender)
}

// AttackStatus returns the combat state of a gang
func (s *Site) AttackStatus(ref shared.EntityRef) AttackStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.combat[ref]
	return AttackStatus{
		LastAttack: c.lastAttack,
		Cooldown:   c.cooldown,
		Target:     c.target,
		HasTarget:  c.hasTarget,
		Tick:       c.tick,
	}
}

// AttackLog returns every resolved attack in order
func (s *Site) AttackLog() []AttackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AttackRecord(nil), s.attackLog...)
}

// AttackLogLength returns the number of resolved attacks
func (s *Site) AttackLogLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attackLog)
}

// AttackAt returns the i-th resolved attack
func (s *Site) AttackAt(i int) (AttackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.attackLog) {
		return AttackRecord{}, fmt.Errorf("attack %d out of range [0, %d)", i, len(s.attackLog))
	}
	return s.attackLog[i], nil
}

func (s *Site) putCombat(ctx context.Context, ref shared.EntityRef, c combatState) {
	prev, existed := s.combat[ref]
	s.combat[ref] = c
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.combat[ref] = prev
		} else {
			delete(s.combat, ref)
		}
	})
}

func (s *Site) appendAttack(ctx context.Context, rec AttackRecord) {
	n := len(s.attackLog)
	s.attackLog = append(s.attackLog, rec)
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.attackLog = s.attackLog[:n]
	})
}
