// Package site implements production and combat locations: resident gangs
// share a daily production in proportion to their pull and may attack each
// other for a share of their stake balance.
package site

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/boost"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/location"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

var (
	// accPrecision scales the production accumulated per unit of pull
	accPrecision = utils.WAD
	dayNanos     = decimal.NewFromInt(int64(24 * time.Hour))
)

type resident struct {
	pull      decimal.Decimal
	prodBps   decimal.Decimal
	debt      decimal.Decimal
	pending   decimal.Decimal
	arrivedAt time.Time
	travel    TravelState
}

// weight is the pull counted in totalPull; a gang preparing to move does not work
func (r resident) weight() decimal.Decimal {
	if !r.travel.IsWorking() {
		return decimal.Zero
	}
	return r.pull
}

func (r resident) accrued(acc decimal.Decimal) decimal.Decimal {
	gross := utils.MulDivFloor(r.weight(), acc, accPrecision).Sub(r.debt)
	if !gross.IsPositive() {
		return decimal.Zero
	}
	return utils.MulDivFloor(gross, r.prodBps, utils.BPS)
}

func (r resident) settle(acc decimal.Decimal) resident {
	r.pending = r.pending.Add(r.accrued(acc))
	return r.checkpoint(acc)
}

// checkpoint must follow every change of weight
func (r resident) checkpoint(acc decimal.Decimal) resident {
	r.debt = utils.MulDivFloor(r.weight(), acc, accPrecision)
	return r
}

// Site is a production and combat location.
//
// Production is settled lazily with a per-pull accumulator: before totalPull
// changes the accumulator is advanced to now, so amounts already accrued never
// change retroactively. totalPull always equals the sum of resident weights.
//
// The site never holds its lock while calling the ledger, the boost
// calculator or the ownership oracle.
type Site struct {
	*location.Base

	mu         sync.RWMutex
	cfg        Config
	deps       Dependencies
	prodDaily  decimal.Decimal
	totalPull  decimal.Decimal
	accPerPull decimal.Decimal
	lastUpdate time.Time
	residents  map[shared.EntityRef]resident
	combat     map[shared.EntityRef]combatState
	fixed      []shared.Address
	attackLog  []AttackRecord
}

// NewSite creates a site from its configuration
func NewSite(cfg Config, deps Dependencies) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Owners == nil || deps.Custody == nil || deps.Supply == nil || deps.Boosts == nil || deps.RNG == nil {
		return nil, fmt.Errorf("site %s: owners, custody, supply, boosts and rng are required", cfg.Address)
	}
	if deps.Clock == nil {
		deps.Clock = shared.NewRealClock()
	}
	return &Site{
		Base:       location.NewBase(cfg.Address, cfg.GraphAddress, deps.Roles),
		cfg:        cfg,
		deps:       deps,
		prodDaily:  cfg.BaseProdDaily,
		totalPull:  decimal.Zero,
		accPerPull: decimal.Zero,
		lastUpdate: deps.Clock.Now(),
		residents:  make(map[shared.EntityRef]resident),
		combat:     make(map[shared.EntityRef]combatState),
	}, nil
}

// Config returns the site configuration
func (s *Site) Config() Config {
	return s.cfg
}

// CheckDeparture only lets a gang leave for its prepared destination once it is ready
func (s *Site) CheckDeparture(ctx context.Context, ref shared.EntityRef, destination shared.Address) error {
	if err := s.Base.CheckDeparture(ctx, ref, destination); err != nil {
		return err
	}
	now := s.deps.Clock.Now()

	s.mu.RLock()
	r, ok := s.residents[ref]
	s.mu.RUnlock()

	switch {
	case !ok:
		return shared.NewInvalidTransitionError("%s is not at %s", ref, s.Address())
	case r.travel.IsWorking():
		return shared.NewInvalidTransitionError("%s must prepare to move before leaving %s", ref, s.Address())
	case r.travel.Destination() != destination:
		return shared.NewInvalidTransitionError("invalid destination %s: %s prepared to move to %s", destination, ref, r.travel.Destination())
	case !r.travel.IsReady(now):
		return shared.NewNotYetAvailableError("%s can leave %s in %s", ref, s.Address(), r.travel.Remaining(now))
	}
	return nil
}

// OnArrival starts production for the arriving gang
func (s *Site) OnArrival(ctx context.Context, caller shared.Address, ref shared.EntityRef, source shared.Address) error {
	if err := s.Base.OnArrival(ctx, caller, ref, source); err != nil {
		return err
	}
	pull, prodBps, err := s.boosted(ctx, ref)
	if err != nil {
		return err
	}
	now := s.deps.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.residents[ref]; exists {
		return shared.NewInvalidTransitionError("%s is already at %s", ref, s.Address())
	}
	s.updatePool(ctx, now)
	r := resident{pull: pull, prodBps: prodBps, arrivedAt: now}.checkpoint(s.accPerPull)
	s.putResident(ctx, ref, r)
	s.setTotalPull(ctx, s.totalPull.Add(r.weight()))
	return nil
}

// OnDeparture settles the leaving gang and pays out its pending production.
// A pending attack of the gang is abandoned; its cooldown stays.
func (s *Site) OnDeparture(ctx context.Context, caller shared.Address, ref shared.EntityRef, destination shared.Address) error {
	if err := s.Base.OnDeparture(ctx, caller, ref, destination); err != nil {
		return err
	}
	now := s.deps.Clock.Now()

	s.mu.Lock()
	r, ok := s.residents[ref]
	if !ok {
		s.mu.Unlock()
		return shared.NewInvalidTransitionError("%s is not at %s", ref, s.Address())
	}
	s.updatePool(ctx, now)
	r = r.settle(s.accPerPull)
	s.setTotalPull(ctx, s.totalPull.Sub(r.weight()))
	s.dropResident(ctx, ref)
	if c, ok := s.combat[ref]; ok && c.hasTarget {
		s.putCombat(ctx, ref, c.cleared())
	}
	s.mu.Unlock()

	return s.payout(ctx, ref, r.pending)
}

// PrepareToMove stops the gang working and starts its travel timer toward one
// of the site's fixed destinations
func (s *Site) PrepareToMove(ctx context.Context, caller shared.Address, ref shared.EntityRef, destination shared.Address) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := shared.RequireOwner(ctx, s.deps.Owners, caller, ref); err != nil {
			return err
		}
		if !s.IsFixedDestination(destination) {
			return shared.NewInvalidTransitionError("%s is not a fixed destination of %s", destination, s.Address())
		}
		now := s.deps.Clock.Now()

		s.mu.Lock()
		defer s.mu.Unlock()
		r, ok := s.residents[ref]
		if !ok {
			return shared.NewInvalidTransitionError("%s is not at %s", ref, s.Address())
		}
		travel, err := r.travel.Prepare(destination, now, s.cfg.TravelTime)
		if err != nil {
			return shared.NewInvalidTransitionError("%s: %v", ref, err)
		}

		s.updatePool(ctx, now)
		r = r.settle(s.accPerPull)
		s.setTotalPull(ctx, s.totalPull.Sub(r.weight()))
		r.travel = travel
		s.putResident(ctx, ref, r.checkpoint(s.accPerPull))
		return nil
	})
}

// Claim mints the gang's pending production and deposits it into the ledger
// on its behalf. Returns the claimed amount.
func (s *Site) Claim(ctx context.Context, caller shared.Address, ref shared.EntityRef) (decimal.Decimal, error) {
	claimed := decimal.Zero
	err := shared.Atomically(ctx, func(ctx context.Context) error {
		if err := shared.RequireOwner(ctx, s.deps.Owners, caller, ref); err != nil {
			return err
		}
		now := s.deps.Clock.Now()

		s.mu.Lock()
		r, ok := s.residents[ref]
		if !ok {
			s.mu.Unlock()
			return shared.NewInvalidTransitionError("%s is not at %s", ref, s.Address())
		}
		s.updatePool(ctx, now)
		r = r.settle(s.accPerPull)
		claimed = r.pending
		r.pending = decimal.Zero
		s.putResident(ctx, ref, r)
		s.mu.Unlock()

		if err := s.payout(ctx, ref, claimed); err != nil {
			return err
		}
		return s.refreshPull(ctx, ref)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return claimed, nil
}

// RefreshPull recomputes the gang's pull after its boosts changed elsewhere
func (s *Site) RefreshPull(ctx context.Context, ref shared.EntityRef) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		return s.refreshPull(ctx, ref)
	})
}

// SetBaseProdDaily changes the daily production shared by working gangs.
// Production up to now is settled at the old rate. Requires MANAGER_ROLE.
func (s *Site) SetBaseProdDaily(ctx context.Context, caller shared.Address, amount decimal.Decimal) error {
	if err := shared.RequireRole(ctx, s.deps.Roles, caller, shared.RoleManager); err != nil {
		return err
	}
	if amount.IsNegative() {
		return shared.NewInvalidTransitionError("daily production must not be negative, got %s", amount)
	}
	now := s.deps.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatePool(ctx, now)
	prev := s.prodDaily
	s.prodDaily = amount
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.prodDaily = prev
	})
	return nil
}

// SetFixedDestinations toggles the destinations gangs may prepare to move to.
// Requires MANAGER_ROLE.
func (s *Site) SetFixedDestinations(ctx context.Context, caller shared.Address, destinations []shared.Address, enabled bool) error {
	if err := shared.RequireRole(ctx, s.deps.Roles, caller, shared.RoleManager); err != nil {
		return err
	}
	for _, d := range destinations {
		if d.IsZero() {
			return shared.NewInvalidTransitionError("fixed destination must not be empty")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.fixed
	next := make([]shared.Address, 0, len(prev)+len(destinations))
	for _, d := range prev {
		if enabled || !containsAddress(destinations, d) {
			next = append(next, d)
		}
	}
	if enabled {
		for _, d := range destinations {
			if !containsAddress(next, d) {
				next = append(next, d)
			}
		}
	}
	s.fixed = next
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fixed = prev
	})
	return nil
}

// FixedDestinations lists the fixed destinations in the order they were added
func (s *Site) FixedDestinations() []shared.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]shared.Address(nil), s.fixed...)
}

// IsFixedDestination reports whether gangs may prepare to move to destination
func (s *Site) IsFixedDestination(destination shared.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsAddress(s.fixed, destination)
}

// PendingResources is the production the gang could claim now
func (s *Site) PendingResources(ref shared.EntityRef) decimal.Decimal {
	now := s.deps.Clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[ref]
	if !ok {
		return decimal.Zero
	}
	return r.pending.Add(r.accrued(s.accAt(now)))
}

// ResourcesPerDay is the gang's current production rate
func (s *Site) ResourcesPerDay(ref shared.EntityRef) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[ref]
	if !ok || s.totalPull.IsZero() {
		return decimal.Zero
	}
	share := utils.MulDivFloor(s.prodDaily, r.weight(), s.totalPull)
	return utils.MulDivFloor(share, r.prodBps, utils.BPS)
}

// Pull returns the gang's pull as of its last refresh
func (s *Site) Pull(ref shared.EntityRef) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.residents[ref].pull
}

// TotalPull is the sum of the pull of working gangs
func (s *Site) TotalPull() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalPull
}

// BaseProdDaily returns the configured daily production
func (s *Site) BaseProdDaily() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prodDaily
}

// CurrentProdDaily returns the daily production currently shared by working gangs
func (s *Site) CurrentProdDaily() decimal.Decimal {
	return s.BaseProdDaily()
}

// IsResident reports whether the gang is at the site
func (s *Site) IsResident(ref shared.EntityRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.residents[ref]
	return ok
}

// Residents lists resident gangs ordered by type and id
func (s *Site) Residents() []shared.EntityRef {
	s.mu.RLock()
	refs := make([]shared.EntityRef, 0, len(s.residents))
	for ref := range s.residents {
		refs = append(refs, ref)
	}
	s.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type < refs[j].Type
		}
		return refs[i].ID < refs[j].ID
	})
	return refs
}

// Travel returns the gang's travel state
func (s *Site) Travel(ref shared.EntityRef) (TravelState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[ref]
	return r.travel, ok
}

// IsWorking reports whether the gang is resident and producing
func (s *Site) IsWorking(ref shared.EntityRef) bool {
	t, ok := s.Travel(ref)
	return ok && t.IsWorking()
}

// IsPreparingToMove reports whether the gang stopped working to leave
func (s *Site) IsPreparingToMove(ref shared.EntityRef) bool {
	t, ok := s.Travel(ref)
	return ok && t.IsPreparing()
}

// IsReadyToMove reports whether the gang's travel time has elapsed
func (s *Site) IsReadyToMove(ref shared.EntityRef) bool {
	t, ok := s.Travel(ref)
	return ok && t.IsReady(s.deps.Clock.Now())
}

// Destination returns the prepared destination of the gang, zero when none
func (s *Site) Destination(ref shared.EntityRef) shared.Address {
	t, _ := s.Travel(ref)
	return t.Destination()
}

func (s *Site) boosted(ctx context.Context, ref shared.EntityRef) (pull, prodBps decimal.Decimal, err error) {
	pull, err = s.deps.Boosts.BoostedValue(ctx, decimal.Zero, boost.CategoryGangPull, ref)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to compute pull of %s: %w", ref, err)
	}
	prodBps, err = s.deps.Boosts.BoostedValue(ctx, utils.BPS, boost.CategoryGangProdDaily, ref)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to compute production multiplier of %s: %w", ref, err)
	}
	return pull, prodBps, nil
}

func (s *Site) refreshPull(ctx context.Context, ref shared.EntityRef) error {
	pull, prodBps, err := s.boosted(ctx, ref)
	if err != nil {
		return err
	}
	now := s.deps.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[ref]
	if !ok {
		return nil
	}
	s.updatePool(ctx, now)
	r = r.settle(s.accPerPull)
	total := s.totalPull.Sub(r.weight())
	r.pull, r.prodBps = pull, prodBps
	s.setTotalPull(ctx, total.Add(r.weight()))
	s.putResident(ctx, ref, r.checkpoint(s.accPerPull))
	return nil
}

func (s *Site) payout(ctx context.Context, ref shared.EntityRef, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	if err := s.deps.Supply.Mint(ctx, s.cfg.Resource, s.Address(), amount); err != nil {
		return fmt.Errorf("failed to mint %s %s at %s: %w", amount, s.cfg.Resource, s.Address(), err)
	}
	ctx = ledger.Annotate(ctx, ledger.Annotation{
		Type:        ledger.TransactionTypeProductionClaim,
		Description: fmt.Sprintf("production at %s", s.Address()),
	})
	return s.deps.Custody.Deposit(ctx, s.Address(), ref, s.cfg.Resource, amount)
}

// accAt returns the accumulator advanced to now without storing it; mu must be held
func (s *Site) accAt(now time.Time) decimal.Decimal {
	if s.totalPull.IsZero() || !now.After(s.lastUpdate) {
		return s.accPerPull
	}
	produced := s.prodDaily.Mul(decimal.NewFromInt(int64(now.Sub(s.lastUpdate))))
	return s.accPerPull.Add(utils.MulDivFloor(produced, accPrecision, dayNanos.Mul(s.totalPull)))
}

// updatePool must be called with mu held for writing
func (s *Site) updatePool(ctx context.Context, now time.Time) {
	prevAcc, prevUpdate := s.accPerPull, s.lastUpdate
	s.accPerPull = s.accAt(now)
	if now.After(s.lastUpdate) {
		s.lastUpdate = now
	}
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.accPerPull, s.lastUpdate = prevAcc, prevUpdate
	})
}

func (s *Site) setTotalPull(ctx context.Context, total decimal.Decimal) {
	prev := s.totalPull
	s.totalPull = total
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.totalPull = prev
	})
}

func (s *Site) putResident(ctx context.Context, ref shared.EntityRef, r resident) {
	prev, existed := s.residents[ref]
	s.residents[ref] = r
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.residents[ref] = prev
		} else {
			delete(s.residents, ref)
		}
	})
}

func (s *Site) dropResident(ctx context.Context, ref shared.EntityRef) {
	prev, existed := s.residents[ref]
	delete(s.residents, ref)
	shared.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.residents[ref] = prev
		}
	})
}

func containsAddress(list []shared.Address, a shared.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
