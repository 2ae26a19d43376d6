package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	gangCommands "github.com/andrescamacho/gangsim/internal/application/gang/commands"
	ledgerQueries "github.com/andrescamacho/gangsim/internal/application/ledger/queries"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/application/setup"
	siteCommands "github.com/andrescamacho/gangsim/internal/application/site/commands"
	siteQueries "github.com/andrescamacho/gangsim/internal/application/site/queries"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
	"github.com/andrescamacho/gangsim/internal/infrastructure/config"
	"github.com/andrescamacho/gangsim/internal/infrastructure/world"
	"github.com/andrescamacho/gangsim/pkg/utils"
	"github.com/andrescamacho/gangsim/test/helpers"
)

const (
	townSquare shared.Address = "town-square"
	stakeToken shared.Address = "bandits"
)

var genesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// claimTolerance absorbs the per-second flooring of the production accumulator
var claimTolerance = decimal.New(1, 12)

// economyContext drives the default world through the configured mediator
type economyContext struct {
	ctx      context.Context
	clock    *shared.MockClock
	world    *world.World
	mediator mediator.Mediator

	gangs   map[string]shared.EntityRef
	owners  map[string]shared.Address
	claims  map[string]decimal.Decimal
	outcome *site.AttackOutcome
	err     error
}

func (ec *economyContext) reset() {
	ec.ctx = context.Background()
	ec.clock = nil
	ec.world = nil
	ec.mediator = nil
	ec.gangs = make(map[string]shared.EntityRef)
	ec.owners = make(map[string]shared.Address)
	ec.claims = make(map[string]decimal.Decimal)
	ec.outcome = nil
	ec.err = nil
}

func (ec *economyContext) send(req mediator.Request) (mediator.Response, error) {
	resp, err := ec.mediator.Send(ec.ctx, req)
	ec.err = err
	return resp, err
}

func (ec *economyContext) gang(name string) (shared.EntityRef, shared.Address, error) {
	ref, ok := ec.gangs[name]
	if !ok {
		return shared.EntityRef{}, "", fmt.Errorf("unknown gang %q", name)
	}
	return ref, ec.owners[name], nil
}

func (ec *economyContext) site(addr string) (*site.Site, error) {
	return ec.world.Site(shared.Address(addr))
}

// Given steps

func (ec *economyContext) theDefaultFrontierWorld() error {
	layout, err := world.Default()
	if err != nil {
		return err
	}
	ec.clock = shared.NewMockClock(genesis)
	ec.world, err = world.Build(ec.ctx, layout, config.Default().Economy, ec.clock)
	if err != nil {
		return err
	}
	repos := helpers.NewTestRepositories()
	registry := setup.NewHandlerRegistry(setup.Dependencies{
		World:           ec.world,
		Graph:           ec.world.Graph,
		Registry:        ec.world.Registry,
		Balances:        ec.world.Ledger,
		Currencies:      ec.world.Bank,
		Ledger:          ec.world.Ledger,
		TransactionRepo: repos.TransactionRepo,
		AttackHistory:   repos.AttackLogRepo,
	})
	ec.mediator, err = registry.CreateConfiguredMediator()
	return err
}

func (ec *economyContext) playerOwnsGangWithBanditsInTown(player, name string, amount int64) error {
	owner := shared.Address(player)
	resp, err := ec.send(&gangCommands.SpawnGangCommand{Town: townSquare, Player: owner})
	if err != nil {
		return err
	}
	ref := resp.(*gangCommands.SpawnGangResponse).Gang
	ec.gangs[name] = ref
	ec.owners[name] = owner
	if amount == 0 {
		return nil
	}
	if err := ec.world.Bank.Mint(ec.ctx, stakeToken, owner, utils.Units(amount)); err != nil {
		return err
	}
	_, err = ec.send(&gangCommands.DepositCurrencyCommand{
		Town:     townSquare,
		Player:   owner,
		Gang:     ref,
		Currency: stakeToken,
		Amount:   utils.Units(amount),
	})
	return err
}

func (ec *economyContext) gangHasMovedTo(name, destination string) error {
	if err := ec.gangMovesTo(name, destination); err != nil {
		return err
	}
	if ec.err != nil {
		return fmt.Errorf("move of %s to %s failed: %w", name, destination, ec.err)
	}
	return nil
}

// When steps

func (ec *economyContext) gangMovesTo(name, destination string) error {
	ref, owner, err := ec.gang(name)
	if err != nil {
		return err
	}
	ec.send(&gangCommands.MoveGangCommand{Player: owner, Gang: ref, Destination: shared.Address(destination)})
	return nil
}

func (ec *economyContext) playerMovesGangTo(player, name, destination string) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	ec.send(&gangCommands.MoveGangCommand{Player: shared.Address(player), Gang: ref, Destination: shared.Address(destination)})
	return nil
}

func (ec *economyContext) gangPreparesToMoveTo(name, siteAddr, destination string) error {
	ref, owner, err := ec.gang(name)
	if err != nil {
		return err
	}
	ec.send(&siteCommands.PrepareToMoveCommand{
		Site:        shared.Address(siteAddr),
		Player:      owner,
		Gang:        ref,
		Destination: shared.Address(destination),
	})
	return nil
}

func (ec *economyContext) gangClaimsAt(name, siteAddr string) error {
	ref, owner, err := ec.gang(name)
	if err != nil {
		return err
	}
	resp, err := ec.send(&siteCommands.ClaimResourcesCommand{Site: shared.Address(siteAddr), Player: owner, Gang: ref})
	if err == nil {
		ec.claims[name] = resp.(*siteCommands.ClaimResourcesResponse).Claimed
	}
	return nil
}

func (ec *economyContext) timePasses(n int, unit string) error {
	d := time.Minute
	if strings.HasPrefix(unit, "hour") {
		d = time.Hour
	}
	ec.clock.Advance(time.Duration(n) * d)
	return nil
}

func (ec *economyContext) banditsAreAirdroppedToTheLedger(amount int64) error {
	return ec.world.Bank.Mint(ec.ctx, stakeToken, ec.world.Ledger.Address(), utils.Units(amount))
}

func (ec *economyContext) banditsAreBurnedFromTheLedger(amount int64) error {
	return ec.world.Bank.Burn(ec.ctx, stakeToken, ec.world.Ledger.Address(), utils.Units(amount))
}

func (ec *economyContext) playerWithdrawsBanditsFromGang(player string, amount int64, name string) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	ec.send(&gangCommands.WithdrawCurrencyCommand{
		Town:     townSquare,
		Player:   shared.Address(player),
		Gang:     ref,
		Currency: stakeToken,
		Amount:   utils.Units(amount),
	})
	return nil
}

func (ec *economyContext) gangStartsAnAttackOnAt(attacker, defender, siteAddr string) error {
	a, owner, err := ec.gang(attacker)
	if err != nil {
		return err
	}
	d, _, err := ec.gang(defender)
	if err != nil {
		return err
	}
	ec.send(&siteCommands.StartAttackCommand{Site: shared.Address(siteAddr), Player: owner, Attacker: a, Defender: d})
	return nil
}

func (ec *economyContext) gangResolvesItsAttackAt(attacker, siteAddr string) error {
	a, owner, err := ec.gang(attacker)
	if err != nil {
		return err
	}
	resp, err := ec.send(&siteCommands.ResolveAttackCommand{Site: shared.Address(siteAddr), Player: owner, Attacker: a})
	if err == nil {
		out := resp.(*siteCommands.ResolveAttackResponse).Outcome
		ec.outcome = &out
	}
	return nil
}

// Then steps

func (ec *economyContext) theLastCommandShouldSucceed() error {
	if ec.err != nil {
		return fmt.Errorf("expected success, got %w", ec.err)
	}
	return nil
}

func (ec *economyContext) theLastCommandShouldFailWith(kind string) error {
	if ec.err == nil {
		return fmt.Errorf("expected %q, got success", kind)
	}
	var want error
	switch kind {
	case "permission denied":
		want = shared.ErrPermissionDenied
	case "invalid transition":
		want = shared.ErrInvalidTransition
	case "insufficient balance":
		want = shared.ErrInsufficientBalance
	case "not yet available":
		want = shared.ErrNotYetAvailable
	default:
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if !errors.Is(ec.err, want) {
		return fmt.Errorf("expected %q, got %v", kind, ec.err)
	}
	return nil
}

func (ec *economyContext) gangShouldBeAt(name, location string) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	loc, err := ec.world.Graph.LocationOf(ec.ctx, ref)
	if err != nil {
		return err
	}
	if loc != shared.Address(location) {
		return fmt.Errorf("expected %s at %s, got %s", name, location, loc)
	}
	return nil
}

func (ec *economyContext) gangShouldHoldBandits(name string, amount int64) error {
	return ec.gangShouldHold(name, amount, string(stakeToken))
}

func (ec *economyContext) gangShouldHold(name string, amount int64, currency string) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	held, err := ec.world.Ledger.RedeemableAmount(ec.ctx, ref, shared.Address(currency))
	if err != nil {
		return err
	}
	if !held.Equal(utils.Units(amount)) {
		return fmt.Errorf("expected %s to hold %d %s, got %s", name, amount, currency, utils.FormatUnits(held))
	}
	return nil
}

func (ec *economyContext) gangShouldHaveClaimedAbout(name string, amount int64) error {
	claimed, ok := ec.claims[name]
	if !ok {
		return fmt.Errorf("%s has not claimed (last error: %v)", name, ec.err)
	}
	if claimed.Sub(utils.Units(amount)).Abs().GreaterThan(claimTolerance) {
		return fmt.Errorf("expected %s to claim about %d, got %s", name, amount, utils.FormatUnits(claimed))
	}
	return nil
}

func (ec *economyContext) thePullOfGangAtShouldBe(name, siteAddr string, amount int64) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	s, err := ec.site(siteAddr)
	if err != nil {
		return err
	}
	if pull := s.Pull(ref); !pull.Equal(utils.Units(amount)) {
		return fmt.Errorf("expected pull %d for %s, got %s", amount, name, utils.FormatUnits(pull))
	}
	return nil
}

func (ec *economyContext) theTotalPullAtShouldBe(siteAddr string, amount int64) error {
	s, err := ec.site(siteAddr)
	if err != nil {
		return err
	}
	if total := s.TotalPull(); !total.Equal(utils.Units(amount)) {
		return fmt.Errorf("expected total pull %d, got %s", amount, utils.FormatUnits(total))
	}
	return nil
}

func (ec *economyContext) theAttackShouldCostBandits(amount int64) error {
	if ec.outcome == nil {
		return fmt.Errorf("no attack resolved (last error: %v)", ec.err)
	}
	if !ec.outcome.Cost.Equal(utils.Units(amount)) {
		return fmt.Errorf("expected cost %d, got %s", amount, utils.FormatUnits(ec.outcome.Cost))
	}
	return nil
}

func (ec *economyContext) theAttackShouldHaveFizzled() error {
	if ec.outcome == nil {
		return fmt.Errorf("no attack resolved (last error: %v)", ec.err)
	}
	if !ec.outcome.Fizzled {
		return fmt.Errorf("expected the attack to fizzle, got winnings %s", utils.FormatUnits(ec.outcome.Winnings))
	}
	return nil
}

func (ec *economyContext) gangsShouldHoldBanditsTogether(first, second string, amount int64) error {
	total := decimal.Zero
	for _, name := range []string{first, second} {
		ref, _, err := ec.gang(name)
		if err != nil {
			return err
		}
		held, err := ec.world.Ledger.RedeemableAmount(ec.ctx, ref, stakeToken)
		if err != nil {
			return err
		}
		total = total.Add(held)
	}
	if !total.Equal(utils.Units(amount)) {
		return fmt.Errorf("expected %s and %s to hold %d together, got %s", first, second, amount, utils.FormatUnits(total))
	}
	return nil
}

func (ec *economyContext) theJournalOfGangShouldList(name, types string) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	resp, err := ec.mediator.Send(ec.ctx, &ledgerQueries.GetTransactionsQuery{Owner: ref, OrderBy: "timestamp ASC"})
	if err != nil {
		return err
	}
	var got []string
	for _, tx := range resp.(*ledgerQueries.GetTransactionsResponse).Transactions {
		got = append(got, tx.Type)
	}
	if want := strings.Join(strings.Split(types, ", "), ","); strings.Join(got, ",") != want {
		return fmt.Errorf("expected journal %s, got %s", want, strings.Join(got, ","))
	}
	return nil
}

func (ec *economyContext) theJournalOfGangShouldHoldEntries(name string, count int) error {
	ref, _, err := ec.gang(name)
	if err != nil {
		return err
	}
	resp, err := ec.mediator.Send(ec.ctx, &ledgerQueries.GetTransactionsQuery{Owner: ref})
	if err != nil {
		return err
	}
	if total := resp.(*ledgerQueries.GetTransactionsResponse).Total; total != count {
		return fmt.Errorf("expected %d journal entries for %s, got %d", count, name, total)
	}
	return nil
}

func (ec *economyContext) theAttackHistoryOfShouldHoldEntries(siteAddr string, count int) error {
	resp, err := ec.mediator.Send(ec.ctx, &siteQueries.GetAttackHistoryQuery{Site: shared.Address(siteAddr)})
	if err != nil {
		return err
	}
	if total := resp.(*siteQueries.GetAttackHistoryResponse).Total; total != count {
		return fmt.Errorf("expected %d recorded attacks at %s, got %d", count, siteAddr, total)
	}
	return nil
}

func InitializeEconomyScenario(sc *godog.ScenarioContext) {
	ec := &economyContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		ec.reset()
		return ctx, helpers.TruncateAllTables()
	})

	// Given steps
	sc.Step(`^the default frontier world$`, ec.theDefaultFrontierWorld)
	sc.Step(`^"([^"]*)" owns gang "([^"]*)" with (\d+) bandits in town$`, ec.playerOwnsGangWithBanditsInTown)
	sc.Step(`^gang "([^"]*)" has moved to "([^"]*)"$`, ec.gangHasMovedTo)

	// When steps
	sc.Step(`^gang "([^"]*)" moves to "([^"]*)"$`, ec.gangMovesTo)
	sc.Step(`^"([^"]*)" moves gang "([^"]*)" to "([^"]*)"$`, ec.playerMovesGangTo)
	sc.Step(`^gang "([^"]*)" prepares to leave "([^"]*)" for "([^"]*)"$`, ec.gangPreparesToMoveTo)
	sc.Step(`^gang "([^"]*)" claims its production at "([^"]*)"$`, ec.gangClaimsAt)
	sc.Step(`^(\d+) (hours?|minutes?) pass(?:es)?$`, ec.timePasses)
	sc.Step(`^(\d+) bandits are airdropped to the ledger$`, ec.banditsAreAirdroppedToTheLedger)
	sc.Step(`^(\d+) bandits are burned from the ledger$`, ec.banditsAreBurnedFromTheLedger)
	sc.Step(`^"([^"]*)" withdraws (\d+) bandits from gang "([^"]*)"$`, ec.playerWithdrawsBanditsFromGang)
	sc.Step(`^gang "([^"]*)" starts an attack on gang "([^"]*)" at "([^"]*)"$`, ec.gangStartsAnAttackOnAt)
	sc.Step(`^gang "([^"]*)" resolves its attack at "([^"]*)"$`, ec.gangResolvesItsAttackAt)

	// Then steps
	sc.Step(`^the last command should succeed$`, ec.theLastCommandShouldSucceed)
	sc.Step(`^the last command should fail with "([^"]*)"$`, ec.theLastCommandShouldFailWith)
	sc.Step(`^gang "([^"]*)" should be at "([^"]*)"$`, ec.gangShouldBeAt)
	sc.Step(`^gang "([^"]*)" should hold (\d+) bandits$`, ec.gangShouldHoldBandits)
	sc.Step(`^gang "([^"]*)" should hold (\d+) "([^"]*)"$`, ec.gangShouldHold)
	sc.Step(`^gang "([^"]*)" should have claimed about (\d+)$`, ec.gangShouldHaveClaimedAbout)
	sc.Step(`^the pull of gang "([^"]*)" at "([^"]*)" should be (\d+)$`, ec.thePullOfGangAtShouldBe)
	sc.Step(`^the total pull at "([^"]*)" should be (\d+)$`, ec.theTotalPullAtShouldBe)
	sc.Step(`^the attack should cost (\d+) bandits$`, ec.theAttackShouldCostBandits)
	sc.Step(`^the attack should have fizzled$`, ec.theAttackShouldHaveFizzled)
	sc.Step(`^gangs "([^"]*)" and "([^"]*)" should hold (\d+) bandits together$`, ec.gangsShouldHoldBanditsTogether)
	sc.Step(`^the journal of gang "([^"]*)" should list ([A-Z_, ]+)$`, ec.theJournalOfGangShouldList)
	sc.Step(`^the journal of gang "([^"]*)" should hold (\d+) entries$`, ec.theJournalOfGangShouldHoldEntries)
	sc.Step(`^the attack history of "([^"]*)" should hold (\d+) entr(?:y|ies)$`, ec.theAttackHistoryOfShouldHoldEntries)
}
