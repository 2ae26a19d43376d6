package setup_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/adapters/persistence"
	gangCommands "github.com/andrescamacho/gangsim/internal/application/gang/commands"
	gangQueries "github.com/andrescamacho/gangsim/internal/application/gang/queries"
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
	square   shared.Address = "town-square"
	rustlers shared.Address = "red-rustler-rendezvous"
	bandits  shared.Address = "bandits"
	resource shared.Address = "counterfeit-currency"
	player1  shared.Address = "player1"
	player2  shared.Address = "player2"
)

var time0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type app struct {
	ctx      context.Context
	clock    *shared.MockClock
	world    *world.World
	mediator mediator.Mediator
	attacks  *persistence.GormAttackLogRepository
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	clock := shared.NewMockClock(time0)
	layout, err := world.Default()
	require.NoError(t, err)
	w, err := world.Build(ctx, layout, config.Default().Economy, clock)
	require.NoError(t, err)

	db := helpers.NewTestDB(t)
	attacks := persistence.NewGormAttackLogRepository(db)
	registry := setup.NewHandlerRegistry(setup.Dependencies{
		World:           w,
		Graph:           w.Graph,
		Registry:        w.Registry,
		Balances:        w.Ledger,
		Currencies:      w.Bank,
		Ledger:          w.Ledger,
		TransactionRepo: persistence.NewGormTransactionRepository(db),
		AttackHistory:   attacks,
	})
	m, err := registry.CreateConfiguredMediator()
	require.NoError(t, err)
	return &app{ctx: ctx, clock: clock, world: w, mediator: m, attacks: attacks}
}

func (a *app) send(t *testing.T, req mediator.Request) mediator.Response {
	t.Helper()
	resp, err := a.mediator.Send(a.ctx, req)
	require.NoError(t, err)
	return resp
}

// fundedGang spawns a gang for player, deposits amount bandits and moves it to the site
func (a *app) fundedGang(t *testing.T, player shared.Address, amount int64) shared.EntityRef {
	t.Helper()
	require.NoError(t, a.world.Bank.Mint(a.ctx, bandits, player, utils.Units(amount)))
	spawned := a.send(t, &gangCommands.SpawnGangCommand{Town: square, Player: player}).(*gangCommands.SpawnGangResponse)
	a.send(t, &gangCommands.DepositCurrencyCommand{Town: square, Player: player, Gang: spawned.Gang, Currency: bandits, Amount: utils.Units(amount)})
	a.send(t, &gangCommands.MoveGangCommand{Player: player, Gang: spawned.Gang, Destination: rustlers})
	return spawned.Gang
}

func assertDecimalEqual(t *testing.T, expected, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "expected %s, got %s", expected, actual)
}

func TestMediator_ClaimIsJournaled(t *testing.T) {
	// Arrange
	a := newApp(t)
	g := a.fundedGang(t, player1, 100)
	a.clock.Advance(24 * time.Hour)

	// Act
	claimed := a.send(t, &siteCommands.ClaimResourcesCommand{Site: rustlers, Player: player1, Gang: g}).(*siteCommands.ClaimResourcesResponse)
	txs := a.send(t, &ledgerQueries.GetTransactionsQuery{Owner: g, OrderBy: "timestamp ASC"}).(*ledgerQueries.GetTransactionsResponse)

	// Assert
	assertDecimalEqual(t, utils.Units(25000), claimed.Claimed)
	assert.Equal(t, resource, claimed.Resource)
	require.Equal(t, 2, txs.Total)
	require.Len(t, txs.Transactions, 2)
	assert.Equal(t, "DEPOSIT", txs.Transactions[0].Type)
	assert.Equal(t, "deposit", txs.Transactions[0].OperationType)
	assert.Equal(t, "PRODUCTION_CLAIM", txs.Transactions[1].Type)
	assert.Equal(t, "claim", txs.Transactions[1].OperationType)
	assert.NotEmpty(t, txs.Transactions[1].OperationID)
	assertDecimalEqual(t, utils.Units(25000), txs.Transactions[1].Amount)
}

func TestMediator_GangQueries(t *testing.T) {
	// Arrange
	a := newApp(t)
	g := a.fundedGang(t, player1, 100)
	a.clock.Advance(12 * time.Hour)

	// Act
	gang := a.send(t, &gangQueries.GetGangQuery{Gang: g}).(*gangQueries.GangDTO)
	list := a.send(t, &gangQueries.ListGangsQuery{Owner: player1}).(*gangQueries.ListGangsResponse)
	empty := a.send(t, &gangQueries.ListGangsQuery{Owner: player2}).(*gangQueries.ListGangsResponse)

	// Assert
	assert.Equal(t, player1, gang.Owner)
	assert.Equal(t, rustlers, gang.Location)
	require.Len(t, gang.Balances, 1)
	assert.Equal(t, bandits, gang.Balances[0].Currency)
	assertDecimalEqual(t, utils.Units(100), gang.Balances[0].Amount)
	require.NotNil(t, gang.Site)
	assert.Equal(t, site.TravelStatusWorking, gang.Site.Status)
	assertDecimalEqual(t, utils.Units(12500), gang.Site.Pending)
	require.Len(t, list.Gangs, 1)
	assert.Equal(t, g, list.Gangs[0].Gang)
	assert.Empty(t, empty.Gangs)
}

func TestMediator_AttackIsPersistedAfterCommit(t *testing.T) {
	// Arrange
	a := newApp(t)
	g1 := a.fundedGang(t, player1, 100)
	g2 := a.fundedGang(t, player2, 100)
	a.send(t, &siteCommands.StartAttackCommand{Site: rustlers, Player: player2, Attacker: g2, Defender: g1})

	_, errEarly := a.mediator.Send(a.ctx, &siteCommands.ResolveAttackCommand{Site: rustlers, Player: player2, Attacker: g2})
	a.clock.Advance(time.Minute)

	// Act
	resolved := a.send(t, &siteCommands.ResolveAttackCommand{Site: rustlers, Player: player2, Attacker: g2}).(*siteCommands.ResolveAttackResponse)
	history := a.send(t, &siteQueries.GetAttackHistoryQuery{Site: rustlers}).(*siteQueries.GetAttackHistoryResponse)
	txs := a.send(t, &ledgerQueries.GetTransactionsQuery{Owner: g2}).(*ledgerQueries.GetTransactionsResponse)
	flows := a.send(t, &ledgerQueries.GetCashFlowQuery{
		Owner:     g2,
		StartDate: time0.Add(-time.Hour),
		EndDate:   time0.Add(time.Hour),
	}).(*ledgerQueries.GetCashFlowResponse)
	pl := a.send(t, &ledgerQueries.GetProfitLossQuery{
		Owner:     g2,
		StartDate: time0.Add(-time.Hour),
		EndDate:   time0.Add(time.Hour),
	}).(*ledgerQueries.GetProfitLossResponse)

	// Assert
	assert.ErrorIs(t, errEarly, shared.ErrNotYetAvailable)
	outcome := resolved.Outcome
	assert.False(t, outcome.Fizzled)
	assertDecimalEqual(t, utils.Units(2), outcome.Cost)
	assert.True(t, outcome.Winnings.IsPositive())

	b1, err := a.world.Ledger.RedeemableAmount(a.ctx, g1, bandits)
	require.NoError(t, err)
	b2, err := a.world.Ledger.RedeemableAmount(a.ctx, g2, bandits)
	require.NoError(t, err)
	assertDecimalEqual(t, utils.Units(198), b1.Add(b2))

	require.Equal(t, 1, history.Total)
	require.Len(t, history.Attacks, 1)
	assert.Equal(t, g2, history.Attacks[0].Attacker)
	assertDecimalEqual(t, outcome.Winnings, history.Attacks[0].Winnings)
	count, err := a.attacks.CountBySite(a.ctx, rustlers)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, 3, txs.Total)
	require.Len(t, flows.Flows, 2)
	assert.Equal(t, "COMBAT", flows.Flows[0].Group)
	assert.Equal(t, 2, flows.Flows[0].Transactions)
	assertDecimalEqual(t, outcome.Winnings.Sub(outcome.Cost), flows.Flows[0].NetFlow)
	assert.Equal(t, "CUSTODY", flows.Flows[1].Group)
	assertDecimalEqual(t, utils.Units(100), flows.Flows[1].NetFlow)

	require.Len(t, pl.Statements, 1)
	assert.Equal(t, "bandits", pl.Statements[0].Currency)
	assertDecimalEqual(t, outcome.Winnings, pl.Statements[0].TotalRevenue)
	assertDecimalEqual(t, outcome.Cost, pl.Statements[0].ExpenseBreakdown["ATTACK_COST"])
	assertDecimalEqual(t, outcome.Winnings.Sub(outcome.Cost), pl.Statements[0].NetProfit)
}

func TestMediator_FailedCommandLeavesNoTrace(t *testing.T) {
	// Arrange
	a := newApp(t)
	g := a.fundedGang(t, player1, 100)

	// Act
	_, err := a.mediator.Send(a.ctx, &gangCommands.WithdrawCurrencyCommand{Town: square, Player: player1, Gang: g, Currency: bandits, Amount: utils.Units(1)})
	_, errStranger := a.mediator.Send(a.ctx, &siteCommands.PrepareToMoveCommand{Site: rustlers, Player: player2, Gang: g, Destination: square})
	txs := a.send(t, &ledgerQueries.GetTransactionsQuery{Owner: g}).(*ledgerQueries.GetTransactionsResponse)

	// Assert
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	assert.ErrorIs(t, errStranger, shared.ErrPermissionDenied)
	assert.Equal(t, 1, txs.Total)
}

func TestMediator_PrepareToMoveAndLeave(t *testing.T) {
	// Arrange
	a := newApp(t)
	g := a.fundedGang(t, player1, 100)
	a.clock.Advance(time.Hour)

	// Act
	prepared := a.send(t, &siteCommands.PrepareToMoveCommand{Site: rustlers, Player: player1, Gang: g, Destination: square}).(*siteCommands.PrepareToMoveResponse)
	_, errEarly := a.mediator.Send(a.ctx, &gangCommands.MoveGangCommand{Player: player1, Gang: g, Destination: square})
	a.clock.Advance(4 * time.Hour)
	moved := a.send(t, &gangCommands.MoveGangCommand{Player: player1, Gang: g, Destination: square}).(*gangCommands.MoveGangResponse)

	// Assert
	assert.Equal(t, time0.Add(5*time.Hour), prepared.ReadyAt)
	assert.Error(t, errEarly)
	assert.Equal(t, rustlers, moved.From)
	assert.Equal(t, square, moved.To)
	claimed, err := a.world.Ledger.RedeemableAmount(a.ctx, g, resource)
	require.NoError(t, err)
	assert.True(t, claimed.IsPositive())
}

func TestMediator_ManageSiteRequiresManager(t *testing.T) {
	a := newApp(t)

	_, errStranger := a.mediator.Send(a.ctx, &siteCommands.SetBaseProdDailyCommand{Site: rustlers, Caller: player1, Amount: utils.Units(1)})
	a.send(t, &siteCommands.SetBaseProdDailyCommand{Site: rustlers, Caller: a.world.Manager(), Amount: utils.Units(50000)})
	dto := a.send(t, &siteQueries.GetSiteQuery{Site: rustlers}).(*siteQueries.SiteDTO)

	assert.ErrorIs(t, errStranger, shared.ErrPermissionDenied)
	assertDecimalEqual(t, utils.Units(50000), dto.BaseProdDaily)
	assert.Equal(t, []shared.Address{square}, dto.FixedDestinations)
}
