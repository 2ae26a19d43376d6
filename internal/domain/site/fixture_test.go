package site_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/adapters/token"
	"github.com/andrescamacho/gangsim/internal/domain/boost"
	"github.com/andrescamacho/gangsim/internal/domain/gang"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/location"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
	"github.com/andrescamacho/gangsim/pkg/utils"
	"github.com/andrescamacho/gangsim/test/helpers"
)

const (
	graphAddr  shared.Address = "location-controller"
	storeAddr  shared.Address = "entity-store"
	townAddr   shared.Address = "town-square"
	storeShop  shared.Address = "silver-store"
	siteAddr   shared.Address = "resource-0"
	manager    shared.Address = "manager"
	gangMinter shared.Address = "gangs"

	bandits  shared.Address = "bandits"
	resource shared.Address = "resource-0-token"
	ustsd    shared.Address = "ustsd"

	player1 shared.Address = "player1"
	player2 shared.Address = "player2"
	player3 shared.Address = "player3"
)

var time0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ctx    context.Context
	clock  *shared.MockClock
	roles  *helpers.MockRoleGate
	owners *helpers.MockOwnershipOracle
	items  *helpers.MockItemCustody
	rng    *helpers.MockRNG
	bank   *token.Bank
	graph  *location.Graph
	ledger *ledger.ShareLedger
	calc   *boost.Calculator
	town   *location.Base
	site   *site.Site
}

// newFixture wires a town and one resource site producing 1 unit per day.
// Pull and power are the stored bandits balance; pull gains 10% per ustsd item.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		clock:  shared.NewMockClock(time0),
		roles:  helpers.NewMockRoleGate(),
		owners: helpers.NewMockOwnershipOracle(),
		items:  helpers.NewMockItemCustody(),
		rng:    helpers.NewMockRNG(),
		bank:   token.NewBank(),
		graph:  location.NewGraph(graphAddr),
	}
	f.roles.Grant(manager, shared.RoleManager, shared.RoleValidRouteSetter, shared.RoleValidEntitySetter, shared.RoleBoosterSetter)
	require.NoError(t, f.graph.RegisterEntityType(gang.EntityType, gangMinter, f.owners))

	f.ledger = ledger.NewShareLedger(storeAddr, f.bank, f.graph, f.clock)
	f.calc = boost.NewCalculator(f.roles)

	stored := boost.StoredBalance{Ledger: f.ledger, Currency: bandits, Bps: utils.BPS}
	mul1x := boost.Constant{Name: "1x", Amount: utils.BPS}
	perItem := boost.ItemCount{Custody: f.items, Collection: ustsd, Base: utils.BPS, PerItem: decimal.NewFromInt(1000)}
	require.NoError(t, f.calc.SetAdditive(f.ctx, manager, boost.CategoryGangPull, []boost.Modifier{stored}, true))
	require.NoError(t, f.calc.SetMultiplicative(f.ctx, manager, boost.CategoryGangPull, []boost.Modifier{mul1x, perItem}, true))
	require.NoError(t, f.calc.SetAdditive(f.ctx, manager, boost.CategoryGangPower, []boost.Modifier{stored}, true))
	require.NoError(t, f.calc.SetMultiplicative(f.ctx, manager, boost.CategoryGangPower, []boost.Modifier{mul1x}, true))
	require.NoError(t, f.calc.SetMultiplicative(f.ctx, manager, boost.CategoryGangProdDaily, []boost.Modifier{mul1x}, true))

	f.town = location.NewBase(townAddr, graphAddr, f.roles)
	require.NoError(t, f.town.SetValidRoutes(f.ctx, manager, []shared.Address{shared.SpawnSource, siteAddr}, true))
	require.NoError(t, f.town.SetValidEntityTypes(f.ctx, manager, []shared.EntityType{gang.EntityType}, true))

	s, err := site.NewSite(site.Config{
		Address:       siteAddr,
		GraphAddress:  graphAddr,
		Resource:      resource,
		Stake:         bandits,
		BaseProdDaily: utils.Units(1),
		TravelTime:    4 * time.Hour,
		Combat:        site.DefaultCombatConfig(),
	}, site.Dependencies{
		Owners:  f.graph,
		Roles:   f.roles,
		Custody: f.ledger,
		Supply:  f.bank,
		Boosts:  f.calc,
		RNG:     f.rng,
		Clock:   f.clock,
	})
	require.NoError(t, err)
	f.site = s
	require.NoError(t, f.site.SetValidRoutes(f.ctx, manager, []shared.Address{townAddr}, true))
	require.NoError(t, f.site.SetValidEntityTypes(f.ctx, manager, []shared.EntityType{gang.EntityType}, true))
	require.NoError(t, f.site.SetFixedDestinations(f.ctx, manager, []shared.Address{townAddr}, true))

	require.NoError(t, f.graph.Register(f.town))
	require.NoError(t, f.graph.Register(f.site))
	return f
}

// spawnGang spawns a gang at the town and deposits its bandits
func (f *fixture) spawnGang(t *testing.T, id uint64, owner shared.Address, banditUnits int64) shared.EntityRef {
	t.Helper()
	ref := gang.Ref(id)
	f.owners.SetOwner(ref, owner)
	require.NoError(t, f.graph.Spawn(f.ctx, gangMinter, ref, townAddr))
	if banditUnits > 0 {
		amount := utils.Units(banditUnits)
		require.NoError(t, f.bank.Mint(f.ctx, bandits, townAddr, amount))
		require.NoError(t, f.ledger.Deposit(f.ctx, townAddr, ref, bandits, amount))
	}
	return ref
}

func (f *fixture) moveToSite(t *testing.T, ref shared.EntityRef) {
	t.Helper()
	owner, err := f.owners.OwnerOf(f.ctx, ref)
	require.NoError(t, err)
	require.NoError(t, f.graph.Move(f.ctx, owner, ref, siteAddr))
}

func (f *fixture) balance(t *testing.T, ref shared.EntityRef, currency shared.Address) decimal.Decimal {
	t.Helper()
	amount, err := f.ledger.RedeemableAmount(f.ctx, ref, currency)
	require.NoError(t, err)
	return amount
}

func assertDecimalEqual(t *testing.T, expected, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, expected.Equal(actual), "expected %s, got %s %v", expected, actual, msgAndArgs)
}

func assertDecimalClose(t *testing.T, expected, actual, tolerance decimal.Decimal) {
	t.Helper()
	require.Truef(t, expected.Sub(actual).Abs().LessThanOrEqual(tolerance),
		"expected %s within %s of %s", actual, tolerance, expected)
}
