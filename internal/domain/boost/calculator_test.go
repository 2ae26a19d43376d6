package boost_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/domain/boost"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/test/helpers"
)

var gang = shared.EntityRef{Type: "gangs", ID: 1}

const admin shared.Address = "admin"

func newCalculator() *boost.Calculator {
	roles := helpers.NewMockRoleGate()
	roles.Grant(admin, shared.RoleBoosterSetter)
	return boost.NewCalculator(roles)
}

func constant(name string, v int64) boost.Modifier {
	return boost.Constant{Name: name, Amount: decimal.NewFromInt(v)}
}

func TestBoostedValue_UnregisteredCategoryReturnsBase(t *testing.T) {
	calc := newCalculator()

	v, err := calc.BoostedValue(context.Background(), decimal.NewFromInt(777), boost.CategoryGangPower, gang)

	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(777)))
}

func TestBoostedValue_AdditiveThenMultiplicative(t *testing.T) {
	// Arrange
	ctx := context.Background()
	calc := newCalculator()
	require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{constant("a", 100), constant("b", 50)}, true))
	require.NoError(t, calc.SetMultiplicative(ctx, admin, boost.CategoryGangPull, []boost.Modifier{constant("x", 15000), constant("y", 11000)}, true))

	// Act
	v, err := calc.BoostedValue(ctx, decimal.NewFromInt(10), boost.CategoryGangPull, gang)

	// Assert: (10+100+50) × 1.5 × 1.1 = 264
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(264)), "got %s", v)
}

func TestBoostedValue_SingleFloorAtEnd(t *testing.T) {
	ctx := context.Background()
	calc := newCalculator()
	require.NoError(t, calc.SetMultiplicative(ctx, admin, boost.CategoryGangPull, []boost.Modifier{constant("x", 15000), constant("y", 15000)}, true))

	// 3 × 2.25 = 6.75
	v, err := calc.BoostedValue(ctx, decimal.NewFromInt(3), boost.CategoryGangPull, gang)

	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(6)), "got %s", v)

	v, err = calc.BoostedValue(ctx, decimal.NewFromInt(5), boost.CategoryGangPull, gang)
	require.NoError(t, err)
	// 5 × 2.25 = 11.25; flooring after each step would give floor(7 × 1.5) = 10
	assert.True(t, v.Equal(decimal.NewFromInt(11)), "got %s", v)
}

func TestBoostedValue_IndependentOfRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	additive := []boost.Modifier{constant("a1", 3), constant("a2", 1000), constant("a3", 77)}
	multiplicative := []boost.Modifier{constant("m1", 12345), constant("m2", 9999), constant("m3", 20001), constant("m4", 10001)}

	var want decimal.Decimal
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		calc := newCalculator()
		rng.Shuffle(len(additive), func(a, b int) { additive[a], additive[b] = additive[b], additive[a] })
		rng.Shuffle(len(multiplicative), func(a, b int) { multiplicative[a], multiplicative[b] = multiplicative[b], multiplicative[a] })
		for _, m := range additive {
			require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPower, []boost.Modifier{m}, true))
		}
		for _, m := range multiplicative {
			require.NoError(t, calc.SetMultiplicative(ctx, admin, boost.CategoryGangPower, []boost.Modifier{m}, true))
		}

		got, err := calc.BoostedValue(ctx, decimal.NewFromInt(12), boost.CategoryGangPower, gang)
		require.NoError(t, err)
		if i == 0 {
			want = got
			continue
		}
		assert.True(t, want.Equal(got), "iteration %d: %s != %s", i, got, want)
	}
}

func TestSetAdditive_IdempotentToggle(t *testing.T) {
	ctx := context.Background()
	calc := newCalculator()
	mod := constant("a", 5)

	require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{mod}, true))
	require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{mod}, true))

	v, err := calc.BoostedValue(ctx, decimal.Zero, boost.CategoryGangPull, gang)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(5)))

	require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{mod}, false))
	require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{mod}, false))

	v, err = calc.BoostedValue(ctx, decimal.Zero, boost.CategoryGangPull, gang)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestSetMultiplicative_RequiresBoosterSetter(t *testing.T) {
	calc := newCalculator()

	err := calc.SetMultiplicative(context.Background(), "mallory", boost.CategoryGangPull, []boost.Modifier{constant("x", 20000)}, true)

	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	add, mul := calc.Modifiers(boost.CategoryGangPull)
	assert.Empty(t, add)
	assert.Empty(t, mul)
}

func TestSetAdditive_RolledBackWithOperation(t *testing.T) {
	calc := newCalculator()

	err := shared.Atomically(context.Background(), func(ctx context.Context) error {
		if err := calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{constant("a", 5)}, true); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})

	require.Error(t, err)
	add, _ := calc.Modifiers(boost.CategoryGangPull)
	assert.Empty(t, add)
}

func TestModifiers_StoredBalanceAndItemCount(t *testing.T) {
	// Arrange
	ctx := context.Background()
	balances := helpers.NewMockBalanceReader()
	balances.Set(gang, "bandits", decimal.NewFromInt(1000))
	custody := helpers.NewMockItemCustody()
	custody.Set(gang, "outlaws", 3)

	stored := boost.StoredBalance{Ledger: balances, Currency: "bandits", Bps: decimal.NewFromInt(10000)}
	items := boost.ItemCount{Custody: custody, Collection: "outlaws", Base: decimal.NewFromInt(10000), PerItem: decimal.NewFromInt(500)}

	calc := newCalculator()
	require.NoError(t, calc.SetAdditive(ctx, admin, boost.CategoryGangPull, []boost.Modifier{stored}, true))
	require.NoError(t, calc.SetMultiplicative(ctx, admin, boost.CategoryGangPull, []boost.Modifier{items}, true))

	// Act
	v, err := calc.BoostedValue(ctx, decimal.Zero, boost.CategoryGangPull, gang)

	// Assert: 1000 × 1.15
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(1150)), "got %s", v)
}
