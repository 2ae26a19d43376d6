package roller_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/domain/roller"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

func expectedUniform(seed roller.Seed, min, max decimal.Decimal) decimal.Decimal {
	wad := utils.WAD.BigInt()
	frac := new(big.Int).Mod(seed.Int(), wad)
	scaled := new(big.Int).Mul(frac, max.Sub(min).BigInt())
	scaled.Quo(scaled, wad)
	return min.Add(decimal.NewFromBigInt(scaled, 0))
}

func TestUniformDraw_MatchesFractionFormula(t *testing.T) {
	// Arrange
	seed := roller.SeedFromString("SEED_1")
	min, max := utils.Units(0), utils.Units(100)

	// Act
	roll, err := roller.UniformDraw(seed, min, max)

	// Assert
	require.NoError(t, err)
	assert.True(t, roll.Equal(expectedUniform(seed, min, max)), "got %s", roll)
	assert.True(t, roll.LessThan(max))
	assert.True(t, roll.GreaterThanOrEqual(min))
}

func TestUniformDraw_OffsetRange(t *testing.T) {
	seed := roller.SeedFromString("offset")
	min, max := decimal.NewFromInt(1000), decimal.NewFromInt(5000)

	roll, err := roller.UniformDraw(seed, min, max)

	require.NoError(t, err)
	assert.True(t, roll.Equal(expectedUniform(seed, min, max)))
}

func TestBiasedDraw_UnitBiasEqualsUniform(t *testing.T) {
	seed := roller.SeedFromString("SEED_1")
	min, max := utils.Units(0), utils.Units(100)

	uniform, err := roller.UniformDraw(seed, min, max)
	require.NoError(t, err)
	biased, err := roller.BiasedDraw(seed, min, max, utils.WAD)
	require.NoError(t, err)

	assert.True(t, uniform.Equal(biased))
}

func TestBiasedDraw_SkewsTowardMinAboveOneAndMaxBelowOne(t *testing.T) {
	min, max := utils.Units(0), utils.Units(100)
	two := utils.Units(2)
	half := utils.WAD.Div(decimal.NewFromInt(2))

	seed := roller.SeedFromString("SEED_2")
	for i := 0; i < 200; i++ {
		uniform, err := roller.UniformDraw(seed, min, max)
		require.NoError(t, err)
		low, err := roller.BiasedDraw(seed, min, max, two)
		require.NoError(t, err)
		high, err := roller.BiasedDraw(seed, min, max, half)
		require.NoError(t, err)

		assert.True(t, low.LessThanOrEqual(uniform), "bias 2: %s > %s", low, uniform)
		assert.True(t, high.GreaterThanOrEqual(uniform), "bias 0.5: %s < %s", high, uniform)
		assert.True(t, low.GreaterThanOrEqual(min))
		assert.True(t, high.LessThan(max))

		frac := roller.Fraction(seed)
		if frac.GreaterThan(utils.WAD.Div(decimal.NewFromInt(100))) && frac.LessThan(utils.WAD.Mul(decimal.NewFromFloat(0.99))) {
			assert.True(t, low.LessThan(uniform))
			assert.True(t, high.GreaterThan(uniform))
		}
		seed = seed.Next()
	}
}

func TestBiasedDraw_SquareOfFraction(t *testing.T) {
	// A seed whose fraction is exactly 0.5 squares to 0.25
	seed := seedWithFraction(t, utils.WAD.Div(decimal.NewFromInt(2)))

	roll, err := roller.BiasedDraw(seed, decimal.Zero, utils.Units(100), utils.Units(2))

	require.NoError(t, err)
	assert.True(t, roll.Sub(utils.Units(25)).Abs().LessThanOrEqual(decimal.NewFromInt(100)), "got %s", roll)
}

func TestBiasedDraw_ZeroFractionReturnsMin(t *testing.T) {
	var seed roller.Seed
	roll, err := roller.BiasedDraw(seed, decimal.NewFromInt(1000), decimal.NewFromInt(5000), utils.Units(3))

	require.NoError(t, err)
	assert.True(t, roll.Equal(decimal.NewFromInt(1000)))
}

func TestBiasedDraw_RejectsBadInput(t *testing.T) {
	seed := roller.SeedFromString("bad")

	_, err := roller.BiasedDraw(seed, decimal.Zero, utils.Units(1), decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrArithmeticOverflow)

	_, err = roller.UniformDraw(seed, utils.Units(2), utils.Units(1))
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = roller.BiasedDraw(seed, utils.Units(2), utils.Units(1), utils.WAD)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestUniformDraw_EvenlySpacedSeedsHitQuartilesExactly(t *testing.T) {
	// Arrange: seeds whose fractions are i/1000 for i in [0, 1000)
	min, max := decimal.Zero, utils.Units(100)
	step := utils.WAD.Div(decimal.NewFromInt(1000))

	var sum decimal.Decimal
	under25, over75 := 0, 0

	// Act
	for i := int64(0); i < 1000; i++ {
		seed := seedWithFraction(t, step.Mul(decimal.NewFromInt(i)))
		roll, err := roller.UniformDraw(seed, min, max)
		require.NoError(t, err)
		sum = sum.Add(roll)
		if roll.LessThan(utils.Units(25)) {
			under25++
		}
		if roll.GreaterThan(utils.Units(75)) {
			over75++
		}
	}

	// Assert
	mean := sum.Div(decimal.NewFromInt(1000))
	assert.True(t, mean.Sub(utils.Units(50)).Abs().LessThanOrEqual(utils.Units(2)), "mean %s", mean)
	assert.Equal(t, 250, under25)
	assert.Equal(t, 249, over75)
}

func TestUniformDraw_HashChainDistribution(t *testing.T) {
	// Arrange
	const rolls = 10000
	min, max := decimal.Zero, utils.Units(100)
	seed := roller.SeedFromString("SEED_4")

	var sum decimal.Decimal
	under25, over75 := 0, 0

	// Act
	for i := 0; i < rolls; i++ {
		roll, err := roller.UniformDraw(seed, min, max)
		require.NoError(t, err)
		sum = sum.Add(roll)
		if roll.LessThan(utils.Units(25)) {
			under25++
		}
		if roll.GreaterThan(utils.Units(75)) {
			over75++
		}
		seed = seed.Next()
	}

	// Assert
	mean := sum.Div(decimal.NewFromInt(rolls))
	assert.True(t, mean.Sub(utils.Units(50)).Abs().LessThanOrEqual(utils.Units(2)), "mean %s", mean)
	assert.InDelta(t, 0.25, float64(under25)/rolls, 0.025)
	assert.InDelta(t, 0.25, float64(over75)/rolls, 0.025)
}

func seedWithFraction(t *testing.T, frac decimal.Decimal) roller.Seed {
	t.Helper()
	var seed roller.Seed
	b := frac.BigInt().Bytes()
	require.LessOrEqual(t, len(b), len(seed))
	copy(seed[len(seed)-len(b):], b)
	return seed
}
