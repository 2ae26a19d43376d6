// Package roller maps random words onto bounded, optionally biased draws.
//
// All values are 18-decimal fixed point. A draw takes the seed modulo 1.0 as a
// fraction f in [0, 1) and interpolates between min and max. A biased draw
// first raises f to the power of bias, which pulls results toward min when
// bias > 1 and toward max when bias < 1.
package roller

import (
	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// lnExpPrecision is the number of decimal places carried through ln and exp
const lnExpPrecision = 40

var maxFraction = utils.WAD.Sub(decimal.NewFromInt(1))

// Fraction returns seed mod 1.0 in 18-decimal fixed point
func Fraction(seed Seed) decimal.Decimal {
	return decimal.NewFromBigInt(seed.Int(), 0).Mod(utils.WAD)
}

// UniformDraw returns min + f*(max-min)/1.0 with f = seed mod 1.0
func UniformDraw(seed Seed, min, max decimal.Decimal) (decimal.Decimal, error) {
	if err := checkRange(min, max); err != nil {
		return decimal.Zero, err
	}
	return interpolate(Fraction(seed), min, max), nil
}

// BiasedDraw returns min + f^bias*(max-min)/1.0 with f = seed mod 1.0.
// bias is 18-decimal fixed point; a bias of exactly 1.0 reproduces UniformDraw.
func BiasedDraw(seed Seed, min, max, bias decimal.Decimal) (decimal.Decimal, error) {
	if err := checkRange(min, max); err != nil {
		return decimal.Zero, err
	}
	if !bias.IsPositive() {
		return decimal.Zero, shared.NewArithmeticOverflowError("bias must be positive, got %s", bias)
	}

	frac := Fraction(seed)
	if bias.Equal(utils.WAD) || frac.IsZero() {
		return interpolate(frac, min, max), nil
	}

	biased, err := pow(frac, bias)
	if err != nil {
		return decimal.Zero, err
	}
	return interpolate(biased, min, max), nil
}

// pow computes (frac/1.0)^(bias/1.0) scaled back to 18 decimals as exp(bias*ln(frac)).
// The result is floored and kept strictly below 1.0.
func pow(frac, bias decimal.Decimal) (decimal.Decimal, error) {
	ln, err := frac.Shift(-18).Ln(lnExpPrecision)
	if err != nil {
		return decimal.Zero, shared.NewArithmeticOverflowError("ln(%s): %v", frac, err)
	}
	e, err := ln.Mul(bias.Shift(-18)).ExpTaylor(lnExpPrecision)
	if err != nil {
		return decimal.Zero, shared.NewArithmeticOverflowError("exp: %v", err)
	}
	return utils.Clamp(e.Shift(18).Truncate(0), decimal.Zero, maxFraction), nil
}

func interpolate(frac, min, max decimal.Decimal) decimal.Decimal {
	return min.Add(utils.MulDivFloor(frac, max.Sub(min), utils.WAD))
}

func checkRange(min, max decimal.Decimal) error {
	if min.GreaterThan(max) {
		return shared.NewInvalidTransitionError("invalid draw range: min %s exceeds max %s", min, max)
	}
	return nil
}
