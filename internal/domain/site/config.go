package site

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// CombatConfig maps an attack roll onto its outcome
type CombatConfig struct {
	// Cooldown between two attacks started by the same gang
	Cooldown time.Duration
	// WinMinBps and WinMaxBps bound the share of the defender balance taken
	WinMinBps decimal.Decimal
	WinMaxBps decimal.Decimal
	// CostBps of the attacker balance is burned on every resolved attack
	CostBps decimal.Decimal
	// BiasMin and BiasMax clamp defender power / attacker power (18 decimals)
	BiasMin decimal.Decimal
	BiasMax decimal.Decimal
}

// DefaultCombatConfig returns a 4h cooldown, 10%-50% winnings, 2% cost and bias in [0.1, 10]
func DefaultCombatConfig() CombatConfig {
	return CombatConfig{
		Cooldown:  4 * time.Hour,
		WinMinBps: decimal.NewFromInt(1000),
		WinMaxBps: decimal.NewFromInt(5000),
		CostBps:   decimal.NewFromInt(200),
		BiasMin:   utils.WAD.Div(decimal.NewFromInt(10)),
		BiasMax:   utils.WAD.Mul(decimal.NewFromInt(10)),
	}
}

// Validate checks the configured bounds
func (c CombatConfig) Validate() error {
	if c.Cooldown < 0 {
		return fmt.Errorf("attack cooldown must not be negative")
	}
	if c.WinMinBps.IsNegative() || c.WinMinBps.GreaterThan(c.WinMaxBps) || c.WinMaxBps.GreaterThan(utils.BPS) {
		return fmt.Errorf("winnings range [%s, %s] must be within [0, 10000] bps", c.WinMinBps, c.WinMaxBps)
	}
	if c.CostBps.IsNegative() || c.CostBps.GreaterThan(utils.BPS) {
		return fmt.Errorf("attack cost %s must be within [0, 10000] bps", c.CostBps)
	}
	if !c.BiasMin.IsPositive() || c.BiasMin.GreaterThan(c.BiasMax) {
		return fmt.Errorf("bias range [%s, %s] must be positive and ordered", c.BiasMin, c.BiasMax)
	}
	return nil
}

// Config describes one production site
type Config struct {
	Address      shared.Address
	GraphAddress shared.Address
	// Resource is the currency produced and claimed at the site
	Resource shared.Address
	// Stake is the currency attacks are paid and won in
	Stake shared.Address
	// BaseProdDaily is the total production per day shared by working gangs
	BaseProdDaily decimal.Decimal
	// TravelTime is how long a gang prepares before it may leave
	TravelTime time.Duration
	Combat     CombatConfig
}

// Validate checks a site configuration
func (c Config) Validate() error {
	if c.Address.IsZero() || c.GraphAddress.IsZero() {
		return fmt.Errorf("site and graph addresses are required")
	}
	if c.Resource.IsZero() || c.Stake.IsZero() {
		return fmt.Errorf("site %s: resource and stake currencies are required", c.Address)
	}
	if c.BaseProdDaily.IsNegative() {
		return fmt.Errorf("site %s: base production must not be negative", c.Address)
	}
	if c.TravelTime < 0 {
		return fmt.Errorf("site %s: travel time must not be negative", c.Address)
	}
	if err := c.Combat.Validate(); err != nil {
		return fmt.Errorf("site %s: %w", c.Address, err)
	}
	return nil
}
