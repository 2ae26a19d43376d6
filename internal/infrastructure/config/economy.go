package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/roller"
	"github.com/andrescamacho/gangsim/internal/domain/site"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// GenesisLayout is the accepted format of economy.genesis
const GenesisLayout = time.RFC3339

// EconomyConfig holds the tunables of the simulated economy
type EconomyConfig struct {
	// Shares minted per base unit deposited into an empty pool
	BootstrapSharesPerUnit string `mapstructure:"bootstrap_shares_per_unit" validate:"required,decimal"`

	// Daily production of a site when the world file does not set one, in whole units
	DefaultProdDaily string `mapstructure:"default_prod_daily" validate:"required,decimal"`

	// How long a gang prepares before leaving a site
	TravelTime time.Duration `mapstructure:"travel_time"`

	// Minimum time between two attacks started by the same gang
	AttackCooldown time.Duration `mapstructure:"attack_cooldown"`

	// Share of the defender balance an attack takes, in basis points
	WinMinBps int64 `mapstructure:"win_min_bps" validate:"min=0,max=10000"`
	WinMaxBps int64 `mapstructure:"win_max_bps" validate:"min=0,max=10000,gtefield=WinMinBps"`

	// Share of the attacker balance burned per attack, in basis points
	AttackCostBps int64 `mapstructure:"attack_cost_bps" validate:"min=0,max=10000"`

	// Length of one random word tick
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required"`

	// Start of tick 0
	Genesis string `mapstructure:"genesis" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`

	// Label hashed into the seed of the random word chain
	GenesisSeed string `mapstructure:"genesis_seed" validate:"required"`
}

// BootstrapShares parses BootstrapSharesPerUnit
func (e EconomyConfig) BootstrapShares() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(e.BootstrapSharesPerUnit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid bootstrap shares: %w", err)
	}
	return d, nil
}

// DefaultProduction parses DefaultProdDaily into 18-decimal fixed point
func (e EconomyConfig) DefaultProduction() (decimal.Decimal, error) {
	return utils.ParseUnits(e.DefaultProdDaily)
}

// GenesisTime parses Genesis
func (e EconomyConfig) GenesisTime() (time.Time, error) {
	t, err := time.Parse(GenesisLayout, e.Genesis)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid genesis: %w", err)
	}
	return t, nil
}

// Seed derives the random word chain seed from GenesisSeed.
// A 64-character hex string is used as is.
func (e EconomyConfig) Seed() roller.Seed {
	if seed, err := roller.ParseSeed(e.GenesisSeed); err == nil {
		return seed
	}
	return roller.SeedFromString(e.GenesisSeed)
}

// CombatConfig builds the combat tuning shared by every site
func (e EconomyConfig) CombatConfig() site.CombatConfig {
	combat := site.DefaultCombatConfig()
	combat.Cooldown = e.AttackCooldown
	combat.WinMinBps = decimal.NewFromInt(e.WinMinBps)
	combat.WinMaxBps = decimal.NewFromInt(e.WinMaxBps)
	combat.CostBps = decimal.NewFromInt(e.AttackCostBps)
	return combat
}
