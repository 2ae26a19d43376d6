package boost

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// Calculator composes additive and multiplicative modifiers per category:
//
//	value = floor((base + Σ additive) × Π multiplicative / 10000^n)
//
// A single floor at the end keeps the result independent of registration order.
type Calculator struct {
	mu             sync.RWMutex
	roles          shared.RoleGate
	additive       map[Category]map[string]Modifier
	multiplicative map[Category]map[string]Modifier
}

// NewCalculator creates an empty calculator gated by BOOSTER_SETTER
func NewCalculator(roles shared.RoleGate) *Calculator {
	return &Calculator{
		roles:          roles,
		additive:       make(map[Category]map[string]Modifier),
		multiplicative: make(map[Category]map[string]Modifier),
	}
}

// SetAdditive enables or disables additive modifiers for a category. Idempotent.
func (c *Calculator) SetAdditive(ctx context.Context, caller shared.Address, category Category, mods []Modifier, enabled bool) error {
	return c.set(ctx, caller, c.additive, category, mods, enabled)
}

// SetMultiplicative enables or disables multiplicative (basis point) modifiers. Idempotent.
func (c *Calculator) SetMultiplicative(ctx context.Context, caller shared.Address, category Category, mods []Modifier, enabled bool) error {
	return c.set(ctx, caller, c.multiplicative, category, mods, enabled)
}

func (c *Calculator) set(ctx context.Context, caller shared.Address, sets map[Category]map[string]Modifier, category Category, mods []Modifier, enabled bool) error {
	if err := shared.RequireRole(ctx, c.roles, caller, shared.RoleBoosterSetter); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := sets[category]
	if !ok {
		set = make(map[string]Modifier)
		sets[category] = set
	}
	for _, m := range mods {
		id := m.ID()
		prev, existed := set[id]
		if enabled {
			set[id] = m
		} else {
			delete(set, id)
		}
		shared.RecordUndo(ctx, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if existed {
				set[id] = prev
			} else {
				delete(set, id)
			}
		})
	}
	return nil
}

// BoostedValue applies the category's modifiers for target to base
func (c *Calculator) BoostedValue(ctx context.Context, base decimal.Decimal, category Category, target shared.EntityRef) (decimal.Decimal, error) {
	additive, multiplicative := c.Modifiers(category)

	sum := base
	for _, m := range additive {
		v, err := m.Value(ctx, target)
		if err != nil {
			return decimal.Zero, fmt.Errorf("additive modifier %s: %w", m.ID(), err)
		}
		sum = sum.Add(v)
	}

	if len(multiplicative) == 0 {
		return sum.Floor(), nil
	}

	product := sum
	denominator := decimal.NewFromInt(1)
	for _, m := range multiplicative {
		v, err := m.Value(ctx, target)
		if err != nil {
			return decimal.Zero, fmt.Errorf("multiplicative modifier %s: %w", m.ID(), err)
		}
		product = product.Mul(v)
		denominator = denominator.Mul(utils.BPS)
	}
	return utils.MulDivFloor(product, decimal.NewFromInt(1), denominator), nil
}

// Modifiers returns the enabled modifiers of a category sorted by ID
func (c *Calculator) Modifiers(category Category) (additive, multiplicative []Modifier) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sorted(c.additive[category]), sorted(c.multiplicative[category])
}

func sorted(set map[string]Modifier) []Modifier {
	mods := make([]Modifier, 0, len(set))
	for _, m := range set {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].ID() < mods[j].ID() })
	return mods
}
