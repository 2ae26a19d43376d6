package world

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/adapters/access"
	"github.com/andrescamacho/gangsim/internal/adapters/custody"
	"github.com/andrescamacho/gangsim/internal/adapters/rng"
	"github.com/andrescamacho/gangsim/internal/adapters/token"
	"github.com/andrescamacho/gangsim/internal/domain/boost"
	"github.com/andrescamacho/gangsim/internal/domain/gang"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/location"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
	"github.com/andrescamacho/gangsim/internal/domain/town"
	"github.com/andrescamacho/gangsim/internal/infrastructure/config"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// World is a wired economy: the in-memory collaborators and every location of a layout
type World struct {
	Layout   Layout
	Clock    shared.Clock
	Roles    *access.RoleTable
	Bank     *token.Bank
	Items    *custody.ItemVault
	Graph    *location.Graph
	Registry *gang.Registry
	Ledger   *ledger.ShareLedger
	Boosts   *boost.Calculator
	RNG      *rng.TickChain

	towns map[shared.Address]*town.Town
	sites map[shared.Address]*site.Site
}

// Build wires a world from layout. clock nil means the real clock.
func Build(ctx context.Context, layout Layout, econ config.EconomyConfig, clock shared.Clock, opts ...ledger.Option) (*World, error) {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	bootstrap, err := econ.BootstrapShares()
	if err != nil {
		return nil, err
	}
	genesis, err := econ.GenesisTime()
	if err != nil {
		return nil, err
	}
	chain, err := rng.NewTickChain(clock, genesis, econ.TickInterval, econ.Seed())
	if err != nil {
		return nil, err
	}

	w := &World{
		Layout: layout,
		Clock:  clock,
		Roles:  access.NewRoleTable(),
		Bank:   token.NewBank(),
		Items:  custody.NewItemVault(),
		Graph:  location.NewGraph(shared.Address(layout.Graph)),
		RNG:    chain,
		towns:  make(map[shared.Address]*town.Town),
		sites:  make(map[shared.Address]*site.Site),
	}
	manager := w.Manager()
	w.Roles.Grant(manager, shared.RoleManager, shared.RoleValidRouteSetter, shared.RoleValidEntitySetter, shared.RoleBoosterSetter)

	w.Registry = gang.NewRegistry(shared.Address(layout.Registry), w.Roles, w.Graph)
	if err := w.Graph.RegisterEntityType(gang.EntityType, w.Registry.Address(), w.Registry); err != nil {
		return nil, err
	}
	w.Ledger = ledger.NewShareLedger(shared.Address(layout.Ledger), w.Bank, w.Graph, clock,
		append([]ledger.Option{ledger.WithBootstrapShares(bootstrap)}, opts...)...)

	w.Boosts = boost.NewCalculator(w.Roles)
	if err := w.setBoosters(ctx, manager); err != nil {
		return nil, err
	}

	for _, spec := range layout.Towns {
		if err := w.addTown(ctx, spec); err != nil {
			return nil, err
		}
	}
	for _, spec := range layout.Locations {
		base := location.NewBase(shared.Address(spec.Address), w.Graph.Address(), w.Roles)
		if err := configureBase(ctx, base, manager, addresses(spec.Routes)); err != nil {
			return nil, err
		}
		if err := w.Graph.Register(base); err != nil {
			return nil, err
		}
	}
	for _, spec := range layout.Sites {
		if err := w.addSite(ctx, spec, econ); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Manager is the account holding every administrative role
func (w *World) Manager() shared.Address {
	return shared.Address(w.Layout.Manager)
}

// Town returns the town at addr
func (w *World) Town(addr shared.Address) (*town.Town, error) {
	t, ok := w.towns[addr]
	if !ok {
		return nil, shared.NewInvalidTransitionError("%s is not a town", addr)
	}
	return t, nil
}

// Site returns the site at addr
func (w *World) Site(addr shared.Address) (*site.Site, error) {
	s, ok := w.sites[addr]
	if !ok {
		return nil, shared.NewInvalidTransitionError("%s is not a site", addr)
	}
	return s, nil
}

// Towns returns every town, sorted by address
func (w *World) Towns() []*town.Town {
	out := make([]*town.Town, 0, len(w.towns))
	for _, t := range w.towns {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address() < out[j].Address() })
	return out
}

// Sites returns every site, sorted by address
func (w *World) Sites() []*site.Site {
	out := make([]*site.Site, 0, len(w.sites))
	for _, s := range w.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address() < out[j].Address() })
	return out
}

func (w *World) addTown(ctx context.Context, spec TownSpec) error {
	addr := shared.Address(spec.Address)
	w.Roles.Grant(addr, shared.RoleMinter)

	t, err := town.NewTown(addr, w.Graph.Address(), town.Dependencies{
		Gangs:   w.Registry,
		Owners:  w.Registry,
		Roles:   w.Roles,
		Custody: w.Ledger,
		Wallets: w.Bank,
	})
	if err != nil {
		return err
	}
	routes := append([]shared.Address{shared.SpawnSource}, addresses(spec.Routes)...)
	if err := configureBase(ctx, t.Base, w.Manager(), routes); err != nil {
		return err
	}
	if err := t.SetCurrencies(ctx, w.Manager(), addresses(spec.Currencies), true); err != nil {
		return err
	}
	if err := w.Graph.Register(t); err != nil {
		return err
	}
	w.towns[addr] = t
	return nil
}

func (w *World) addSite(ctx context.Context, spec SiteSpec, econ config.EconomyConfig) error {
	prod, err := econ.DefaultProduction()
	if spec.BaseProdDaily != "" {
		prod, err = utils.ParseUnits(spec.BaseProdDaily)
	}
	if err != nil {
		return fmt.Errorf("site %s: %w", spec.Address, err)
	}
	travel := econ.TravelTime
	if spec.TravelTime != "" {
		if travel, err = time.ParseDuration(spec.TravelTime); err != nil {
			return fmt.Errorf("site %s: %w", spec.Address, err)
		}
	}

	s, err := site.NewSite(site.Config{
		Address:       shared.Address(spec.Address),
		GraphAddress:  w.Graph.Address(),
		Resource:      shared.Address(spec.Resource),
		Stake:         shared.Address(spec.Stake),
		BaseProdDaily: prod,
		TravelTime:    travel,
		Combat:        econ.CombatConfig(),
	}, site.Dependencies{
		Owners:  w.Graph,
		Roles:   w.Roles,
		Custody: w.Ledger,
		Supply:  w.Bank,
		Boosts:  w.Boosts,
		RNG:     w.RNG,
		Clock:   w.Clock,
	})
	if err != nil {
		return err
	}
	if err := configureBase(ctx, s.Base, w.Manager(), addresses(spec.Routes)); err != nil {
		return err
	}
	if err := s.SetFixedDestinations(ctx, w.Manager(), addresses(spec.FixedDestinations), true); err != nil {
		return err
	}
	if err := w.Graph.Register(s); err != nil {
		return err
	}
	w.sites[s.Address()] = s
	return nil
}

func (w *World) setBoosters(ctx context.Context, manager shared.Address) error {
	for category, spec := range w.Layout.Boosters {
		c := boost.Category(category)
		add, err := w.modifiers(spec.Additive, true)
		if err != nil {
			return fmt.Errorf("booster %s: %w", category, err)
		}
		mul, err := w.modifiers(spec.Multiplicative, false)
		if err != nil {
			return fmt.Errorf("booster %s: %w", category, err)
		}
		if err := w.Boosts.SetAdditive(ctx, manager, c, add, true); err != nil {
			return err
		}
		if err := w.Boosts.SetMultiplicative(ctx, manager, c, mul, true); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) modifiers(specs []ModifierSpec, additive bool) ([]boost.Modifier, error) {
	mods := make([]boost.Modifier, 0, len(specs))
	for _, m := range specs {
		switch m.Kind {
		case "constant":
			amount := decimal.NewFromInt(m.Bps)
			if additive {
				var err error
				if amount, err = utils.ParseUnits(m.Amount); err != nil {
					return nil, fmt.Errorf("constant %s: %w", m.Name, err)
				}
			}
			mods = append(mods, boost.Constant{Name: m.Name, Amount: amount})
		case "stored_balance":
			mods = append(mods, boost.StoredBalance{Ledger: w.Ledger, Currency: shared.Address(m.Currency), Bps: decimal.NewFromInt(m.Bps)})
		case "item_count":
			mods = append(mods, boost.ItemCount{
				Custody:    w.Items,
				Collection: shared.Address(m.Collection),
				Base:       decimal.NewFromInt(m.Base),
				PerItem:    decimal.NewFromInt(m.PerItem),
			})
		default:
			return nil, fmt.Errorf("unknown modifier kind %q", m.Kind)
		}
	}
	return mods, nil
}

func configureBase(ctx context.Context, base *location.Base, manager shared.Address, routes []shared.Address) error {
	if err := base.SetValidRoutes(ctx, manager, routes, true); err != nil {
		return err
	}
	return base.SetValidEntityTypes(ctx, manager, []shared.EntityType{gang.EntityType}, true)
}

func addresses(names []string) []shared.Address {
	out := make([]shared.Address, len(names))
	for i, n := range names {
		out[i] = shared.Address(n)
	}
	return out
}
