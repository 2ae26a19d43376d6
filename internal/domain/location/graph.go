// Package location implements the permissioned movement graph: which entity
// sits where, and which transitions between locations are legal.
package location

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

type entityTypeInfo struct {
	spawner shared.Address
	owners  shared.OwnershipOracle
}

// Graph owns the membership index. For every spawned entity the forward index
// (entity -> location) and the per-location resident lists agree; both change
// only through Spawn, Move and Despawn.
//
// Hooks are invoked without holding the graph lock so locations may query the
// graph (and the ledger may resolve locations) from inside a hook.
type Graph struct {
	mu         sync.RWMutex
	address    shared.Address
	locations  map[shared.Address]Location
	types      map[shared.EntityType]entityTypeInfo
	residents  map[shared.Address]map[shared.EntityType][]uint64
	locationOf map[shared.EntityRef]shared.Address
}

// NewGraph creates an empty graph acting as address when invoking hooks
func NewGraph(address shared.Address) *Graph {
	return &Graph{
		address:    address,
		locations:  make(map[shared.Address]Location),
		types:      make(map[shared.EntityType]entityTypeInfo),
		residents:  make(map[shared.Address]map[shared.EntityType][]uint64),
		locationOf: make(map[shared.EntityRef]shared.Address),
	}
}

// Address is the caller identity presented to location hooks
func (g *Graph) Address() shared.Address {
	return g.address
}

// Register adds a location node
func (g *Graph) Register(loc Location) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	addr := loc.Address()
	if addr.IsZero() {
		return fmt.Errorf("location address cannot be empty")
	}
	if _, exists := g.locations[addr]; exists {
		return fmt.Errorf("location %s already registered", addr)
	}
	g.locations[addr] = loc
	return nil
}

// RegisterEntityType declares a collection of entities, the account allowed to
// spawn them and the oracle resolving their owners
func (g *Graph) RegisterEntityType(entityType shared.EntityType, spawner shared.Address, owners shared.OwnershipOracle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.types[entityType]; exists {
		return fmt.Errorf("entity type %s already registered", entityType)
	}
	g.types[entityType] = entityTypeInfo{spawner: spawner, owners: owners}
	return nil
}

// Location returns the registered location at addr
func (g *Graph) Location(addr shared.Address) (Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[addr]
	return loc, ok
}

// Locations returns every registered location
func (g *Graph) Locations() []Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Location, 0, len(g.locations))
	for _, loc := range g.locations {
		out = append(out, loc)
	}
	return out
}

// OwnerOf implements shared.OwnershipOracle by delegating to the entity type's oracle
func (g *Graph) OwnerOf(ctx context.Context, ref shared.EntityRef) (shared.Address, error) {
	g.mu.RLock()
	info, ok := g.types[ref.Type]
	g.mu.RUnlock()
	if !ok {
		return shared.ZeroAddress, shared.NewInvalidTransitionError("unknown entity type %s", ref.Type)
	}
	return info.owners.OwnerOf(ctx, ref)
}

// Spawn places an unassigned entity at loc. caller must be the entity type's
// spawner or the entity's owner.
func (g *Graph) Spawn(ctx context.Context, caller shared.Address, ref shared.EntityRef, loc shared.Address) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		g.mu.RLock()
		info, typeKnown := g.types[ref.Type]
		_, placed := g.locationOf[ref]
		target, locKnown := g.locations[loc]
		g.mu.RUnlock()

		if !typeKnown {
			return shared.NewInvalidTransitionError("unknown entity type %s", ref.Type)
		}
		if caller != info.spawner {
			if err := shared.RequireOwner(ctx, info.owners, caller, ref); err != nil {
				return err
			}
		}
		if placed {
			return shared.NewInvalidTransitionError("%s is already spawned", ref)
		}
		if !locKnown {
			return shared.NewInvalidTransitionError("unknown location %s", loc)
		}
		if err := target.CheckArrival(ctx, ref, shared.SpawnSource); err != nil {
			return err
		}

		g.place(ctx, ref, loc)
		return target.OnArrival(ctx, g.address, ref, shared.SpawnSource)
	})
}

// Move relocates ref to destination on behalf of its owner. The departure hook
// of the current location, the relocation and the arrival hook of the
// destination happen as one operation.
func (g *Graph) Move(ctx context.Context, caller shared.Address, ref shared.EntityRef, destination shared.Address) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := shared.RequireOwner(ctx, g, caller, ref); err != nil {
			return err
		}

		g.mu.RLock()
		current, placed := g.locationOf[ref]
		from := g.locations[current]
		to, destKnown := g.locations[destination]
		g.mu.RUnlock()

		if !placed {
			return shared.NewInvalidTransitionError("%s is not spawned", ref)
		}
		if !destKnown {
			return shared.NewInvalidTransitionError("unknown location %s", destination)
		}
		if err := from.CheckDeparture(ctx, ref, destination); err != nil {
			return err
		}
		if err := to.CheckArrival(ctx, ref, current); err != nil {
			return err
		}

		if err := from.OnDeparture(ctx, g.address, ref, destination); err != nil {
			return err
		}
		g.unplace(ctx, ref)
		g.place(ctx, ref, destination)
		return to.OnArrival(ctx, g.address, ref, current)
	})
}

// Despawn removes ref from the graph on behalf of its owner, running only the
// departure hook of its location
func (g *Graph) Despawn(ctx context.Context, caller shared.Address, ref shared.EntityRef) error {
	return shared.Atomically(ctx, func(ctx context.Context) error {
		if err := shared.RequireOwner(ctx, g, caller, ref); err != nil {
			return err
		}

		g.mu.RLock()
		current, placed := g.locationOf[ref]
		from := g.locations[current]
		g.mu.RUnlock()

		if !placed {
			return shared.NewInvalidTransitionError("%s is not spawned", ref)
		}
		if err := from.OnDeparture(ctx, g.address, ref, shared.ZeroAddress); err != nil {
			return err
		}
		g.unplace(ctx, ref)
		return nil
	})
}

// LocationOf returns where ref resides, or ZeroAddress when it is not spawned
func (g *Graph) LocationOf(_ context.Context, ref shared.EntityRef) (shared.Address, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.locationOf[ref], nil
}

// LocalEntities returns the ids of entityType residing at loc, in arrival order
func (g *Graph) LocalEntities(loc shared.Address, entityType shared.EntityType) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := g.residents[loc][entityType]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// LocalEntityCount returns how many entities of entityType reside at loc
func (g *Graph) LocalEntityCount(loc shared.Address, entityType shared.EntityType) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.residents[loc][entityType])
}

func (g *Graph) place(ctx context.Context, ref shared.EntityRef, loc shared.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	byType, ok := g.residents[loc]
	if !ok {
		byType = make(map[shared.EntityType][]uint64)
		g.residents[loc] = byType
	}
	prev := byType[ref.Type]
	byType[ref.Type] = append(append([]uint64(nil), prev...), ref.ID)
	g.locationOf[ref] = loc

	shared.RecordUndo(ctx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		byType[ref.Type] = prev
		delete(g.locationOf, ref)
	})
}

func (g *Graph) unplace(ctx context.Context, ref shared.EntityRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	loc := g.locationOf[ref]
	byType := g.residents[loc]
	prev := byType[ref.Type]
	next := make([]uint64, 0, len(prev))
	for _, id := range prev {
		if id != ref.ID {
			next = append(next, id)
		}
	}
	byType[ref.Type] = next
	delete(g.locationOf, ref)

	shared.RecordUndo(ctx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		byType[ref.Type] = prev
		g.locationOf[ref] = loc
	})
}
