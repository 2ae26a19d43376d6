package location

import (
	"context"
	"sort"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// Base implements route and entity-type admission for a location.
// Concrete locations embed it and override the hooks they need.
type Base struct {
	mu            sync.RWMutex
	address       shared.Address
	graph         shared.Address
	roles         shared.RoleGate
	validRoutes   map[shared.Address]bool
	validEntities map[shared.EntityType]bool
}

// NewBase creates a location at address driven by the graph at graphAddress
func NewBase(address, graphAddress shared.Address, roles shared.RoleGate) *Base {
	return &Base{
		address:       address,
		graph:         graphAddress,
		roles:         roles,
		validRoutes:   make(map[shared.Address]bool),
		validEntities: make(map[shared.EntityType]bool),
	}
}

func (b *Base) Address() shared.Address {
	return b.address
}

// GraphAddress returns the only address allowed to invoke hooks
func (b *Base) GraphAddress() shared.Address {
	return b.graph
}

// SetValidRoutes toggles routes; requires VALID_ROUTE_SETTER
func (b *Base) SetValidRoutes(ctx context.Context, caller shared.Address, routes []shared.Address, enabled bool) error {
	if err := shared.RequireRole(ctx, b.roles, caller, shared.RoleValidRouteSetter); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range routes {
		toggle(ctx, &b.mu, b.validRoutes, r, enabled)
	}
	return nil
}

// SetValidEntityTypes toggles admitted entity types; requires VALID_ENTITY_SETTER
func (b *Base) SetValidEntityTypes(ctx context.Context, caller shared.Address, types []shared.EntityType, enabled bool) error {
	if err := shared.RequireRole(ctx, b.roles, caller, shared.RoleValidEntitySetter); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		toggle(ctx, &b.mu, b.validEntities, t, enabled)
	}
	return nil
}

// IsValidRoute reports whether route is an admitted source and destination
func (b *Base) IsValidRoute(route shared.Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.validRoutes[route]
}

// IsValidEntityType reports whether entities of t may arrive
func (b *Base) IsValidEntityType(t shared.EntityType) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.validEntities[t]
}

// ValidRoutes lists admitted routes, sorted
func (b *Base) ValidRoutes() []shared.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	routes := make([]shared.Address, 0, len(b.validRoutes))
	for r := range b.validRoutes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })
	return routes
}

func (b *Base) CheckArrival(_ context.Context, ref shared.EntityRef, source shared.Address) error {
	if !b.IsValidRoute(source) {
		return shared.NewInvalidTransitionError("invalid source %s for %s", source, b.address)
	}
	if !b.IsValidEntityType(ref.Type) {
		return shared.NewInvalidTransitionError("invalid entity %s for %s", ref.Type, b.address)
	}
	return nil
}

func (b *Base) CheckDeparture(_ context.Context, _ shared.EntityRef, destination shared.Address) error {
	if !b.IsValidRoute(destination) {
		return shared.NewInvalidTransitionError("invalid destination %s from %s", destination, b.address)
	}
	return nil
}

func (b *Base) OnArrival(_ context.Context, caller shared.Address, _ shared.EntityRef, _ shared.Address) error {
	return b.RequireGraph(caller)
}

func (b *Base) OnDeparture(_ context.Context, caller shared.Address, _ shared.EntityRef, _ shared.Address) error {
	return b.RequireGraph(caller)
}

// RequireGraph fails unless caller is the graph driving this location
func (b *Base) RequireGraph(caller shared.Address) error {
	if caller != b.graph {
		return shared.NewPermissionDeniedError("sender must be the location graph, got %s", caller)
	}
	return nil
}

// toggle must be called with mu held for writing
func toggle[K comparable](ctx context.Context, mu *sync.RWMutex, set map[K]bool, key K, enabled bool) {
	prev := set[key]
	if enabled {
		set[key] = true
	} else {
		delete(set, key)
	}
	shared.RecordUndo(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if prev {
			set[key] = true
		} else {
			delete(set, key)
		}
	})
}
