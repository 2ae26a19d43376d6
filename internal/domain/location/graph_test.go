package location_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/domain/location"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/test/helpers"
)

const (
	graphAddr shared.Address = "location-controller"
	admin     shared.Address = "admin"
	minter    shared.Address = "entity-minter"
	player1   shared.Address = "player1"
	player2   shared.Address = "player2"
	player3   shared.Address = "player3"

	entity1 shared.EntityType = "entity1"
	entity2 shared.EntityType = "entity2"
)

// hookedLocation records hook calls and can be told to fail them
type hookedLocation struct {
	*location.Base
	arrivals   []shared.EntityRef
	departures []shared.EntityRef
	failArrive bool
}

func (h *hookedLocation) OnArrival(ctx context.Context, caller shared.Address, ref shared.EntityRef, source shared.Address) error {
	if err := h.Base.OnArrival(ctx, caller, ref, source); err != nil {
		return err
	}
	if h.failArrive {
		return errors.New("arrival hook failed")
	}
	h.arrivals = append(h.arrivals, ref)
	return nil
}

func (h *hookedLocation) OnDeparture(ctx context.Context, caller shared.Address, ref shared.EntityRef, dest shared.Address) error {
	if err := h.Base.OnDeparture(ctx, caller, ref, dest); err != nil {
		return err
	}
	h.departures = append(h.departures, ref)
	return nil
}

type world struct {
	graph  *location.Graph
	owners *helpers.MockOwnershipOracle
	locs   []*hookedLocation
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	roles := helpers.NewMockRoleGate()
	roles.Grant(admin, shared.RoleValidRouteSetter, shared.RoleValidEntitySetter)

	w := &world{graph: location.NewGraph(graphAddr), owners: helpers.NewMockOwnershipOracle()}
	require.NoError(t, w.graph.RegisterEntityType(entity1, minter, w.owners))
	require.NoError(t, w.graph.RegisterEntityType(entity2, minter, w.owners))

	addrs := []shared.Address{"location1", "location2", "location3"}
	for i, addr := range addrs {
		loc := &hookedLocation{Base: location.NewBase(addr, graphAddr, roles)}
		routes := []shared.Address{shared.SpawnSource}
		for j, other := range addrs {
			if i != j {
				routes = append(routes, other)
			}
		}
		require.NoError(t, loc.SetValidRoutes(ctx, admin, routes, true))
		require.NoError(t, loc.SetValidEntityTypes(ctx, admin, []shared.EntityType{entity1, entity2}, true))
		require.NoError(t, w.graph.Register(loc))
		w.locs = append(w.locs, loc)
	}
	return w
}

func (w *world) mint(t *testing.T, typ shared.EntityType, id uint64, owner shared.Address, loc shared.Address) shared.EntityRef {
	t.Helper()
	ref := shared.EntityRef{Type: typ, ID: id}
	w.owners.SetOwner(ref, owner)
	require.NoError(t, w.graph.Spawn(context.Background(), minter, ref, loc))
	return ref
}

func TestGraph_SpawnIndexesResidents(t *testing.T) {
	// Arrange
	w := newWorld(t)

	// Act
	e1a := w.mint(t, entity1, 0, player1, "location1")
	w.mint(t, entity2, 0, player1, "location1")
	w.mint(t, entity1, 1, player2, "location1")
	e2b := w.mint(t, entity2, 1, player3, "location2")
	e1c := w.mint(t, entity1, 2, player3, "location3")

	// Assert
	assert.Equal(t, []uint64{0, 1}, w.graph.LocalEntities("location1", entity1))
	assert.Equal(t, []uint64{0}, w.graph.LocalEntities("location1", entity2))
	assert.Empty(t, w.graph.LocalEntities("location2", entity1))
	assert.Equal(t, []uint64{1}, w.graph.LocalEntities("location2", entity2))
	assert.Equal(t, []uint64{2}, w.graph.LocalEntities("location3", entity1))
	assert.Empty(t, w.graph.LocalEntities("location3", entity2))

	assert.Equal(t, 2, w.graph.LocalEntityCount("location1", entity1))
	assert.Equal(t, 0, w.graph.LocalEntityCount("location3", entity2))

	for ref, want := range map[shared.EntityRef]shared.Address{e1a: "location1", e2b: "location2", e1c: "location3"} {
		got, err := w.graph.LocationOf(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, w.locs[0].arrivals, 3)
}

func TestGraph_MoveByOwner(t *testing.T) {
	// Arrange
	ctx := context.Background()
	w := newWorld(t)
	e0 := w.mint(t, entity1, 0, player1, "location1")
	e1 := w.mint(t, entity1, 1, player2, "location1")
	w.mint(t, entity2, 0, player1, "location1")

	// Act
	require.NoError(t, w.graph.Move(ctx, player1, e0, "location2"))
	require.NoError(t, w.graph.Move(ctx, player2, e1, "location2"))

	// Assert
	assert.Empty(t, w.graph.LocalEntities("location1", entity1))
	assert.Equal(t, []uint64{0}, w.graph.LocalEntities("location1", entity2))
	assert.Equal(t, []uint64{0, 1}, w.graph.LocalEntities("location2", entity1))
	assert.Equal(t, []shared.EntityRef{e0, e1}, w.locs[0].departures)
	assert.Equal(t, []shared.EntityRef{e0, e1}, w.locs[1].arrivals)
}

func TestGraph_MoveByNonOwnerIsDenied(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	e0 := w.mint(t, entity1, 0, player1, "location1")

	err := w.graph.Move(ctx, player2, e0, "location2")

	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	loc, _ := w.graph.LocationOf(ctx, e0)
	assert.Equal(t, shared.Address("location1"), loc)
}

func TestGraph_MoveAdmission(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	e0 := w.mint(t, entity1, 0, player1, "location1")

	t.Run("destination not a route of the current location", func(t *testing.T) {
		require.NoError(t, w.locs[0].SetValidRoutes(ctx, admin, []shared.Address{"location2"}, false))
		defer func() { require.NoError(t, w.locs[0].SetValidRoutes(ctx, admin, []shared.Address{"location2"}, true)) }()

		err := w.graph.Move(ctx, player1, e0, "location2")
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "invalid destination")
	})

	t.Run("source not a route of the destination", func(t *testing.T) {
		require.NoError(t, w.locs[1].SetValidRoutes(ctx, admin, []shared.Address{"location1"}, false))
		defer func() { require.NoError(t, w.locs[1].SetValidRoutes(ctx, admin, []shared.Address{"location1"}, true)) }()

		err := w.graph.Move(ctx, player1, e0, "location2")
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "invalid source")
	})

	t.Run("entity type not admitted at destination", func(t *testing.T) {
		require.NoError(t, w.locs[1].SetValidEntityTypes(ctx, admin, []shared.EntityType{entity1}, false))
		defer func() {
			require.NoError(t, w.locs[1].SetValidEntityTypes(ctx, admin, []shared.EntityType{entity1}, true))
		}()

		err := w.graph.Move(ctx, player1, e0, "location2")
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "invalid entity")
	})

	t.Run("unknown destination", func(t *testing.T) {
		err := w.graph.Move(ctx, player1, e0, "nowhere")
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	loc, _ := w.graph.LocationOf(ctx, e0)
	assert.Equal(t, shared.Address("location1"), loc)
}

func TestGraph_FailingArrivalHookRollsBackMove(t *testing.T) {
	// Arrange
	ctx := context.Background()
	w := newWorld(t)
	e0 := w.mint(t, entity1, 0, player1, "location1")
	w.locs[1].failArrive = true

	// Act
	err := w.graph.Move(ctx, player1, e0, "location2")

	// Assert
	require.Error(t, err)
	loc, _ := w.graph.LocationOf(ctx, e0)
	assert.Equal(t, shared.Address("location1"), loc)
	assert.Equal(t, []uint64{0}, w.graph.LocalEntities("location1", entity1))
	assert.Empty(t, w.graph.LocalEntities("location2", entity1))
}

func TestGraph_SpawnRequiresSpawnRoute(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	require.NoError(t, w.locs[2].SetValidRoutes(ctx, admin, []shared.Address{shared.SpawnSource}, false))

	ref := shared.EntityRef{Type: entity1, ID: 7}
	w.owners.SetOwner(ref, player1)

	err := w.graph.Spawn(ctx, minter, ref, "location3")
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	err = w.graph.Spawn(ctx, player2, ref, "location1")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)

	require.NoError(t, w.graph.Spawn(ctx, player1, ref, "location1"))
	err = w.graph.Spawn(ctx, minter, ref, "location2")
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestGraph_DespawnRunsOnlyDepartureHook(t *testing.T) {
	// Arrange
	ctx := context.Background()
	w := newWorld(t)
	e0 := w.mint(t, entity1, 0, player1, "location2")
	w.mint(t, entity1, 1, player2, "location2")

	// Act
	assert.ErrorIs(t, w.graph.Despawn(ctx, player2, e0), shared.ErrPermissionDenied)
	require.NoError(t, w.graph.Despawn(ctx, player1, e0))

	// Assert
	assert.Equal(t, []uint64{1}, w.graph.LocalEntities("location2", entity1))
	loc, _ := w.graph.LocationOf(ctx, e0)
	assert.True(t, loc.IsZero())
	assert.Equal(t, []shared.EntityRef{e0}, w.locs[1].departures)
	assert.ErrorIs(t, w.graph.Despawn(ctx, player1, e0), shared.ErrInvalidTransition)
}

func TestBase_HooksOnlyAcceptGraph(t *testing.T) {
	ctx := context.Background()
	base := location.NewBase("loc", graphAddr, helpers.NewMockRoleGate())
	ref := shared.EntityRef{Type: entity1, ID: 0}

	assert.ErrorIs(t, base.OnArrival(ctx, player1, ref, shared.SpawnSource), shared.ErrPermissionDenied)
	assert.ErrorIs(t, base.OnDeparture(ctx, player1, ref, "other"), shared.ErrPermissionDenied)
	assert.NoError(t, base.OnArrival(ctx, graphAddr, ref, shared.SpawnSource))
}

func TestBase_SettersAreRoleGated(t *testing.T) {
	ctx := context.Background()
	base := location.NewBase("loc", graphAddr, helpers.NewMockRoleGate())

	assert.ErrorIs(t, base.SetValidRoutes(ctx, player1, []shared.Address{"x"}, true), shared.ErrPermissionDenied)
	assert.ErrorIs(t, base.SetValidEntityTypes(ctx, player1, []shared.EntityType{entity1}, true), shared.ErrPermissionDenied)
	assert.False(t, base.IsValidRoute("x"))
}
