package location

import (
	"context"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// Location is a node of the movement graph.
//
// Check* methods are read-only admission checks. On* hooks run inside the
// transition and may mutate state; a failing hook aborts the whole transition.
// Hooks must only accept calls from the graph.
type Location interface {
	Address() shared.Address

	// CheckArrival admits ref coming from source (SpawnSource for spawns)
	CheckArrival(ctx context.Context, ref shared.EntityRef, source shared.Address) error
	// CheckDeparture admits ref leaving for destination
	CheckDeparture(ctx context.Context, ref shared.EntityRef, destination shared.Address) error

	OnArrival(ctx context.Context, caller shared.Address, ref shared.EntityRef, source shared.Address) error
	OnDeparture(ctx context.Context, caller shared.Address, ref shared.EntityRef, destination shared.Address) error
}
