package gang

import (
	"context"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// EntityType is the collection name of gangs in the location graph
const EntityType shared.EntityType = "gangs"

// Spawner places freshly minted gangs, implemented by the location graph
type Spawner interface {
	Spawn(ctx context.Context, caller shared.Address, ref shared.EntityRef, loc shared.Address) error
}

// Registry issues sequential gang ids and tracks their owners
type Registry struct {
	mu      sync.RWMutex
	address shared.Address
	roles   shared.RoleGate
	spawner Spawner
	owners  []shared.Address
}

// NewRegistry creates an empty registry acting as address toward the spawner
func NewRegistry(address shared.Address, roles shared.RoleGate, spawner Spawner) *Registry {
	return &Registry{address: address, roles: roles, spawner: spawner}
}

func (r *Registry) Address() shared.Address {
	return r.address
}

// Ref builds the entity reference of gang id
func Ref(id uint64) shared.EntityRef {
	return shared.EntityRef{Type: EntityType, ID: id}
}

// Mint creates a gang owned by to and spawns it at loc. Requires MINTER_ROLE.
func (r *Registry) Mint(ctx context.Context, caller, to, loc shared.Address) (shared.EntityRef, error) {
	if err := shared.RequireRole(ctx, r.roles, caller, shared.RoleMinter); err != nil {
		return shared.EntityRef{}, err
	}
	if to.IsZero() {
		return shared.EntityRef{}, shared.NewInvalidTransitionError("cannot mint a gang to the zero address")
	}

	var ref shared.EntityRef
	err := shared.Atomically(ctx, func(ctx context.Context) error {
		r.mu.Lock()
		ref = Ref(uint64(len(r.owners)))
		r.owners = append(r.owners, to)
		r.mu.Unlock()
		shared.RecordUndo(ctx, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.owners = r.owners[:ref.ID]
		})
		return r.spawner.Spawn(ctx, r.address, ref, loc)
	})
	return ref, err
}

// OwnerOf implements shared.OwnershipOracle
func (r *Registry) OwnerOf(_ context.Context, ref shared.EntityRef) (shared.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ref.Type != EntityType || ref.ID >= uint64(len(r.owners)) {
		return shared.ZeroAddress, shared.NewInvalidTransitionError("gang %s does not exist", ref)
	}
	return r.owners[ref.ID], nil
}

// Transfer hands a gang to a new owner; only the current owner may transfer
func (r *Registry) Transfer(ctx context.Context, caller shared.Address, ref shared.EntityRef, to shared.Address) error {
	if err := shared.RequireOwner(ctx, r, caller, ref); err != nil {
		return err
	}
	if to.IsZero() {
		return shared.NewInvalidTransitionError("cannot transfer a gang to the zero address")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.owners[ref.ID]
	r.owners[ref.ID] = to
	shared.RecordUndo(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.owners[ref.ID] = prev
	})
	return nil
}

// TokensOfOwner lists the gangs owned by owner in id order
func (r *Registry) TokensOfOwner(owner shared.Address) []shared.EntityRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []shared.EntityRef
	for id, o := range r.owners {
		if o == owner {
			out = append(out, Ref(uint64(id)))
		}
	}
	return out
}

// Count returns how many gangs were minted
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}
