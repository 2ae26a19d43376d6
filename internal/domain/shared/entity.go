package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// Address identifies an actor: a player, a location or a system account.
type Address string

// ZeroAddress is the unassigned address. As a route it marks the spawn pseudo-source.
const ZeroAddress Address = ""

// SpawnSource is the route a location must allow to accept freshly spawned entities
const SpawnSource = ZeroAddress

// IsZero reports whether the address is unassigned
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	if a.IsZero() {
		return "<spawn>"
	}
	return string(a)
}

// EntityType names a collection of entities, e.g. "gangs"
type EntityType string

// EntityRef is a value object identifying an entity by (type, id)
type EntityRef struct {
	Type EntityType
	ID   uint64
}

// NewEntityRef creates a new EntityRef value object
func NewEntityRef(entityType EntityType, id uint64) (EntityRef, error) {
	if entityType == "" {
		return EntityRef{}, fmt.Errorf("entity type must not be empty")
	}
	return EntityRef{Type: entityType, ID: id}, nil
}

// ParseEntityRef parses the "type:id" form produced by String
func ParseEntityRef(s string) (EntityRef, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return EntityRef{}, fmt.Errorf("invalid entity reference %q: expected type:id", s)
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return EntityRef{}, fmt.Errorf("invalid entity reference %q: %w", s, err)
	}
	return NewEntityRef(EntityType(typ), n)
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// IsZero checks if the EntityRef is the zero value (uninitialized)
func (r EntityRef) IsZero() bool {
	return r.Type == "" && r.ID == 0
}
