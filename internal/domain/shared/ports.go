package shared

import "context"

// Role names a permission granted by the external role system
type Role string

const (
	RoleValidRouteSetter  Role = "VALID_ROUTE_SETTER"
	RoleValidEntitySetter Role = "VALID_ENTITY_SETTER"
	RoleBoosterSetter     Role = "BOOSTER_SETTER"
	RoleManager           Role = "MANAGER_ROLE"
	RoleMinter            Role = "MINTER_ROLE"
)

// OwnershipOracle resolves the owner of an entity
type OwnershipOracle interface {
	OwnerOf(ctx context.Context, ref EntityRef) (Address, error)
}

// RoleGate answers role membership questions
type RoleGate interface {
	HasRole(ctx context.Context, account Address, role Role) bool
}

// RequireRole fails with PermissionDenied unless account holds role
func RequireRole(ctx context.Context, gate RoleGate, account Address, role Role) error {
	if gate == nil || !gate.HasRole(ctx, account, role) {
		return NewPermissionDeniedError("%s is missing role %s", account, role)
	}
	return nil
}

// RequireOwner fails with PermissionDenied unless caller owns ref
func RequireOwner(ctx context.Context, oracle OwnershipOracle, caller Address, ref EntityRef) error {
	owner, err := oracle.OwnerOf(ctx, ref)
	if err != nil {
		return err
	}
	if owner != caller {
		return NewPermissionDeniedError("%s is not the owner of %s", caller, ref)
	}
	return nil
}
