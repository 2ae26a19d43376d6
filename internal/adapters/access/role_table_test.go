package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/gangsim/internal/adapters/access"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

func TestRoleTable_GrantAndRevoke(t *testing.T) {
	// Arrange
	ctx := context.Background()
	table := access.NewRoleTable()

	// Act
	table.Grant("manager", shared.RoleManager, shared.RoleBoosterSetter)
	table.Grant("town", shared.RoleMinter)
	table.Revoke("manager", shared.RoleBoosterSetter)

	// Assert
	assert.True(t, table.HasRole(ctx, "manager", shared.RoleManager))
	assert.False(t, table.HasRole(ctx, "manager", shared.RoleBoosterSetter))
	assert.False(t, table.HasRole(ctx, "town", shared.RoleManager))
	assert.Equal(t, []shared.Address{"town"}, table.Members(shared.RoleMinter))
	assert.NoError(t, shared.RequireRole(ctx, table, "town", shared.RoleMinter))
	assert.ErrorIs(t, shared.RequireRole(ctx, table, "player", shared.RoleMinter), shared.ErrPermissionDenied)
}
