package shared_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

func TestDomainError_MatchesSentinelOfSameKind(t *testing.T) {
	err := fmt.Errorf("move failed: %w", shared.NewPermissionDeniedError("not the owner"))

	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	assert.NotErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))
	assert.Equal(t, "move failed: not the owner", err.Error())
}

func TestKindOf_NonDomainError(t *testing.T) {
	assert.Equal(t, shared.ErrorKind(""), shared.KindOf(fmt.Errorf("plain")))
}

func TestParseEntityRef(t *testing.T) {
	ref, err := shared.ParseEntityRef("gangs:42")
	assert.NoError(t, err)
	assert.Equal(t, shared.EntityRef{Type: "gangs", ID: 42}, ref)
	assert.Equal(t, "gangs:42", ref.String())

	_, err = shared.ParseEntityRef("gangs")
	assert.Error(t, err)
	_, err = shared.ParseEntityRef(":1")
	assert.Error(t, err)
}

type staticRoles map[shared.Address][]shared.Role

func (s staticRoles) HasRole(_ context.Context, account shared.Address, role shared.Role) bool {
	for _, r := range s[account] {
		if r == role {
			return true
		}
	}
	return false
}

func TestRequireRole(t *testing.T) {
	gate := staticRoles{"admin": {shared.RoleManager}}

	assert.NoError(t, shared.RequireRole(context.Background(), gate, "admin", shared.RoleManager))
	assert.ErrorIs(t, shared.RequireRole(context.Background(), gate, "admin", shared.RoleMinter), shared.ErrPermissionDenied)
	assert.ErrorIs(t, shared.RequireRole(context.Background(), nil, "admin", shared.RoleManager), shared.ErrPermissionDenied)
}

func TestOperationContext_OutermostWins(t *testing.T) {
	ctx := shared.WithOperation(context.Background(), shared.NewOperationContext("claim-1", "claim"))
	ctx = shared.WithOperation(ctx, shared.NewOperationContext("attack-1", "attack"))

	op := shared.OperationFromContext(ctx)
	assert.Equal(t, "claim-1", op.OperationID)
	assert.Nil(t, shared.NewOperationContext("", "claim"))
}
