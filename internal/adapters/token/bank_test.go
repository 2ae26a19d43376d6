package token_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/adapters/token"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

const usd shared.Address = "usd"

func TestBank_MintTransferBurn(t *testing.T) {
	// Arrange
	ctx := context.Background()
	bank := token.NewBank()

	// Act
	require.NoError(t, bank.Mint(ctx, usd, "alice", decimal.NewFromInt(100)))
	require.NoError(t, bank.Transfer(ctx, usd, "alice", "bob", decimal.NewFromInt(40)))
	require.NoError(t, bank.Burn(ctx, usd, "bob", decimal.NewFromInt(15)))

	// Assert
	alice, _ := bank.BalanceOf(ctx, usd, "alice")
	bob, _ := bank.BalanceOf(ctx, usd, "bob")
	assert.True(t, alice.Equal(decimal.NewFromInt(60)))
	assert.True(t, bob.Equal(decimal.NewFromInt(25)))
	assert.True(t, bank.TotalSupply(usd).Equal(decimal.NewFromInt(85)))
	assert.Equal(t, []shared.Address{usd}, bank.Currencies())
}

func TestBank_TransferInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	require.NoError(t, bank.Mint(ctx, usd, "alice", decimal.NewFromInt(10)))

	err := bank.Transfer(ctx, usd, "alice", "bob", decimal.NewFromInt(11))

	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	assert.ErrorIs(t, bank.Burn(ctx, usd, "bob", decimal.NewFromInt(1)), shared.ErrInsufficientBalance)
}

func TestBank_RollsBackWithOperation(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	require.NoError(t, bank.Mint(ctx, usd, "alice", decimal.NewFromInt(10)))

	err := shared.Atomically(ctx, func(ctx context.Context) error {
		require.NoError(t, bank.Transfer(ctx, usd, "alice", "bob", decimal.NewFromInt(4)))
		require.NoError(t, bank.Mint(ctx, usd, "bob", decimal.NewFromInt(6)))
		return errors.New("abort")
	})

	require.Error(t, err)
	alice, _ := bank.BalanceOf(ctx, usd, "alice")
	bob, _ := bank.BalanceOf(ctx, usd, "bob")
	assert.True(t, alice.Equal(decimal.NewFromInt(10)))
	assert.True(t, bob.IsZero())
	assert.True(t, bank.TotalSupply(usd).Equal(decimal.NewFromInt(10)))
}
