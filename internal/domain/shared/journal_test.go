package shared_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

func TestAtomically_RollsBackInReverseOrder(t *testing.T) {
	// Arrange
	var state []int
	push := func(ctx context.Context, v int) {
		state = append(state, v)
		shared.RecordUndo(ctx, func() { state = state[:len(state)-1] })
	}

	// Act
	err := shared.Atomically(context.Background(), func(ctx context.Context) error {
		push(ctx, 1)
		push(ctx, 2)
		return errors.New("boom")
	})

	// Assert
	require.Error(t, err)
	assert.Empty(t, state)
}

func TestAtomically_NestedFailureRollsBackOuterWork(t *testing.T) {
	// Arrange
	counter := 0
	committed := 0
	inc := func(ctx context.Context) {
		counter++
		shared.RecordUndo(ctx, func() { counter-- })
		shared.AfterCommit(ctx, func(context.Context) { committed++ })
	}

	// Act
	err := shared.Atomically(context.Background(), func(ctx context.Context) error {
		inc(ctx)
		if err := shared.Atomically(ctx, func(inner context.Context) error {
			inc(inner)
			return nil
		}); err != nil {
			return err
		}
		return shared.ErrInvalidTransition
	})

	// Assert
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.Equal(t, 0, counter)
	assert.Equal(t, 0, committed)
}

func TestAtomically_AfterCommitRunsOnceOnSuccess(t *testing.T) {
	// Arrange
	committed := 0

	// Act
	err := shared.Atomically(context.Background(), func(ctx context.Context) error {
		return shared.Atomically(ctx, func(inner context.Context) error {
			shared.AfterCommit(inner, func(context.Context) { committed++ })
			assert.Equal(t, 0, committed)
			return nil
		})
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, committed)
}

func TestAtomically_PanicRollsBack(t *testing.T) {
	counter := 0

	assert.Panics(t, func() {
		_ = shared.Atomically(context.Background(), func(ctx context.Context) error {
			counter++
			shared.RecordUndo(ctx, func() { counter-- })
			panic("unexpected")
		})
	})
	assert.Equal(t, 0, counter)
}

func TestRecordUndo_OutsideOperationIsFinal(t *testing.T) {
	called := false
	shared.RecordUndo(context.Background(), func() { called = true })
	assert.False(t, called)
	assert.False(t, shared.InOperation(context.Background()))
}
