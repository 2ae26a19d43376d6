package mediator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

type pingCommand struct{ Subject string }

func (c *pingCommand) OperationType() string    { return "ping" }
func (c *pingCommand) OperationSubject() string { return c.Subject }

type pongQuery struct{}

func TestMediator_SendDispatchesToRegisteredHandler(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*pingCommand](m, mediator.HandlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			return "pong:" + request.(*pingCommand).Subject, nil
		})))

	// Act
	response, err := m.Send(context.Background(), &pingCommand{Subject: "gangs:1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pong:gangs:1", response)
}

func TestMediator_RegisterRejectsDuplicatesAndUnknownTypes(t *testing.T) {
	m := mediator.NewMediator()
	handler := mediator.HandlerFunc(func(context.Context, mediator.Request) (mediator.Response, error) { return nil, nil })
	require.NoError(t, mediator.RegisterHandler[*pingCommand](m, handler))

	assert.Error(t, mediator.RegisterHandler[*pingCommand](m, handler))
	_, err := m.Send(context.Background(), &pongQuery{})
	assert.Error(t, err)
	_, err = m.Send(context.Background(), nil)
	assert.Error(t, err)
}

func TestMediator_MiddlewareOrder(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	var calls []string
	trace := func(name string) mediator.Middleware {
		return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
			calls = append(calls, name+">")
			defer func() { calls = append(calls, "<"+name) }()
			return next(ctx, request)
		}
	}
	m.Use(trace("outer"))
	m.Use(trace("inner"))
	require.NoError(t, mediator.RegisterHandler[*pongQuery](m, mediator.HandlerFunc(
		func(context.Context, mediator.Request) (mediator.Response, error) {
			calls = append(calls, "handler")
			return nil, nil
		})))

	// Act
	_, err := m.Send(context.Background(), &pongQuery{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "handler", "<inner", "<outer"}, calls)
}

func TestAtomicMiddleware_RollsBackFailedRequests(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	m.Use(mediator.AtomicMiddleware())
	counter := 0
	var op *shared.OperationContext
	require.NoError(t, mediator.RegisterHandler[*pingCommand](m, mediator.HandlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			op = shared.OperationFromContext(ctx)
			counter++
			shared.RecordUndo(ctx, func() { counter-- })
			if request.(*pingCommand).Subject == "fail" {
				return nil, errors.New("boom")
			}
			return nil, nil
		})))

	// Act
	_, errOK := m.Send(context.Background(), &pingCommand{Subject: "gangs:1"})
	_, errFail := m.Send(context.Background(), &pingCommand{Subject: "fail"})

	// Assert
	require.NoError(t, errOK)
	assert.Error(t, errFail)
	assert.Equal(t, 1, counter)
	require.NotNil(t, op)
	assert.Equal(t, "ping", op.OperationType)
	assert.Contains(t, op.OperationID, "ping-fail-")
}

func TestSerializeMiddleware_AllowsNestedSends(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	m.Use(mediator.SerializeMiddleware())
	require.NoError(t, mediator.RegisterHandler[*pongQuery](m, mediator.HandlerFunc(
		func(context.Context, mediator.Request) (mediator.Response, error) { return "pong", nil })))
	require.NoError(t, mediator.RegisterHandler[*pingCommand](m, mediator.HandlerFunc(
		func(ctx context.Context, _ mediator.Request) (mediator.Response, error) {
			return m.Send(ctx, &pongQuery{})
		})))

	// Act
	var wg sync.WaitGroup
	results := make([]mediator.Response, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.Send(context.Background(), &pingCommand{})
		}(i)
	}
	wg.Wait()

	// Assert
	for _, r := range results {
		assert.Equal(t, "pong", r)
	}
}
