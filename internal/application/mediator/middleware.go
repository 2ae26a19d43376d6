package mediator

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// Operation is implemented by commands that mutate the world.
// Their ledger transactions are tagged with a generated operation id.
type Operation interface {
	OperationType() string
	OperationSubject() string
}

type serializedKey struct{}

// SerializeMiddleware runs one request at a time.
// Requests sent from inside a running request reuse its turn.
func SerializeMiddleware() Middleware {
	var mu sync.Mutex
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		if ctx.Value(serializedKey{}) != nil {
			return next(ctx, request)
		}
		mu.Lock()
		defer mu.Unlock()
		return next(context.WithValue(ctx, serializedKey{}, true), request)
	}
}

// AtomicMiddleware runs each request as one all-or-nothing operation
func AtomicMiddleware() Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		if op, ok := request.(Operation); ok {
			id := utils.GenerateOperationID(op.OperationType(), op.OperationSubject())
			ctx = shared.WithOperation(ctx, shared.NewOperationContext(id, op.OperationType()))
		}

		var response Response
		err := shared.Atomically(ctx, func(ctx context.Context) error {
			var err error
			response, err = next(ctx, request)
			return err
		})
		if err != nil {
			return nil, err
		}
		return response, nil
	}
}

// LoggingMiddleware logs failed requests through the context logger
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		response, err := next(ctx, request)
		if err != nil {
			logging.LoggerFromContext(ctx).Log("WARNING", fmt.Sprintf("%T failed: %v", request, err), map[string]interface{}{
				"request": fmt.Sprintf("%T", request),
			})
		}
		return response, err
	}
}
