package shared

import "context"

// OperationContext provides traceability from a high-level operation (a claim,
// an attack resolution, a town deposit) down to the individual ledger
// transactions it produced.
//
// When the share ledger records a transaction inside an operation, it stores
// the operation ID as the related entity, enabling queries like:
//
//	SELECT SUM(amount) FROM gang_transactions
//	WHERE operation_type = 'attack'
//	  AND operation_id = 'attack-gangs-7-abc12345'
type OperationContext struct {
	// OperationID is the unique identifier of the operation
	OperationID string

	// OperationType is the kind of operation, e.g. "claim", "attack", "town"
	OperationType string
}

// NewOperationContext creates a new operation context with validation
func NewOperationContext(operationID, operationType string) *OperationContext {
	if operationID == "" || operationType == "" {
		return nil
	}
	return &OperationContext{
		OperationID:   operationID,
		OperationType: operationType,
	}
}

// IsValid returns true if the context has required fields
func (c *OperationContext) IsValid() bool {
	return c != nil && c.OperationID != "" && c.OperationType != ""
}

// String returns a human-readable representation of the context
func (c *OperationContext) String() string {
	if c == nil {
		return "<no operation>"
	}
	return c.OperationType + ":" + c.OperationID
}

type operationKey struct{}

// WithOperation attaches an operation context, keeping an existing one if present
// so the outermost operation owns every nested transaction.
func WithOperation(ctx context.Context, op *OperationContext) context.Context {
	if !op.IsValid() || OperationFromContext(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFromContext returns the operation in flight, or nil
func OperationFromContext(ctx context.Context) *OperationContext {
	op, _ := ctx.Value(operationKey{}).(*OperationContext)
	return op
}
