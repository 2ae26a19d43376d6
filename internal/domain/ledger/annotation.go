package ledger

import (
	"context"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// Annotation describes why the next ledger movement happens.
// Without one, deposits journal as DEPOSIT and withdrawals as WITHDRAWAL.
type Annotation struct {
	Type         TransactionType
	Counterparty shared.EntityRef
	Description  string
}

type annotationKey struct{}

// Annotate attaches an annotation for ledger calls made with the returned context
func Annotate(ctx context.Context, a Annotation) context.Context {
	return context.WithValue(ctx, annotationKey{}, a)
}

func annotationFrom(ctx context.Context, fallback TransactionType) Annotation {
	a, ok := ctx.Value(annotationKey{}).(Annotation)
	if !ok || !a.Type.IsValid() {
		a.Type = fallback
	}
	return a
}
