package commands

import (
	"context"

	"github.com/andrescamacho/gangsim/internal/application/logging"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
)

// JournalObserver forwards committed ledger transactions to RecordTransactionCommand.
// A failed write is logged; the ledger movement itself already committed.
type JournalObserver struct {
	mediator mediator.Mediator
}

// NewJournalObserver creates an observer sending through m
func NewJournalObserver(m mediator.Mediator) *JournalObserver {
	return &JournalObserver{mediator: m}
}

// TransactionCommitted implements ledger.TransactionObserver
func (o *JournalObserver) TransactionCommitted(ctx context.Context, tx *ledger.Transaction) {
	if _, err := o.mediator.Send(ctx, &RecordTransactionCommand{Transaction: tx}); err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "failed to journal transaction", map[string]interface{}{
			"transaction_id": tx.ID().String(),
			"owner":          tx.Owner().String(),
			"type":           tx.TransactionType().String(),
			"error":          err.Error(),
		})
	}
}
