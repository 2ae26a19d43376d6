package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/gangsim/internal/adapters/metrics"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
)

// RecordTransactionCommand journals a committed share ledger movement
type RecordTransactionCommand struct {
	Transaction *ledger.Transaction
}

// RecordTransactionResponse represents the result of recording a transaction
type RecordTransactionResponse struct {
	TransactionID string
	Timestamp     time.Time
}

// RecordTransactionHandler handles the RecordTransaction command
type RecordTransactionHandler struct {
	transactionRepo ledger.TransactionRepository
}

// NewRecordTransactionHandler creates a new RecordTransactionHandler
func NewRecordTransactionHandler(transactionRepo ledger.TransactionRepository) *RecordTransactionHandler {
	return &RecordTransactionHandler{transactionRepo: transactionRepo}
}

// Handle executes the RecordTransaction command
func (h *RecordTransactionHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RecordTransactionCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RecordTransactionCommand")
	}
	if cmd.Transaction == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if err := cmd.Transaction.Validate(); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := h.transactionRepo.Create(ctx, cmd.Transaction); err != nil {
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	metrics.RecordTransaction(cmd.Transaction)

	return &RecordTransactionResponse{
		TransactionID: cmd.Transaction.ID().String(),
		Timestamp:     cmd.Transaction.Timestamp(),
	}, nil
}
