package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// GetTransactionsQuery represents a query to retrieve the journal of one gang
type GetTransactionsQuery struct {
	Owner           shared.EntityRef
	StartDate       *time.Time
	EndDate         *time.Time
	Currency        *string
	Category        *string
	TransactionType *string
	OperationType   *string
	Limit           int
	Offset          int
	OrderBy         string
}

// GetTransactionsResponse represents the result of the query
type GetTransactionsResponse struct {
	Transactions []*TransactionDTO
	Total        int
}

// TransactionDTO represents a transaction data transfer object
type TransactionDTO struct {
	ID            string
	Owner         string
	Currency      string
	Timestamp     time.Time
	Type          string
	Category      string
	Amount        decimal.Decimal
	SharesDelta   decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Counterparty  string
	Description   string
	OperationType string
	OperationID   string
}

// GetTransactionsHandler handles the GetTransactions query
type GetTransactionsHandler struct {
	transactionRepo ledger.TransactionRepository
}

// NewGetTransactionsHandler creates a new GetTransactionsHandler
func NewGetTransactionsHandler(transactionRepo ledger.TransactionRepository) *GetTransactionsHandler {
	return &GetTransactionsHandler{transactionRepo: transactionRepo}
}

// Handle executes the GetTransactions query
func (h *GetTransactionsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetTransactionsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetTransactionsQuery")
	}
	if query.Owner.IsZero() {
		return nil, fmt.Errorf("owner is required")
	}

	opts, err := buildQueryOptions(query)
	if err != nil {
		return nil, err
	}

	transactions, err := h.transactionRepo.FindByOwner(ctx, query.Owner, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	total, err := h.transactionRepo.CountByOwner(ctx, query.Owner, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	dtos := make([]*TransactionDTO, len(transactions))
	for i, tx := range transactions {
		dtos[i] = toDTO(tx)
	}
	return &GetTransactionsResponse{Transactions: dtos, Total: total}, nil
}

func buildQueryOptions(query *GetTransactionsQuery) (ledger.QueryOptions, error) {
	opts := ledger.DefaultQueryOptions()
	opts.StartDate = query.StartDate
	opts.EndDate = query.EndDate

	if query.Currency != nil {
		currency := shared.Address(*query.Currency)
		opts.Currency = &currency
	}
	if query.Category != nil {
		category, err := ledger.ParseCategory(*query.Category)
		if err != nil {
			return opts, fmt.Errorf("invalid category: %w", err)
		}
		opts.Category = &category
	}
	if query.TransactionType != nil {
		txType, err := ledger.ParseTransactionType(*query.TransactionType)
		if err != nil {
			return opts, fmt.Errorf("invalid transaction type: %w", err)
		}
		opts.TransactionType = &txType
	}
	opts.OperationType = query.OperationType

	if query.Limit > 0 {
		opts.Limit = query.Limit
	}
	opts.Offset = query.Offset
	if query.OrderBy != "" {
		opts.OrderBy = query.OrderBy
	}
	return opts, nil
}

func toDTO(tx *ledger.Transaction) *TransactionDTO {
	dto := &TransactionDTO{
		ID:            tx.ID().String(),
		Owner:         tx.Owner().String(),
		Currency:      tx.Currency().String(),
		Timestamp:     tx.Timestamp(),
		Type:          tx.TransactionType().String(),
		Category:      tx.Category().String(),
		Amount:        tx.Amount(),
		SharesDelta:   tx.SharesDelta(),
		BalanceBefore: tx.BalanceBefore(),
		BalanceAfter:  tx.BalanceAfter(),
		Description:   tx.Description(),
		OperationType: tx.OperationType(),
		OperationID:   tx.OperationID(),
	}
	if !tx.Counterparty().IsZero() {
		dto.Counterparty = tx.Counterparty().String()
	}
	return dto
}
