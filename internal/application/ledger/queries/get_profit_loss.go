package queries

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// GetProfitLossQuery represents a query to generate a profit & loss statement for a gang
type GetProfitLossQuery struct {
	Owner     shared.EntityRef
	StartDate time.Time
	EndDate   time.Time
}

// GetProfitLossResponse represents the profit & loss statement result, one per currency
type GetProfitLossResponse struct {
	Period     string
	Statements []*ProfitLoss
}

// ProfitLoss is the statement of one currency.
// Custody movements are transfers of the player's own funds and never count.
type ProfitLoss struct {
	Currency         string
	TotalRevenue     decimal.Decimal
	TotalExpenses    decimal.Decimal
	NetProfit        decimal.Decimal
	RevenueBreakdown map[string]decimal.Decimal // type -> amount
	ExpenseBreakdown map[string]decimal.Decimal // type -> amount
}

// GetProfitLossHandler handles the GetProfitLoss query
type GetProfitLossHandler struct {
	transactionRepo ledger.TransactionRepository
}

// NewGetProfitLossHandler creates a new GetProfitLossHandler
func NewGetProfitLossHandler(transactionRepo ledger.TransactionRepository) *GetProfitLossHandler {
	return &GetProfitLossHandler{transactionRepo: transactionRepo}
}

// Handle executes the GetProfitLoss query
func (h *GetProfitLossHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetProfitLossQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetProfitLossQuery")
	}

	opts := ledger.QueryOptions{
		StartDate: &query.StartDate,
		EndDate:   &query.EndDate,
	}
	transactions, err := h.transactionRepo.FindByOwner(ctx, query.Owner, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	return &GetProfitLossResponse{
		Period:     fmt.Sprintf("%s to %s", query.StartDate.Format("2006-01-02"), query.EndDate.Format("2006-01-02")),
		Statements: calculateProfitLoss(transactions),
	}, nil
}

func calculateProfitLoss(transactions []*ledger.Transaction) []*ProfitLoss {
	statements := make(map[string]*ProfitLoss)

	for _, tx := range transactions {
		if tx.Category() == ledger.CategoryCustody {
			continue
		}
		currency := tx.Currency().String()
		pl, ok := statements[currency]
		if !ok {
			pl = &ProfitLoss{
				Currency:         currency,
				RevenueBreakdown: make(map[string]decimal.Decimal),
				ExpenseBreakdown: make(map[string]decimal.Decimal),
			}
			statements[currency] = pl
		}

		txType := tx.TransactionType().String()
		if tx.IsIncome() {
			pl.RevenueBreakdown[txType] = pl.RevenueBreakdown[txType].Add(tx.Amount())
			pl.TotalRevenue = pl.TotalRevenue.Add(tx.Amount())
		} else {
			// Expenses are kept positive
			pl.ExpenseBreakdown[txType] = pl.ExpenseBreakdown[txType].Sub(tx.Amount())
			pl.TotalExpenses = pl.TotalExpenses.Sub(tx.Amount())
		}
		pl.NetProfit = pl.TotalRevenue.Sub(pl.TotalExpenses)
	}

	out := make([]*ProfitLoss, 0, len(statements))
	for _, pl := range statements {
		out = append(out, pl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
