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

// GetCashFlowQuery represents a query to summarize the ledger movements of a gang
type GetCashFlowQuery struct {
	Owner     shared.EntityRef
	StartDate time.Time
	EndDate   time.Time
	GroupBy   string // "category" or "type"
}

// GetCashFlowResponse represents the cash flow statement result.
// Flows are split per currency since currencies never mix.
type GetCashFlowResponse struct {
	Period string
	Flows  []*CashFlow
}

// CashFlow represents the movements of one currency in one group
type CashFlow struct {
	Currency     string
	Group        string
	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal
	NetFlow      decimal.Decimal
	Transactions int
}

// GetCashFlowHandler handles the GetCashFlow query
type GetCashFlowHandler struct {
	transactionRepo ledger.TransactionRepository
}

// NewGetCashFlowHandler creates a new GetCashFlowHandler
func NewGetCashFlowHandler(transactionRepo ledger.TransactionRepository) *GetCashFlowHandler {
	return &GetCashFlowHandler{transactionRepo: transactionRepo}
}

// Handle executes the GetCashFlow query
func (h *GetCashFlowHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetCashFlowQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetCashFlowQuery")
	}

	groupBy := query.GroupBy
	if groupBy == "" {
		groupBy = "category"
	}
	if groupBy != "category" && groupBy != "type" {
		return nil, fmt.Errorf("unsupported grouping %q: use category or type", groupBy)
	}

	// No limit - aggregate every transaction in range
	opts := ledger.QueryOptions{
		StartDate: &query.StartDate,
		EndDate:   &query.EndDate,
	}
	transactions, err := h.transactionRepo.FindByOwner(ctx, query.Owner, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	return &GetCashFlowResponse{
		Period: fmt.Sprintf("%s to %s", query.StartDate.Format("2006-01-02"), query.EndDate.Format("2006-01-02")),
		Flows:  calculateCashFlow(transactions, groupBy),
	}, nil
}

func calculateCashFlow(transactions []*ledger.Transaction, groupBy string) []*CashFlow {
	type key struct{ currency, group string }
	flows := make(map[key]*CashFlow)

	for _, tx := range transactions {
		group := tx.Category().String()
		if groupBy == "type" {
			group = tx.TransactionType().String()
		}
		k := key{tx.Currency().String(), group}
		flow, ok := flows[k]
		if !ok {
			flow = &CashFlow{Currency: k.currency, Group: k.group}
			flows[k] = flow
		}

		flow.Transactions++
		if tx.Amount().IsPositive() {
			flow.TotalInflow = flow.TotalInflow.Add(tx.Amount())
		} else {
			flow.TotalOutflow = flow.TotalOutflow.Sub(tx.Amount())
		}
		flow.NetFlow = flow.TotalInflow.Sub(flow.TotalOutflow)
	}

	out := make([]*CashFlow, 0, len(flows))
	for _, flow := range flows {
		out = append(out, flow)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Currency != out[j].Currency {
			return out[i].Currency < out[j].Currency
		}
		return out[i].Group < out[j].Group
	})
	return out
}
