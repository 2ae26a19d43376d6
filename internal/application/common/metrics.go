package common

import (
	"context"

	"github.com/andrescamacho/gangsim/internal/adapters/metrics"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
)

// ReportPoolAfterCommit publishes the ledger pool of currency once the operation commits
func ReportPoolAfterCommit(ctx context.Context, balances Balances, currency shared.Address) {
	if !metrics.IsEnabled() || balances == nil {
		return
	}
	shared.AfterCommit(ctx, func(ctx context.Context) {
		if balance, err := balances.PoolBalance(ctx, currency); err == nil {
			metrics.RecordPoolBalance(currency, balance)
		}
	})
}

// ReportSiteAfterCommit publishes the production state of s once the operation commits
func ReportSiteAfterCommit(ctx context.Context, s *site.Site) {
	if !metrics.IsEnabled() {
		return
	}
	shared.AfterCommit(ctx, func(context.Context) {
		metrics.RecordSiteState(s.Address(), s.TotalPull(), s.CurrentProdDaily(), len(s.Residents()))
	})
}
