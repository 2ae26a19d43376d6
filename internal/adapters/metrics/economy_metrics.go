package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// EconomyMetricsCollector handles share ledger and site metrics.
// Amounts are exported in whole units.
type EconomyMetricsCollector struct {
	transactionsTotal *prometheus.CounterVec
	transactionAmount *prometheus.HistogramVec
	productionClaimed *prometheus.CounterVec

	attacksTotal   *prometheus.CounterVec
	attackWinnings *prometheus.CounterVec
	attackCost     *prometheus.CounterVec

	totalPull     *prometheus.GaugeVec
	prodDaily     *prometheus.GaugeVec
	siteResidents *prometheus.GaugeVec
	poolBalance   *prometheus.GaugeVec
}

// NewEconomyMetricsCollector creates a new economy metrics collector
func NewEconomyMetricsCollector() *EconomyMetricsCollector {
	return &EconomyMetricsCollector{
		transactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transactions_total",
				Help:      "Total number of ledger transactions by type and category",
			},
			[]string{"currency", "type", "category"},
		),
		transactionAmount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transaction_amount_units",
				Help:      "Absolute transaction amount distribution",
				Buckets:   prometheus.ExponentialBuckets(0.01, 10, 9),
			},
			[]string{"currency", "type"},
		),
		productionClaimed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "production_claimed_units_total",
				Help:      "Resources claimed from production sites",
			},
			[]string{"currency"},
		),
		attacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attacks_total",
				Help:      "Resolved attacks by site and outcome",
			},
			[]string{"site", "outcome"},
		),
		attackWinnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attack_winnings_units_total",
				Help:      "Stake moved from defenders to attackers",
			},
			[]string{"site"},
		),
		attackCost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attack_cost_units_total",
				Help:      "Stake burned by attackers",
			},
			[]string{"site"},
		),
		totalPull: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "site_total_pull_units",
				Help:      "Sum of the pull of working gangs",
			},
			[]string{"site"},
		),
		prodDaily: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "site_production_daily_units",
				Help:      "Current boosted daily production",
			},
			[]string{"site"},
		),
		siteResidents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "site_residents",
				Help:      "Gangs present at a site",
			},
			[]string{"site"},
		),
		poolBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_balance_units",
				Help:      "Currency held by the share ledger",
			},
			[]string{"currency"},
		),
	}
}

// Register registers all economy metrics with the Prometheus registry
func (c *EconomyMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, metric := range c.collectors() {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

func (c *EconomyMetricsCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.transactionsTotal,
		c.transactionAmount,
		c.productionClaimed,
		c.attacksTotal,
		c.attackWinnings,
		c.attackCost,
		c.totalPull,
		c.prodDaily,
		c.siteResidents,
		c.poolBalance,
	}
}

// RecordTransaction records a journaled ledger movement
func (c *EconomyMetricsCollector) RecordTransaction(tx *ledger.Transaction) {
	currency := tx.Currency().String()
	txType := tx.TransactionType().String()

	c.transactionsTotal.WithLabelValues(currency, txType, tx.Category().String()).Inc()
	c.transactionAmount.WithLabelValues(currency, txType).Observe(toUnits(tx.Amount().Abs()))
	if tx.TransactionType() == ledger.TransactionTypeProductionClaim {
		c.productionClaimed.WithLabelValues(currency).Add(toUnits(tx.Amount()))
	}
}

// RecordAttack records a resolved attack
func (c *EconomyMetricsCollector) RecordAttack(site shared.Address, fizzled bool, cost, winnings decimal.Decimal) {
	outcome := "fought"
	if fizzled {
		outcome = "fizzled"
	}
	c.attacksTotal.WithLabelValues(site.String(), outcome).Inc()
	if fizzled {
		return
	}
	c.attackCost.WithLabelValues(site.String()).Add(toUnits(cost))
	c.attackWinnings.WithLabelValues(site.String()).Add(toUnits(winnings))
}

// RecordSiteState records the production state of a site
func (c *EconomyMetricsCollector) RecordSiteState(site shared.Address, totalPull, prodDaily decimal.Decimal, residents int) {
	c.totalPull.WithLabelValues(site.String()).Set(toUnits(totalPull))
	c.prodDaily.WithLabelValues(site.String()).Set(toUnits(prodDaily))
	c.siteResidents.WithLabelValues(site.String()).Set(float64(residents))
}

// RecordPoolBalance records the share ledger pool of a currency
func (c *EconomyMetricsCollector) RecordPoolBalance(currency shared.Address, balance decimal.Decimal) {
	c.poolBalance.WithLabelValues(currency.String()).Set(toUnits(balance))
}

// toUnits converts an 18-decimal amount to a float of whole units
func toUnits(amount decimal.Decimal) float64 {
	return amount.Shift(-18).InexactFloat64()
}
