package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

const (
	// Namespace for all metrics
	namespace = "gangsim"
	// Subsystem for economy metrics
	subsystem = "economy"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalEconomyCollector is the singleton economy metrics collector
	// Set by SetGlobalEconomyCollector() when metrics are enabled
	globalEconomyCollector EconomyMetricsRecorder
)

// EconomyMetricsRecorder defines the interface for recording economy metrics
type EconomyMetricsRecorder interface {
	RecordTransaction(tx *ledger.Transaction)
	RecordAttack(site shared.Address, fizzled bool, cost, winnings decimal.Decimal)
	RecordSiteState(site shared.Address, totalPull, prodDaily decimal.Decimal, residents int)
	RecordPoolBalance(currency shared.Address, balance decimal.Decimal)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalEconomyCollector sets the global economy metrics collector
func SetGlobalEconomyCollector(collector EconomyMetricsRecorder) {
	globalEconomyCollector = collector
}

// RecordTransaction records a journaled ledger movement globally
func RecordTransaction(tx *ledger.Transaction) {
	if globalEconomyCollector != nil && tx != nil {
		globalEconomyCollector.RecordTransaction(tx)
	}
}

// RecordAttack records a resolved attack globally
func RecordAttack(site shared.Address, fizzled bool, cost, winnings decimal.Decimal) {
	if globalEconomyCollector != nil {
		globalEconomyCollector.RecordAttack(site, fizzled, cost, winnings)
	}
}

// RecordSiteState records the production state of a site globally
func RecordSiteState(site shared.Address, totalPull, prodDaily decimal.Decimal, residents int) {
	if globalEconomyCollector != nil {
		globalEconomyCollector.RecordSiteState(site, totalPull, prodDaily, residents)
	}
}

// RecordPoolBalance records the share ledger pool of a currency globally
func RecordPoolBalance(currency shared.Address, balance decimal.Decimal) {
	if globalEconomyCollector != nil {
		globalEconomyCollector.RecordPoolBalance(currency, balance)
	}
}
