package setup

import (
	"reflect"

	"github.com/andrescamacho/gangsim/internal/adapters/metrics"
	"github.com/andrescamacho/gangsim/internal/application/common"
	gangCommands "github.com/andrescamacho/gangsim/internal/application/gang/commands"
	gangQueries "github.com/andrescamacho/gangsim/internal/application/gang/queries"
	ledgerCommands "github.com/andrescamacho/gangsim/internal/application/ledger/commands"
	ledgerQueries "github.com/andrescamacho/gangsim/internal/application/ledger/queries"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	siteCommands "github.com/andrescamacho/gangsim/internal/application/site/commands"
	siteQueries "github.com/andrescamacho/gangsim/internal/application/site/queries"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/site"
)

// Dependencies are the collaborators the handlers are built from.
// TransactionRepo and AttackHistory may be nil: the ledger journal is then
// not persisted and attack history is served from the live site log.
type Dependencies struct {
	World      common.Directory
	Graph      common.GangGraph
	Registry   common.GangRegistry
	Balances   common.Balances
	Currencies common.CurrencyLister
	// Ledger receives the journal observer when TransactionRepo is set
	Ledger *ledger.ShareLedger

	TransactionRepo ledger.TransactionRepository
	AttackHistory   site.AttackHistory

	// CommandMetrics enables the Prometheus middleware when set
	CommandMetrics *metrics.CommandMetricsCollector
}

// HandlerRegistry holds all application dependencies for handler creation
type HandlerRegistry struct {
	deps Dependencies
}

// NewHandlerRegistry creates a new handler registry with required dependencies
func NewHandlerRegistry(deps Dependencies) *HandlerRegistry {
	return &HandlerRegistry{deps: deps}
}

func (r *HandlerRegistry) gangReader() gangQueries.GangReader {
	return gangQueries.GangReader{
		World:      r.deps.World,
		Graph:      r.deps.Graph,
		Registry:   r.deps.Registry,
		Balances:   r.deps.Balances,
		Currencies: r.deps.Currencies,
	}
}

// RegisterGangHandlers registers spawning, custody, movement and gang queries
func (r *HandlerRegistry) RegisterGangHandlers(m mediator.Mediator) error {
	custody := gangCommands.NewCustodyHandler(r.deps.World, r.deps.Balances)
	moves := gangCommands.NewMoveGangHandler(r.deps.Graph)
	reader := r.gangReader()

	handlers := map[reflect.Type]mediator.RequestHandler{
		reflect.TypeOf(&gangCommands.SpawnGangCommand{}):        gangCommands.NewSpawnGangHandler(r.deps.World),
		reflect.TypeOf(&gangCommands.DepositCurrencyCommand{}):  custody,
		reflect.TypeOf(&gangCommands.WithdrawCurrencyCommand{}): custody,
		reflect.TypeOf(&gangCommands.MoveGangCommand{}):         moves,
		reflect.TypeOf(&gangCommands.DespawnGangCommand{}):      moves,
		reflect.TypeOf(&gangCommands.TransferGangCommand{}):     gangCommands.NewTransferGangHandler(r.deps.Registry),
		reflect.TypeOf(&gangQueries.GetGangQuery{}):             gangQueries.NewGetGangHandler(reader),
		reflect.TypeOf(&gangQueries.ListGangsQuery{}):           gangQueries.NewListGangsHandler(reader),
	}
	return registerAll(m, handlers)
}

// RegisterSiteHandlers registers production, travel, combat and site administration
func (r *HandlerRegistry) RegisterSiteHandlers(m mediator.Mediator) error {
	attacks := siteCommands.NewAttackHandler(r.deps.World, r.deps.Balances, r.deps.AttackHistory)
	manage := siteCommands.NewManageSiteHandler(r.deps.World)

	handlers := map[reflect.Type]mediator.RequestHandler{
		reflect.TypeOf(&siteCommands.PrepareToMoveCommand{}):        siteCommands.NewPrepareToMoveHandler(r.deps.World),
		reflect.TypeOf(&siteCommands.ClaimResourcesCommand{}):       siteCommands.NewClaimResourcesHandler(r.deps.World, r.deps.Balances),
		reflect.TypeOf(&siteCommands.StartAttackCommand{}):          attacks,
		reflect.TypeOf(&siteCommands.ResolveAttackCommand{}):        attacks,
		reflect.TypeOf(&siteCommands.SetBaseProdDailyCommand{}):     manage,
		reflect.TypeOf(&siteCommands.SetFixedDestinationsCommand{}): manage,
		reflect.TypeOf(&siteQueries.GetSiteQuery{}):                 siteQueries.NewGetSiteHandler(r.deps.World),
		reflect.TypeOf(&siteQueries.GetAttackHistoryQuery{}):        siteQueries.NewGetAttackHistoryHandler(r.deps.World, r.deps.AttackHistory),
	}
	return registerAll(m, handlers)
}

// RegisterLedgerHandlers registers all ledger command and query handlers with the mediator
//
// This method registers:
//   - RecordTransactionCommand → RecordTransactionHandler (journal persistence)
//   - GetTransactionsQuery → GetTransactionsHandler (for transaction queries)
//   - GetCashFlowQuery → GetCashFlowHandler (for cash flow reports)
//   - GetProfitLossQuery → GetProfitLossHandler (for P&L statements)
func (r *HandlerRegistry) RegisterLedgerHandlers(m mediator.Mediator) error {
	if r.deps.TransactionRepo == nil {
		return nil
	}
	handlers := map[reflect.Type]mediator.RequestHandler{
		reflect.TypeOf(&ledgerCommands.RecordTransactionCommand{}): ledgerCommands.NewRecordTransactionHandler(r.deps.TransactionRepo),
		reflect.TypeOf(&ledgerQueries.GetTransactionsQuery{}):      ledgerQueries.NewGetTransactionsHandler(r.deps.TransactionRepo),
		reflect.TypeOf(&ledgerQueries.GetCashFlowQuery{}):          ledgerQueries.NewGetCashFlowHandler(r.deps.TransactionRepo),
		reflect.TypeOf(&ledgerQueries.GetProfitLossQuery{}):        ledgerQueries.NewGetProfitLossHandler(r.deps.TransactionRepo),
	}
	return registerAll(m, handlers)
}

// CreateConfiguredMediator creates a mediator with every handler registered.
//
// Middleware order, outermost first: logging, metrics, serialization, atomicity.
// When a transaction repository is configured the share ledger journals every
// committed transaction back through the mediator.
func (r *HandlerRegistry) CreateConfiguredMediator() (mediator.Mediator, error) {
	m := mediator.NewMediator()
	m.Use(mediator.LoggingMiddleware())
	if r.deps.CommandMetrics != nil {
		m.Use(metrics.PrometheusMiddleware(r.deps.CommandMetrics))
	}
	m.Use(mediator.SerializeMiddleware())
	m.Use(mediator.AtomicMiddleware())

	if err := r.RegisterGangHandlers(m); err != nil {
		return nil, err
	}
	if err := r.RegisterSiteHandlers(m); err != nil {
		return nil, err
	}
	if err := r.RegisterLedgerHandlers(m); err != nil {
		return nil, err
	}

	if r.deps.TransactionRepo != nil && r.deps.Ledger != nil {
		r.deps.Ledger.AddObserver(ledgerCommands.NewJournalObserver(m))
	}
	return m, nil
}

func registerAll(m mediator.Mediator, handlers map[reflect.Type]mediator.RequestHandler) error {
	for t, h := range handlers {
		if err := m.Register(t, h); err != nil {
			return err
		}
	}
	return nil
}
