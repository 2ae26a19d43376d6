package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/gangsim/internal/adapters/persistence"
	"github.com/andrescamacho/gangsim/internal/application/ledger/queries"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/infrastructure/database"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

const dateLayout = "2006-01-02"

// NewLedgerCommand creates the ledger command with subcommands
func NewLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Share ledger journal",
		Long: `View and analyze the journal of the share ledger.

Every deposit, withdrawal, production claim and attack settlement of a gang
is journaled with its balance before and after and the operation that
caused it.

Examples:
  gangsim ledger list --gang gang:0
  gangsim ledger list --gang gang:0 --category COMBAT --limit 20
  gangsim ledger report cash-flow --gang gang:0 --start-date 2024-01-01 --end-date 2024-01-31`,
	}

	// Add subcommands
	cmd.AddCommand(newLedgerListCommand())
	cmd.AddCommand(newLedgerReportCommand())

	return cmd
}

// newLedgerListCommand creates the ledger list subcommand
func newLedgerListCommand() *cobra.Command {
	var (
		gang      string
		startDate string
		endDate   string
		currency  string
		category  string
		txType    string
		operation string
		limit     int
		offset    int
		orderBy   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List the journaled transactions of a gang with optional filtering.

Results are ordered by timestamp descending (newest first) by default.

Categories:
  CUSTODY     - Deposits and withdrawals at a town
  PRODUCTION  - Production claimed at a site
  COMBAT      - Attack cost, winnings and losses

Transaction Types:
  DEPOSIT, WITHDRAWAL, PRODUCTION_CLAIM, ATTACK_COST, ATTACK_WINNINGS, ATTACK_LOSS

Examples:
  gangsim ledger list --gang gang:0 --limit 10
  gangsim ledger list --gang gang:0 --currency bandits --type ATTACK_LOSS
  gangsim ledger list --gang gang:0 --start-date 2024-01-15 --end-date 2024-01-22`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := shared.ParseEntityRef(gang)
			if err != nil {
				return fmt.Errorf("invalid --gang: %w", err)
			}
			start, end, err := parseDateRange(startDate, endDate, false)
			if err != nil {
				return err
			}

			query := &queries.GetTransactionsQuery{
				Owner:     owner,
				StartDate: start,
				EndDate:   end,
				Limit:     limit,
				Offset:    offset,
				OrderBy:   orderBy,
			}
			query.Currency = optional(currency)
			query.Category = optional(category)
			query.TransactionType = optional(txType)
			query.OperationType = optional(operation)
			return runLedgerList(query)
		},
	}

	cmd.Flags().StringVar(&gang, "gang", "", "Gang reference, e.g. gang:0 [required]")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&currency, "currency", "", "Filter by currency")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&txType, "type", "", "Filter by transaction type")
	cmd.Flags().StringVar(&operation, "operation", "", "Filter by operation type, e.g. resolve_attack")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of transactions to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of transactions to skip")
	cmd.Flags().StringVar(&orderBy, "order-by", "timestamp DESC", "Sort order")
	cmd.MarkFlagRequired("gang")

	return cmd
}

// newLedgerReportCommand creates the ledger report command group
func newLedgerReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate journal reports",
		Long: `Generate cash flow and profit & loss reports over a date range.

Examples:
  gangsim ledger report cash-flow --gang gang:0 --start-date 2024-01-15 --end-date 2024-01-22
  gangsim ledger report profit-loss --gang gang:0 --start-date 2024-01-01 --end-date 2024-01-31`,
	}

	cmd.AddCommand(newLedgerCashFlowCommand())
	cmd.AddCommand(newLedgerProfitLossCommand())

	return cmd
}

// newLedgerCashFlowCommand creates the cash flow report subcommand
func newLedgerCashFlowCommand() *cobra.Command {
	var (
		gang      string
		startDate string
		endDate   string
		groupBy   string
	)

	cmd := &cobra.Command{
		Use:   "cash-flow",
		Short: "Generate cash flow statement",
		Long: `Generate a cash flow statement per currency, grouped by category or type.

The cash flow statement shows:
- Total inflow by group
- Total outflow by group
- Net flow by group
- Number of transactions per group

Example:
  gangsim ledger report cash-flow --gang gang:0 \
    --start-date 2024-01-15 --end-date 2024-01-22 --group-by type`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := shared.ParseEntityRef(gang)
			if err != nil {
				return fmt.Errorf("invalid --gang: %w", err)
			}
			start, end, err := parseDateRange(startDate, endDate, true)
			if err != nil {
				return err
			}
			return runCashFlow(&queries.GetCashFlowQuery{
				Owner:     owner,
				StartDate: *start,
				EndDate:   *end,
				GroupBy:   groupBy,
			})
		},
	}

	cmd.Flags().StringVar(&gang, "gang", "", "Gang reference, e.g. gang:0 [required]")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD) [required]")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD) [required]")
	cmd.Flags().StringVar(&groupBy, "group-by", "category", "Group by (category, type)")
	cmd.MarkFlagRequired("gang")
	cmd.MarkFlagRequired("start-date")
	cmd.MarkFlagRequired("end-date")

	return cmd
}

// newLedgerProfitLossCommand creates the P&L report subcommand
func newLedgerProfitLossCommand() *cobra.Command {
	var (
		gang      string
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "profit-loss",
		Short: "Generate profit & loss statement",
		Long: `Generate a profit & loss statement per currency.

Revenue is production claimed and attack winnings; expenses are attack costs
and losses. Deposits and withdrawals move the player's own funds and are left out.

Example:
  gangsim ledger report profit-loss --gang gang:0 --start-date 2024-01-01 --end-date 2024-01-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := shared.ParseEntityRef(gang)
			if err != nil {
				return fmt.Errorf("invalid --gang: %w", err)
			}
			start, end, err := parseDateRange(startDate, endDate, true)
			if err != nil {
				return err
			}
			return runProfitLoss(&queries.GetProfitLossQuery{
				Owner:     owner,
				StartDate: *start,
				EndDate:   *end,
			})
		},
	}

	cmd.Flags().StringVar(&gang, "gang", "", "Gang reference, e.g. gang:0 [required]")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD) [required]")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD) [required]")
	cmd.MarkFlagRequired("gang")
	cmd.MarkFlagRequired("start-date")
	cmd.MarkFlagRequired("end-date")

	return cmd
}

// runLedgerList executes the ledger list command
func runLedgerList(query *queries.GetTransactionsQuery) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, false)
	if err != nil {
		return err
	}
	defer database.Close(db)

	handler := queries.NewGetTransactionsHandler(persistence.NewGormTransactionRepository(db))
	result, err := handler.Handle(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}

	displayTransactionList(result.(*queries.GetTransactionsResponse))
	return nil
}

// runCashFlow executes the cash flow report command
func runCashFlow(query *queries.GetCashFlowQuery) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, false)
	if err != nil {
		return err
	}
	defer database.Close(db)

	handler := queries.NewGetCashFlowHandler(persistence.NewGormTransactionRepository(db))
	result, err := handler.Handle(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to generate cash flow report: %w", err)
	}

	displayCashFlow(result.(*queries.GetCashFlowResponse))
	return nil
}

// runProfitLoss executes the P&L report command
func runProfitLoss(query *queries.GetProfitLossQuery) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, false)
	if err != nil {
		return err
	}
	defer database.Close(db)

	handler := queries.NewGetProfitLossHandler(persistence.NewGormTransactionRepository(db))
	result, err := handler.Handle(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to generate profit & loss report: %w", err)
	}

	displayProfitLoss(result.(*queries.GetProfitLossResponse))
	return nil
}

// parseDateRange parses YYYY-MM-DD bounds; the end date covers its whole day
func parseDateRange(startDate, endDate string, required bool) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startDate != "" {
		parsed, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start date format: %w", err)
		}
		start = &parsed
	}
	if endDate != "" {
		parsed, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end date format: %w", err)
		}
		endOfDay := parsed.Add(24*time.Hour - time.Nanosecond)
		end = &endOfDay
	}
	if required && (start == nil || end == nil) {
		return nil, nil, fmt.Errorf("--start-date and --end-date are required")
	}
	return start, end, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// displayTransactionList formats and displays transaction list
func displayTransactionList(response *queries.GetTransactionsResponse) {
	if len(response.Transactions) == 0 {
		fmt.Println("No transactions found")
		return
	}

	fmt.Printf("\nTRANSACTIONS (Showing %d of %d total)\n", len(response.Transactions), response.Total)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Timestamp\tType\tCurrency\tAmount\tBalance\tOperation")
	fmt.Fprintln(w, "─────────\t────\t────────\t──────\t───────\t─────────")

	for _, tx := range response.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Timestamp.Format("2006-01-02 15:04:05"),
			tx.Type,
			tx.Currency,
			formatAmount(tx.Amount),
			formatUnits(tx.BalanceAfter),
			tx.OperationType,
		)
	}

	w.Flush()
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
	fmt.Printf("Total: %d transactions\n\n", response.Total)
}

// displayCashFlow formats and displays cash flow report
func displayCashFlow(response *queries.GetCashFlowResponse) {
	fmt.Printf("\nCASH FLOW STATEMENT\n")
	fmt.Printf("Period: %s\n", response.Period)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	if len(response.Flows) == 0 {
		fmt.Println("No transactions in period")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Currency\tGroup\tInflow\tOutflow\tNet Flow\tTransactions")
	fmt.Fprintln(w, "────────\t─────\t──────\t───────\t────────\t────────────")

	for _, flow := range response.Flows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			flow.Currency,
			flow.Group,
			formatUnits(flow.TotalInflow),
			formatUnits(flow.TotalOutflow.Neg()),
			formatAmount(flow.NetFlow),
			flow.Transactions,
		)
	}

	w.Flush()
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
}

// displayProfitLoss formats and displays the P&L statements
func displayProfitLoss(response *queries.GetProfitLossResponse) {
	fmt.Printf("\nPROFIT & LOSS STATEMENT\n")
	fmt.Printf("Period: %s\n", response.Period)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	if len(response.Statements) == 0 {
		fmt.Println("No revenue or expenses in period")
		return
	}

	for _, pl := range response.Statements {
		fmt.Printf("\n%s\n", pl.Currency)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  REVENUE\t")
		for _, t := range sortedKeys(pl.RevenueBreakdown) {
			fmt.Fprintf(w, "    %s\t%s\n", t, formatUnits(pl.RevenueBreakdown[t]))
		}
		fmt.Fprintf(w, "  Total Revenue\t%s\n", formatUnits(pl.TotalRevenue))
		fmt.Fprintln(w, "  EXPENSES\t")
		for _, t := range sortedKeys(pl.ExpenseBreakdown) {
			fmt.Fprintf(w, "    %s\t%s\n", t, formatUnits(pl.ExpenseBreakdown[t]))
		}
		fmt.Fprintf(w, "  Total Expenses\t%s\n", formatUnits(pl.TotalExpenses))
		fmt.Fprintf(w, "  NET PROFIT\t%s\n", formatAmount(pl.NetProfit))
		w.Flush()
	}
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatAmount formats an 18-decimal amount in whole units with a +/- sign
func formatAmount(amount decimal.Decimal) string {
	if amount.Sign() >= 0 {
		return "+" + formatUnits(amount)
	}
	return formatUnits(amount)
}

// formatUnits formats an 18-decimal amount in whole units, truncated to 4 places
func formatUnits(amount decimal.Decimal) string {
	return utils.FormatUnits(amount.Shift(-14).Truncate(0).Shift(14))
}
