package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gangsim/internal/adapters/metrics"
	gangQueries "github.com/andrescamacho/gangsim/internal/application/gang/queries"
	siteQueries "github.com/andrescamacho/gangsim/internal/application/site/queries"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/infrastructure/pidfile"
)

// NewSimulateCommand creates the simulate command
func NewSimulateCommand() *cobra.Command {
	var (
		ephemeral bool
		hold      bool
		pidPath   string
	)

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Play a scenario against a world",
		Long: `Build the world, then play a scripted scenario on a simulated clock.

Each step is one player action sent through the command pipeline, so it is
atomic and journaled exactly like a live operation. Actions:

  mint      player, currency, amount        fund a player wallet
  items     gang, collection, count         hand items to a gang
  spawn     player, [town], as              spawn a gang under an alias
  deposit   player, gang, currency, amount  move wallet funds into the ledger
  withdraw  player, gang, currency, amount  pay ledger funds out to the wallet
  move      player, gang, to                move along a route
  despawn   player, gang                    remove a gang from the world
  transfer  player, gang, to                hand a gang to another player
  prepare   player, gang, to                stop working and prepare to leave
  claim     player, gang                    claim pending production
  attack    player, gang, target            start an attack
  resolve   player, gang                    resolve the pending attack
  advance   duration                        move the clock forward
  set_prod  site, amount                    change daily production (manager)

Any step may set expect_error: true.

Examples:
  gangsim simulate scenario.yaml
  gangsim simulate scenario.yaml --ephemeral
  GS_METRICS_ENABLED=true gangsim simulate scenario.yaml --hold`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), args[0], simulateOptions{
				ephemeral: ephemeral,
				hold:      hold,
				pidPath:   pidPath,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Journal to an in-memory database instead of the configured one")
	cmd.Flags().BoolVar(&hold, "hold", false, "Keep serving metrics after the scenario until interrupted")
	cmd.Flags().StringVar(&pidPath, "pid-file", "gangsim.pid", "PID file guarding a held metrics exporter")

	return cmd
}

type simulateOptions struct {
	ephemeral bool
	hold      bool
	pidPath   string
}

func runSimulate(ctx context.Context, scenarioPath string, opts simulateOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	layout, err := loadLayout(resolveWorldPath(cfg))
	if err != nil {
		return err
	}
	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	genesis, err := cfg.Economy.GenesisTime()
	if err != nil {
		return err
	}
	start, err := scenario.StartTime(genesis)
	if err != nil {
		return err
	}

	clock := shared.NewMockClock(start)
	app, ctx, err := newApplication(ctx, cfg, layout, clock, opts.ephemeral)
	if err != nil {
		return err
	}
	defer app.Close()

	var server *metrics.Server
	if cfg.Metrics.Enabled {
		if opts.hold {
			pid := pidfile.New(opts.pidPath)
			if err := pid.Acquire(); err != nil {
				return err
			}
			defer pid.Release()
		}
		if server, err = metrics.NewServer(cfg.Metrics); err != nil {
			return err
		}
		server.Start()
		defer server.Shutdown(context.Background())
		fmt.Fprintf(out, "Serving metrics on http://%s%s\n", server.Addr(), cfg.Metrics.Path)
	}

	sim := NewSimulator(app.mediator, app.world, clock)
	results, runErr := sim.Run(ctx, scenario)
	displaySteps(out, results)
	if runErr != nil {
		return runErr
	}

	if err := displaySummary(ctx, out, app, sim); err != nil {
		return err
	}

	if opts.hold && server != nil {
		fmt.Fprintln(out, "\nHolding for metrics scrapes, press Ctrl+C to exit")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
	}
	return nil
}

func displaySteps(out io.Writer, results []StepResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTime\tAction\tResult")
	fmt.Fprintln(w, "─\t────\t──────\t──────")
	for _, r := range results {
		detail := r.Detail
		if r.Err != nil {
			detail = "rejected: " + r.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Index, r.Time.Format(time.RFC3339), r.Action, detail)
	}
	w.Flush()
}

func displaySummary(ctx context.Context, out io.Writer, app *application, sim *Simulator) error {
	fmt.Fprintln(out, "\nSITES")
	fmt.Fprintln(out, "─────────────────────────────────────────────────────────────────────────────")
	for _, s := range app.world.Sites() {
		resp, err := app.mediator.Send(ctx, &siteQueries.GetSiteQuery{Site: s.Address()})
		if err != nil {
			return err
		}
		dto := resp.(*siteQueries.SiteDTO)
		fmt.Fprintf(out, "%s: %s %s/day, total pull %s, %d attacks\n",
			dto.Address, formatUnits(dto.CurrentProdDaily), dto.Resource, formatUnits(dto.TotalPull), dto.Attacks)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  Gang\tPull\tPending\tPer Day\tStatus")
		for _, r := range dto.Residents {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", r.Gang, formatUnits(r.Pull), formatUnits(r.Pending), formatUnits(r.ResourcesPerDay), r.Status)
		}
		w.Flush()
	}

	aliases := sim.Aliases()
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "\nGANGS")
	fmt.Fprintln(out, "─────────────────────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Alias\tGang\tOwner\tLocation\tBalances")
	for _, name := range names {
		resp, err := app.mediator.Send(ctx, &gangQueries.GetGangQuery{Gang: aliases[name]})
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t\t\t(%v)\n", name, aliases[name], err)
			continue
		}
		g := resp.(*gangQueries.GangDTO)
		balances := ""
		for i, b := range g.Balances {
			if i > 0 {
				balances += ", "
			}
			balances += formatUnits(b.Amount) + " " + b.Currency.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, g.Gang, g.Owner, g.Location, balances)
	}
	return w.Flush()
}
