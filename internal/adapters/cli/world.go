package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gangsim/internal/infrastructure/world"
)

// NewWorldCommand creates the world command with subcommands
func NewWorldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Inspect world layouts",
		Long: `Validate and display world layouts: towns, plain locations, production
sites with their routes, and the boosters of every category.

Examples:
  gangsim world show
  gangsim world show --world ./worlds/frontier.yaml
  gangsim world validate ./worlds/frontier.yaml`,
	}

	cmd.AddCommand(newWorldShowCommand())
	cmd.AddCommand(newWorldValidateCommand())

	return cmd
}

func newWorldShowCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the world layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			layout, err := loadLayout(resolveWorldPath(cfg))
			if err != nil {
				return err
			}

			if asYAML {
				data, err := layout.Marshal()
				if err != nil {
					return err
				}
				fmt.Print(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Location\tKind\tRoutes\tDetails")
			fmt.Fprintln(w, "────────\t────\t──────\t───────")
			for _, t := range layout.Towns {
				fmt.Fprintf(w, "%s\ttown\t%s\tcurrencies: %s\n", t.Address, strings.Join(t.Routes, ", "), strings.Join(t.Currencies, ", "))
			}
			for _, l := range layout.Locations {
				fmt.Fprintf(w, "%s\tlocation\t%s\t\n", l.Address, strings.Join(l.Routes, ", "))
			}
			for _, s := range layout.Sites {
				fmt.Fprintf(w, "%s\tsite\t%s\tproduces %s from %s stake\n", s.Address, strings.Join(s.Routes, ", "), s.Resource, s.Stake)
			}
			w.Flush()

			fmt.Println("\nBoosters:")
			for _, category := range sortedBoosterCategories(layout.Boosters) {
				spec := layout.Boosters[category]
				fmt.Printf("  %-12s %d additive, %d multiplicative\n", category, len(spec.Additive), len(spec.Multiplicative))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the normalized layout as YAML")
	return cmd
}

func newWorldValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a world layout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadLayout(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s is valid (%d towns, %d locations, %d sites)\n",
				args[0], len(layout.Towns), len(layout.Locations), len(layout.Sites))
			return nil
		},
	}
}

func sortedBoosterCategories(boosters map[string]world.BoosterSpec) []string {
	out := make([]string, 0, len(boosters))
	for category := range boosters {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
