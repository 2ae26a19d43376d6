package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	worldPath  string
	player     string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gangsim",
		Short: "gangsim - simulate the gang production economy",
		Long: `gangsim runs the gang economy: towns where gangs are spawned and funded,
production sites where working gangs share a daily output by pull, and
attacks between gangs resolved against a random word chain.

Every ledger movement is journaled to the configured database.

Examples:
  gangsim simulate scenario.yaml
  gangsim simulate scenario.yaml --world world.yaml --ephemeral
  gangsim roll --seed SEED_1 --min 1000 --max 5000 --bias 2
  gangsim ledger list --gang gang:0
  gangsim ledger report cash-flow --gang gang:0 --start-date 2024-01-01 --end-date 2024-01-31
  gangsim config show`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config.yaml (default: search ./, ./configs, /etc/gangsim)")
	rootCmd.PersistentFlags().StringVar(&worldPath, "world", "",
		"Path to the world layout (default: world.path or the built-in layout)")
	rootCmd.PersistentFlags().StringVar(&player, "player", "",
		"Player address (default: user config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewLedgerCommand())
	rootCmd.AddCommand(NewRollCommand())
	rootCmd.AddCommand(NewSimulateCommand())
	rootCmd.AddCommand(NewWorldCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
