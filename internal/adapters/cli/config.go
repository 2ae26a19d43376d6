package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gangsim/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage gangsim configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (GS_* prefix)
2. Config file (config.yaml)
3. Default values

User preferences (default player, default world) are stored in ~/.gangsim/config.json

Examples:
  gangsim config show
  gangsim config set-player --player player1
  gangsim config set-world ./worlds/frontier.yaml
  gangsim config clear`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetPlayerCommand())
	cmd.AddCommand(newConfigSetWorldCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Display the current configuration settings.

Shows both system configuration and user preferences.

Example:
  gangsim config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load system config
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			// Load user config
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Printf("Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			// Display configuration
			fmt.Println("gangsim Configuration")
			fmt.Println("=====================")

			fmt.Println("User Preferences:")
			fmt.Printf("  Config file:      %s\n", userConfigHandler.GetConfigPath())
			fmt.Printf("  Default Player:   %s\n", orNotSet(userCfg.DefaultPlayer))
			fmt.Printf("  Default World:    %s\n", orNotSet(userCfg.DefaultWorld))

			fmt.Println("\nDatabase:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.URL != "":
				fmt.Printf("  URL:              %s\n", maskPassword(cfg.Database.URL))
			case cfg.Database.Type == "sqlite":
				fmt.Printf("  Path:             %s\n", orNotSet(cfg.Database.Path))
			default:
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
				fmt.Printf("  Max Connections:  %d\n", cfg.Database.Pool.MaxOpen)
			}

			fmt.Println("\nEconomy:")
			fmt.Printf("  Bootstrap Shares: %s per unit\n", cfg.Economy.BootstrapSharesPerUnit)
			fmt.Printf("  Default Prod:     %s units/day\n", cfg.Economy.DefaultProdDaily)
			fmt.Printf("  Travel Time:      %s\n", cfg.Economy.TravelTime)
			fmt.Printf("  Attack Cooldown:  %s\n", cfg.Economy.AttackCooldown)
			fmt.Printf("  Winnings:         %d-%d bps\n", cfg.Economy.WinMinBps, cfg.Economy.WinMaxBps)
			fmt.Printf("  Attack Cost:      %d bps\n", cfg.Economy.AttackCostBps)
			fmt.Printf("  Tick Interval:    %s\n", cfg.Economy.TickInterval)
			fmt.Printf("  Genesis:          %s\n", cfg.Economy.Genesis)

			fmt.Println("\nWorld:")
			fmt.Printf("  Layout:           %s\n", orDefaultLabel(cfg.World.Path, "(built-in)"))

			fmt.Println("\nMetrics:")
			fmt.Printf("  Enabled:          %t\n", cfg.Metrics.Enabled)
			if cfg.Metrics.Enabled {
				fmt.Printf("  Endpoint:         %s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
			}

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}

	return cmd
}

// newConfigSetPlayerCommand creates the config set-player subcommand
func newConfigSetPlayerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-player",
		Short: "Set default player",
		Long: `Set the default player address used by commands.

Example:
  gangsim config set-player --player player1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if player == "" {
				return fmt.Errorf("--player flag is required")
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.SetDefaultPlayer(player); err != nil {
				return fmt.Errorf("failed to set default player: %w", err)
			}

			fmt.Println("✓ Default player set successfully")
			fmt.Printf("  Player: %s\n", player)
			fmt.Printf("\nOverride with the --player flag.\n")
			return nil
		},
	}

	return cmd
}

// newConfigSetWorldCommand creates the config set-world subcommand
func newConfigSetWorldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-world <path>",
		Short: "Set default world layout",
		Long: `Set the world layout used when --world is not given.
The layout is validated before it is saved.

Example:
  gangsim config set-world ./worlds/frontier.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadLayout(args[0])
			if err != nil {
				return err
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.SetDefaultWorld(args[0]); err != nil {
				return fmt.Errorf("failed to set default world: %w", err)
			}

			fmt.Println("✓ Default world set successfully")
			fmt.Printf("  Layout: %s (%d towns, %d sites)\n", args[0], len(layout.Towns), len(layout.Sites))
			return nil
		},
	}

	return cmd
}

// newConfigClearCommand creates the config clear subcommand
func newConfigClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear user preferences",
		Long: `Remove the default player and default world.

Example:
  gangsim config clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			if err := userConfigHandler.Clear(); err != nil {
				return fmt.Errorf("failed to clear preferences: %w", err)
			}

			fmt.Println("✓ Preferences cleared")
			return nil
		},
	}

	return cmd
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "****")
	return u.String()
}

func orNotSet(v string) string {
	return orDefaultLabel(v, "(not set)")
}

func orDefaultLabel(v, label string) string {
	if v == "" {
		return label
	}
	return v
}
