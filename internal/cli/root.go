// Package cli provides the command-line interface for the trading application.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"upbit-trader/internal/config"
	"upbit-trader/internal/logging"
	"upbit-trader/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// skipConfigAnnotation marks commands that must run without a loaded config.
const skipConfigAnnotation = "skip-config"

// App holds the application dependencies. Config and Logger are populated
// before any command runs.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Upbit Trader - AI-driven KRW-BTC trading cycles",
		Long: `Upbit Trader runs AI-driven trading cycles against the Upbit KRW-BTC market.

Each cycle gathers a market snapshot, asks a decision oracle for BUY, SELL or
HOLD, executes the order after fee-aware checks, reflects on the outcome and
records everything to an append-only ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.ConfigDir, _ = cmd.Flags().GetString("config")
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return app.load(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/upbit-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

// load reads the configuration and builds the logger.
func (a *App) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.ConfigDir)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}
	a.Config = cfg
	a.Logger = logging.NewLoggerWithConfig(cfg.Logging)
	a.Logger.Debug().Str("mode", cfg.Trading.Mode).Str("pair", cfg.Trading.Pair).Msg("Configuration loaded")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Upbit Trader v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.FilePath(app.ConfigDir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration and credentials",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg, err := config.Load(app.ConfigDir)
			if err == nil {
				err = cfg.ValidateCredentials()
			}
			if err != nil {
				if output.IsJSON() {
					output.JSON(map[string]interface{}{"valid": false, "error": err.Error()})
				} else {
					output.Error("Configuration validation failed: %v", err)
				}
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Trading Configuration")
	output.Printf("  Mode:             %s\n", cfg.Trading.Mode)
	output.Printf("  Pair:             %s\n", cfg.Trading.Pair)
	output.Printf("  Fee Rate:         %s\n", fmt.Sprintf("%.3f%%", cfg.Trading.FeeRate*100))
	output.Printf("  Min Order:        %s\n", utils.FormatKRW(cfg.Trading.MinOrderKRW))
	output.Printf("  History Size:     %d\n", cfg.Trading.HistorySize)
	if cfg.IsPaperMode() {
		output.Printf("  Paper KRW:        %s\n", utils.FormatKRW(cfg.Trading.PaperInitialKRW))
		output.Printf("  Paper BTC:        %s\n", utils.FormatBTC(cfg.Trading.PaperInitialBTC))
	}
	output.Println()

	output.Bold("Oracle Configuration")
	output.Printf("  Decision Model:   %s (%s effort)\n", cfg.Oracle.DecisionModel, cfg.Oracle.ReasoningEffort)
	output.Printf("  Reflection Model: %s\n", cfg.Oracle.ReflectionModel)
	output.Printf("  Max Attempts:     %d\n", cfg.Oracle.MaxAttempts)
	output.Printf("  Timeout:          %s\n", cfg.Oracle.Timeout)
	output.Println()

	output.Bold("Market Data")
	output.Printf("  Daily Candles:    %d\n", cfg.Market.CandleCount)
	output.Printf("  News Query:       %s (limit %d)\n", cfg.Market.NewsQuery, cfg.Market.NewsLimit)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Ledger:           %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:          %v\n", cfg.Notifications.Enabled)
	output.Printf("  Webhook:          %v\n", cfg.Notifications.Webhook.Enabled)
	output.Printf("  Telegram:         %v\n", cfg.Notifications.Telegram.Enabled)
}
