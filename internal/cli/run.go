package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"upbit-trader/internal/agents"
	"upbit-trader/internal/broker"
	"upbit-trader/internal/market"
	"upbit-trader/internal/models"
	"upbit-trader/internal/notify"
	"upbit-trader/internal/store"
	"upbit-trader/internal/trading"
	"upbit-trader/pkg/utils"
)

func newRunCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one trading cycle",
		Long: `Run one trading cycle: collect market context, ask the decision oracle,
execute the order, reflect on it and record the result.

With --dry-run the order is not placed and no notification is sent; the
decision and reflection are still recorded.`,
		Example: `  trader run
  trader run --dry-run
  trader run --dry-run --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if err := app.Config.ValidateCredentials(); err != nil {
				return err
			}

			ledger, err := store.NewSQLiteLedger(app.Config.Store.Path)
			if err != nil {
				return fmt.Errorf("opening ledger: %w", err)
			}
			defer ledger.Close()

			orchestrator := app.newOrchestrator(ledger, dryRun)
			if dryRun && !output.IsJSON() {
				output.Warning("Dry run: the order and notification are skipped")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := orchestrator.RunCycle(ctx)
			if report != nil {
				if output.IsJSON() {
					if jsonErr := output.JSON(report); jsonErr != nil {
						return jsonErr
					}
				} else {
					printCycleReport(output, report)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decide and record without placing orders or notifying")

	return cmd
}

// newOrchestrator wires the cycle collaborators from the loaded config.
func (a *App) newOrchestrator(ledger store.Ledger, dryRun bool) *trading.Orchestrator {
	cfg := a.Config
	logger := a.Logger

	upbit := broker.NewUpbitExchange(broker.UpbitConfig{
		AccessKey: cfg.Credentials.UpbitAccessKey,
		SecretKey: cfg.Credentials.UpbitSecretKey,
		Timeout:   cfg.Market.Timeout,
	}, logger)

	var exchange broker.Exchange = upbit
	if cfg.IsPaperMode() {
		quote, asset := broker.SplitPair(cfg.Trading.Pair)
		exchange = broker.NewPaperExchange(broker.PaperExchangeConfig{
			Quotes:        upbit,
			QuoteCurrency: quote,
			AssetCurrency: asset,
			InitialQuote:  cfg.Trading.PaperInitialKRW,
			InitialAsset:  cfg.Trading.PaperInitialBTC,
			FeeRate:       cfg.Trading.FeeRate,
		})
		logger.Info().Msg("Paper trading mode: orders are simulated")
	}

	var news market.NewsSource
	if cfg.Credentials.SerpAPIKey != "" {
		news = market.NewSerpAPINews("", cfg.Credentials.SerpAPIKey, cfg.Market.Timeout)
	} else {
		logger.Warn().Msg("SERPAPI_API_KEY not set, snapshots will carry no news")
	}

	aggregator := market.NewAggregator(
		exchange,
		upbit,
		news,
		market.NewFearGreedIndex("", cfg.Market.Timeout),
		market.AggregatorOptions{
			Pair:        cfg.Trading.Pair,
			CandleCount: cfg.Market.CandleCount,
			NewsQuery:   cfg.Market.NewsQuery,
			NewsLimit:   cfg.Market.NewsLimit,
			Retry:       utils.DefaultRetryConfig(),
		},
		logger,
	)

	llm := agents.NewOpenAIClient(cfg.Credentials.OpenAIAPIKey, cfg.Oracle.BaseURL)
	oracleOpts := func(model, effort string) agents.OracleOptions {
		return agents.OracleOptions{
			Model:           model,
			ReasoningEffort: effort,
			MaxAttempts:     cfg.Oracle.MaxAttempts,
			Timeout:         cfg.Oracle.Timeout,
			InitialBackoff:  cfg.Oracle.InitialBackoff,
			MaxBackoff:      cfg.Oracle.MaxBackoff,
			MinOrderKRW:     cfg.Trading.MinOrderKRW,
		}
	}

	deps := trading.Dependencies{
		Data:      aggregator,
		Ledger:    ledger,
		Decider:   agents.NewDecisionOracle(llm, oracleOpts(cfg.Oracle.DecisionModel, cfg.Oracle.ReasoningEffort), logger),
		Reflector: agents.NewReflectionOracle(llm, oracleOpts(cfg.Oracle.ReflectionModel, ""), logger),
		Executor: trading.NewExecutor(exchange, trading.ExecutorOptions{
			Pair:        cfg.Trading.Pair,
			MinOrderKRW: cfg.Trading.MinOrderKRW,
		}, logger),
	}
	if cfg.Notifications.Enabled {
		deps.Notifier = notify.NewMultiNotifier(&cfg.Notifications)
	}

	return trading.NewOrchestrator(deps, trading.CycleOptions{
		Pair:        cfg.Trading.Pair,
		FeeRate:     cfg.Trading.FeeRate,
		HistorySize: cfg.Trading.HistorySize,
		DryRun:      dryRun,
	}, logger)
}

func printCycleReport(output *Output, report *models.CycleReport) {
	lines := []string{
		fmt.Sprintf("Cycle:     %s", report.CycleID),
		fmt.Sprintf("State:     %s", output.State(report.State)),
		fmt.Sprintf("Duration:  %s", report.Duration().Round(time.Millisecond)),
	}
	if report.DryRun {
		lines = append(lines, output.Paint("Dry run:   no order placed", color.FgYellow))
	}

	if d := report.Decision; d != nil {
		lines = append(lines,
			"",
			fmt.Sprintf("Decision:  %s", output.Decision(d.Decision)),
			fmt.Sprintf("Amount:    %s", utils.FormatKRW(d.Amount)),
			fmt.Sprintf("Reason:    %s", utils.Truncate(d.Reason, 70)),
		)
	}

	if e := report.Execution; e != nil {
		lines = append(lines, "")
		switch {
		case e.Skipped:
			lines = append(lines, "Execution: skipped")
		case e.Executed:
			lines = append(lines, fmt.Sprintf("Execution: %s at %s notional",
				output.Paint("placed", color.FgGreen), utils.FormatKRW(e.AdjustedNotional)))
			if e.Volume > 0 {
				lines = append(lines, fmt.Sprintf("Volume:    %s", utils.FormatBTC(e.Volume)))
			}
			if e.Receipt != nil {
				lines = append(lines, fmt.Sprintf("Order ID:  %s", e.Receipt.OrderID))
			}
		}
	}
	if report.ExecutionErr != "" {
		lines = append(lines, "", fmt.Sprintf("Execution: %s", output.Paint(utils.Truncate(report.ExecutionErr, 70), color.FgRed)))
	}

	if report.TradeID > 0 {
		lines = append(lines, "", fmt.Sprintf("Trade ID:  %d", report.TradeID))
	}
	if report.Notified {
		lines = append(lines, "Notified:  yes")
	}

	output.Box("Trading Cycle", lines)
}
