package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"upbit-trader/internal/models"
	"upbit-trader/internal/store"
	"upbit-trader/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	var reflections bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent trades from the ledger",
		Example: `  trader history
  trader history --limit 20 --reflections
  trader history --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ledger, err := store.NewSQLiteLedger(app.Config.Store.Path)
			if err != nil {
				return fmt.Errorf("opening ledger: %w", err)
			}
			defer ledger.Close()

			trades, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades recorded yet")
				return nil
			}

			printTrades(output, trades)
			if reflections {
				printReflections(output, trades)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of trades to show")
	cmd.Flags().BoolVar(&reflections, "reflections", false, "also show each trade's reflection")

	return cmd
}

func printTrades(output *Output, trades []models.Trade) {
	table := NewTable(output, "ID", "TIME", "DECISION", "AMOUNT", "REASON")
	for _, t := range trades {
		table.AddRow(
			fmt.Sprintf("%d", t.ID),
			t.TradedTime.Local().Format("2006-01-02 15:04:05"),
			output.Decision(t.Decision),
			utils.FormatKRW(t.Amount),
			utils.Truncate(t.Reason, 60),
		)
	}
	table.Render()
}

func printReflections(output *Output, trades []models.Trade) {
	for _, t := range trades {
		r := t.Reflection
		if r == nil {
			continue
		}
		lines := []string{
			"Reflection:  " + utils.Truncate(r.Reflection, 80),
			"Recommended: " + utils.Truncate(r.RecommendedActions, 80),
			"Trends:      " + utils.Truncate(r.MarketTrends, 80),
		}
		if r.Insights != nil {
			lines = append(lines,
				"Successes:   "+utils.Truncate(r.Insights.Successes, 80),
				"Challenges:  "+utils.Truncate(r.Insights.Challenges, 80),
			)
		}
		output.Println()
		output.Box(fmt.Sprintf("Trade #%d", t.ID), lines)
	}
}
