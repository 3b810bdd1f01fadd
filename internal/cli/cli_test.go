package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
	"upbit-trader/internal/store"
)

// testConfigDir writes a config.toml that keeps logs and the ledger inside
// a temp dir and clears credentials from the environment.
func testConfigDir(t *testing.T) (dir, dbPath string) {
	t.Helper()
	for _, key := range []string{
		"TRADE_FEE", "TRADING_MODE", "OPENAI_API_KEY", "UPBIT_ACCESS_KEY", "UPBIT_SECRET_KEY",
		"SERPAPI_API_KEY", "NOTIFY_WEBHOOK_URL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(key, "")
	}

	dir = t.TempDir()
	dbPath = filepath.Join(dir, "trader.db")
	cfg := `
[trading]
mode = "paper"
pair = "KRW-BTC"

[store]
path = "` + filepath.ToSlash(dbPath) + `"

[logging]
level = "error"
console = false
file = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0644))
	return dir, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, Version, got["version"])
}

func TestConfigPathHonorsFlag(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")

	out, err := execute(t, "config", "path", "--config", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))
}

func TestConfigShowJSON(t *testing.T) {
	dir, dbPath := testConfigDir(t)

	out, err := execute(t, "config", "show", "--json", "--config", dir)
	require.NoError(t, err)

	var got struct {
		Trading struct {
			Mode string
			Pair string
		}
		Store struct{ Path string }
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "paper", got.Trading.Mode)
	assert.Equal(t, "KRW-BTC", got.Trading.Pair)
	assert.Equal(t, filepath.ToSlash(dbPath), got.Store.Path)
}

func TestConfigValidateReportsMissingKey(t *testing.T) {
	dir, _ := testConfigDir(t)

	out, err := execute(t, "config", "validate", "--config", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
	assert.Contains(t, out, "OPENAI_API_KEY")
}

func TestRunRequiresOpenAIKey(t *testing.T) {
	dir, dbPath := testConfigDir(t)

	_, err := execute(t, "run", "--dry-run", "--config", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "ledger must not be created before credentials are checked")
}

func TestHistoryEmpty(t *testing.T) {
	dir, _ := testConfigDir(t)

	out, err := execute(t, "history", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No trades recorded yet")
}

func TestHistoryListsNewestFirst(t *testing.T) {
	dir, dbPath := testConfigDir(t)

	ledger, err := store.NewSQLiteLedger(dbPath)
	require.NoError(t, err)
	reflection := models.Reflection{
		Reflection:         "Held through chop.",
		RecommendedActions: "Wait for a breakout.",
		MarketTrends:       "Range bound.",
		Insights:           &models.Insights{Successes: "Patience.", Challenges: "Thin news flow."},
	}
	for _, trade := range []models.Trade{
		{Decision: models.ActionBuy, Reason: "first", Amount: 10000},
		{Decision: models.ActionHold, Reason: "second", Amount: 0},
		{Decision: models.ActionSell, Reason: "third", Amount: 20000},
	} {
		_, err := ledger.Record(context.Background(), trade, reflection)
		require.NoError(t, err)
	}
	require.NoError(t, ledger.Close())

	out, err := execute(t, "history", "--json", "--limit", "2", "--config", dir)
	require.NoError(t, err)

	var trades []models.Trade
	require.NoError(t, json.Unmarshal([]byte(out), &trades))
	require.Len(t, trades, 2)
	assert.Equal(t, "third", trades[0].Reason)
	assert.Equal(t, "second", trades[1].Reason)
	require.NotNil(t, trades[0].Reflection)
	assert.Equal(t, "Range bound.", trades[0].Reflection.MarketTrends)

	out, err = execute(t, "history", "--reflections", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "DECISION")
	assert.Contains(t, out, "₩20,000")
	assert.Contains(t, out, "Trade #1")
	assert.Contains(t, out, "Wait for a breakout.")
}

func newTestOutput(buf *bytes.Buffer) *Output {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	cmd.SetOut(buf)
	return NewOutput(cmd)
}

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	output := newTestOutput(&buf)

	table := NewTable(output, "ID", "DECISION")
	table.AddRow("1", "BUY")
	table.AddRow("12", "HOLD")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  DECISION", lines[0])
	assert.Equal(t, "────────────", lines[1])
	assert.Equal(t, "1   BUY", lines[2])
	assert.Equal(t, "12  HOLD", lines[3])
}

func TestBoxPadsToWidestLine(t *testing.T) {
	var buf bytes.Buffer
	output := newTestOutput(&buf)

	output.Box("Cycle", []string{"₩1,000", "longer line"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	for _, line := range lines {
		assert.Equal(t, displayWidth(lines[0]), displayWidth(line), line)
	}
	assert.Equal(t, "│ ₩1,000      │", lines[3])
}

func TestPrintCycleReport(t *testing.T) {
	var buf bytes.Buffer
	output := newTestOutput(&buf)

	printCycleReport(output, &models.CycleReport{
		CycleID:  "c-1",
		State:    models.StateCompleted,
		Decision: &models.TradeDecision{Decision: models.ActionBuy, Reason: "breakout", Amount: 50000},
		Execution: &models.ExecutionResult{
			Action:           models.ActionBuy,
			Executed:         true,
			AdjustedNotional: 49975,
			Receipt:          &models.OrderReceipt{OrderID: "uuid-1"},
		},
		TradeID:  7,
		Notified: true,
	})

	out := buf.String()
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "₩49,975")
	assert.Contains(t, out, "uuid-1")
	assert.Contains(t, out, "Trade ID:  7")
}
