package agents

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"upbit-trader/internal/models"
)

const tradeDecisionPrompt = `You are an expert Bitcoin investor trading on the Upbit KRW-BTC market.
Decide whether to BUY, SELL or HOLD right now, and for how much.

Daily OHLCV chart data for the last 30 days (JSON):
[CHART_DATA]

Technical indicators computed from that chart (JSON):
[TECHNICAL_INDICATORS]

Your past trading decisions with their reflections, newest first (JSON):
[PAST_TRADING_DATA]

Current KRW balance: [CURRENT_KRW_BALANCE]
Current BTC holdings valued in KRW: [CURRENT_BTC_BALANCE]

Recent news (JSON):
[NEWS]

Fear & Greed index (JSON):
[FEAR_GREED_INDEX]

Every order is charged a trade fee of [TRADE_FEE] (as a fraction of the order amount),
and the exchange rejects orders below [MIN_ORDER] KRW after the fee is deducted.

Rules:
- "amount" is a KRW notional. For BUY it must not exceed the KRW balance; for SELL it
  must not exceed the KRW value of the BTC holdings.
- Use an amount of 0 for HOLD.
- Learn from the recommended actions and challenges in your past reflections.

Respond with a JSON object containing "decision", "reason" and "amount".`

const reflectionPrompt = `You are a trading assistant reviewing an automated Bitcoin trader.

The trading decision made in this cycle and what happened when it was executed (JSON):
[TRADING_DATA]

Past trading decisions with their reflections, newest first (JSON):
[PAST_TRADING_DATA]

Current market data (JSON):
[CURRENT_MARKET_DATA]

Reflect on the recent decisions: what worked, what did not, which market trends you
notice, and what the trader should do differently in the next cycle.

Respond with a JSON object containing "reflection", "insights" (with "successes" and
"challenges"), "recommended_actions" and "market_trends".`

// FillPrompt replaces every [KEY] placeholder in template with values[KEY].
// Placeholders without a value are left untouched.
func FillPrompt(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "["+key+"]", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// toJSON renders v for a prompt. Rendering never fails the cycle; an encoding
// problem is shown inline instead.
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unavailable: %v>", err)
	}
	return string(b)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// historyView is the shape of a past trade shown to the oracles.
type historyView struct {
	ID         int64           `json:"id"`
	Decision   models.Action   `json:"decision"`
	Reason     string          `json:"reason"`
	Amount     float64         `json:"amount"`
	TradedTime string          `json:"tradedTime,omitempty"`
	Reflection *reflectionView `json:"reflection"`
}

type reflectionView struct {
	Reflection         string        `json:"reflection"`
	RecommendedActions string        `json:"recommendedActions"`
	MarketTrends       string        `json:"marketTrends"`
	Insights           *insightsView `json:"insights"`
}

type insightsView struct {
	Successes  string `json:"successes"`
	Challenges string `json:"challenges"`
}

func renderHistory(history []models.Trade) string {
	views := make([]historyView, 0, len(history))
	for _, t := range history {
		v := historyView{
			ID:       t.ID,
			Decision: t.Decision,
			Reason:   t.Reason,
			Amount:   t.Amount,
		}
		if !t.TradedTime.IsZero() {
			v.TradedTime = t.TradedTime.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		if r := t.Reflection; r != nil {
			v.Reflection = &reflectionView{
				Reflection:         r.Reflection,
				RecommendedActions: r.RecommendedActions,
				MarketTrends:       r.MarketTrends,
			}
			if in := r.Insights; in != nil {
				v.Reflection.Insights = &insightsView{Successes: in.Successes, Challenges: in.Challenges}
			}
		}
		views = append(views, v)
	}
	return toJSON(views)
}

// BuildDecisionPrompt renders the decision template for a snapshot. A
// non-positive minOrderKRW renders the exchange default.
func BuildDecisionPrompt(snapshot *models.MarketSnapshot, history []models.Trade, feeRate, minOrderKRW float64) string {
	if minOrderKRW <= 0 {
		minOrderKRW = models.DefaultMinOrderKRW
	}
	return FillPrompt(tradeDecisionPrompt, map[string]string{
		"CHART_DATA":           toJSON(snapshot.Candles),
		"TECHNICAL_INDICATORS": toJSON(snapshot.Indicators),
		"PAST_TRADING_DATA":    renderHistory(history),
		"CURRENT_KRW_BALANCE":  formatAmount(snapshot.Balances.Quote),
		"CURRENT_BTC_BALANCE":  formatAmount(snapshot.Balances.AssetValue),
		"NEWS":                 toJSON(snapshot.News),
		"FEAR_GREED_INDEX":     toJSON(snapshot.Sentiment),
		"TRADE_FEE":            formatAmount(feeRate),
		"MIN_ORDER":            formatAmount(minOrderKRW),
	})
}

// BuildReflectionPrompt renders the reflection template for a finished trade.
func BuildReflectionPrompt(outcome models.TradeOutcome, history []models.Trade, snapshot *models.MarketSnapshot) string {
	var market interface{}
	if snapshot != nil {
		market = struct {
			Candles   []models.Candle  `json:"candles"`
			AskPrice  float64          `json:"ask_price"`
			Sentiment models.Sentiment `json:"fear_greed_index"`
		}{snapshot.Candles, snapshot.AskPrice, snapshot.Sentiment}
	}
	return FillPrompt(reflectionPrompt, map[string]string{
		"TRADING_DATA":        toJSON(outcome),
		"PAST_TRADING_DATA":   renderHistory(history),
		"CURRENT_MARKET_DATA": toJSON(market),
	})
}
