package models

import "time"

// Insights captures what worked and what did not in recent trading.
type Insights struct {
	ID         int64     `json:"id"`
	Successes  string    `json:"successes"`
	Challenges string    `json:"challenges"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reflection is the post-trade narrative produced by the reflection oracle.
type Reflection struct {
	ID                 int64     `json:"id"`
	Reflection         string    `json:"reflection"`
	RecommendedActions string    `json:"recommended_actions"`
	MarketTrends       string    `json:"market_trends"`
	InsightsID         int64     `json:"insights_id"`
	Insights           *Insights `json:"insights"`
	CreatedAt          time.Time `json:"created_at"`
}

// Trade is the row of record for one cycle. Reflection is populated when
// loaded from the ledger.
type Trade struct {
	ID           int64       `json:"id"`
	Decision     Action      `json:"decision"`
	Reason       string      `json:"reason"`
	Amount       float64     `json:"amount"`
	TradedTime   time.Time   `json:"traded_time"`
	ReflectionID int64       `json:"reflection_id"`
	Reflection   *Reflection `json:"reflection"`
}

// TradeFromDecision builds an unsaved Trade for a decision.
func TradeFromDecision(d TradeDecision) Trade {
	return Trade{
		Decision: d.Decision,
		Reason:   d.Reason,
		Amount:   d.Amount,
	}
}
