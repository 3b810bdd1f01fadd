package models

import "time"

// OrderReceipt is what the exchange returns after accepting a market order.
type OrderReceipt struct {
	OrderID  string    `json:"order_id"`
	Pair     string    `json:"pair"`
	Side     OrderSide `json:"side"`
	Notional float64   `json:"notional,omitempty"` // KRW spent on a market buy
	Volume   float64   `json:"volume,omitempty"`   // BTC sold on a market sell
	State    string    `json:"state"`
	PlacedAt time.Time `json:"placed_at"`
}

// ExecutionResult describes what the executor did with a decision.
type ExecutionResult struct {
	Action           Action        `json:"action"`
	Executed         bool          `json:"executed"`
	Skipped          bool          `json:"skipped"`
	AdjustedNotional float64       `json:"adjusted_notional"`
	Volume           float64       `json:"volume,omitempty"`
	Receipt          *OrderReceipt `json:"receipt,omitempty"`
}

// TradeOutcome is what the reflection oracle is told about a cycle's trade.
type TradeOutcome struct {
	Decision       TradeDecision    `json:"decision"`
	Execution      *ExecutionResult `json:"execution,omitempty"`
	ExecutionError string           `json:"execution_error,omitempty"`
	DryRun         bool             `json:"dry_run"`
}

// TradeSummary is the outbound message sent after a completed cycle.
type TradeSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Pair      string    `json:"pair"`
	Decision  Action    `json:"decision"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	Executed  bool      `json:"executed"`
	TradeID   int64     `json:"trade_id"`
}
