package models

import "fmt"

// Action is the oracle's verdict for a cycle.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// IsValid reports whether a is one of BUY, SELL or HOLD.
func (a Action) IsValid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionHold:
		return true
	}
	return false
}

// Side maps a trading action to an order side. HOLD has no side.
func (a Action) Side() (OrderSide, bool) {
	switch a {
	case ActionBuy:
		return OrderSideBuy, true
	case ActionSell:
		return OrderSideSell, true
	}
	return "", false
}

// TradeDecision is the structured answer of the decision oracle.
// Amount is a KRW notional, not a BTC quantity.
type TradeDecision struct {
	Decision Action  `json:"decision"`
	Reason   string  `json:"reason"`
	Amount   float64 `json:"amount"`
}

// Validate checks the rules every produced decision must satisfy.
func (d TradeDecision) Validate() error {
	if !d.Decision.IsValid() {
		return fmt.Errorf("invalid decision %q", d.Decision)
	}
	if d.Amount < 0 {
		return fmt.Errorf("amount must be non-negative, got %f", d.Amount)
	}
	return nil
}
