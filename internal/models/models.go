// Package models provides domain models for the trading application.
package models

import (
	"time"
)

// Currency codes used on the KRW market.
const (
	CurrencyKRW = "KRW"
	CurrencyBTC = "BTC"
)

// DefaultPair is the market traded by a cycle.
const DefaultPair = "KRW-BTC"

// DefaultMinOrderKRW is the smallest notional Upbit accepts on KRW markets.
const DefaultMinOrderKRW = 5000.0

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Candle represents one OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Value     float64   `json:"value"`
}

// NewsItem is a single headline gathered for the decision prompt.
type NewsItem struct {
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	Source      string    `json:"source"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Balances holds the account state at the start of a cycle.
type Balances struct {
	Quote         float64 `json:"krw"`
	AssetQuantity float64 `json:"btc"`
	AssetValue    float64 `json:"btc_value_krw"`
}
