// Package broker provides exchange integration interfaces and implementations.
package broker

import (
	"context"
	"strings"

	"upbit-trader/internal/models"
)

// Exchange defines the operations a trading cycle needs from an exchange.
type Exchange interface {
	// Balance returns the available (unlocked) balance of a currency.
	Balance(ctx context.Context, currency string) (float64, error)

	// AskPrice returns the best ask of the pair's order book.
	AskPrice(ctx context.Context, pair string) (float64, error)

	// PlaceMarketOrder places a market order. For BUY, size is the quote
	// notional to spend; for SELL, size is the asset volume to sell.
	PlaceMarketOrder(ctx context.Context, pair string, side models.OrderSide, size float64) (*models.OrderReceipt, error)
}

// CandleSource provides daily OHLCV bars.
type CandleSource interface {
	DailyCandles(ctx context.Context, pair string, count int) ([]models.Candle, error)
}

// PriceSource provides quotes without requiring an account.
type PriceSource interface {
	AskPrice(ctx context.Context, pair string) (float64, error)
}

// OrderState values reported on receipts.
const (
	OrderStateWait   = "wait"
	OrderStateDone   = "done"
	OrderStateCancel = "cancel"
)

// SplitPair splits a market code such as "KRW-BTC" into its quote and asset
// currencies.
func SplitPair(pair string) (quote, asset string) {
	quote, asset, _ = strings.Cut(pair, "-")
	return quote, asset
}
