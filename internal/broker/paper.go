package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
)

// PaperExchange implements Exchange for paper trading. Quotes come from a
// real price source; balances and fills are simulated in memory.
type PaperExchange struct {
	// Real source for ask prices
	quotes PriceSource

	balances map[string]decimal.Decimal
	feeRate  decimal.Decimal
	orders   []models.OrderReceipt

	mu sync.RWMutex
}

// PaperExchangeConfig holds configuration for the paper exchange.
type PaperExchangeConfig struct {
	Quotes        PriceSource
	QuoteCurrency string
	AssetCurrency string
	InitialQuote  float64
	InitialAsset  float64
	FeeRate       float64
}

// NewPaperExchange creates a new paper trading exchange.
func NewPaperExchange(cfg PaperExchangeConfig) *PaperExchange {
	quote := cfg.QuoteCurrency
	if quote == "" {
		quote = models.CurrencyKRW
	}
	asset := cfg.AssetCurrency
	if asset == "" {
		asset = models.CurrencyBTC
	}

	return &PaperExchange{
		quotes: cfg.Quotes,
		balances: map[string]decimal.Decimal{
			quote: decimal.NewFromFloat(cfg.InitialQuote),
			asset: decimal.NewFromFloat(cfg.InitialAsset),
		},
		feeRate: decimal.NewFromFloat(cfg.FeeRate),
	}
}

// Balance returns the simulated balance of currency.
func (p *PaperExchange) Balance(ctx context.Context, currency string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[currency].InexactFloat64(), nil
}

// AskPrice fetches the ask price from the quote source.
func (p *PaperExchange) AskPrice(ctx context.Context, pair string) (float64, error) {
	if p.quotes == nil {
		return 0, fmt.Errorf("no price source configured")
	}
	return p.quotes.AskPrice(ctx, pair)
}

// PlaceMarketOrder fills the order immediately at the current ask price and
// charges the fee on the quote side.
func (p *PaperExchange) PlaceMarketOrder(ctx context.Context, pair string, side models.OrderSide, size float64) (*models.OrderReceipt, error) {
	if size <= 0 {
		return nil, apperrors.NewOrderError("", pair, string(side), "size must be positive", apperrors.ErrInvalidOrder)
	}

	price, err := p.AskPrice(ctx, pair)
	if err != nil {
		return nil, apperrors.NewOrderError("", pair, string(side), "price unavailable", err)
	}
	if price <= 0 {
		return nil, apperrors.NewOrderError("", pair, string(side), "invalid ask price", apperrors.ErrInvalidOrder)
	}

	quoteCur, assetCur := SplitPair(pair)
	ask := decimal.NewFromFloat(price)
	amount := decimal.NewFromFloat(size)
	one := decimal.NewFromInt(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	orderID := "PAPER-" + uuid.NewString()
	receipt := models.OrderReceipt{
		OrderID:  orderID,
		Pair:     pair,
		Side:     side,
		State:    OrderStateDone,
		PlacedAt: time.Now(),
	}

	switch side {
	case models.OrderSideBuy:
		cost := amount.Mul(one.Add(p.feeRate))
		if p.balances[quoteCur].LessThan(cost) {
			return nil, apperrors.NewOrderError(orderID, pair, string(side), "insufficient funds",
				apperrors.NewExchangeError(400, "insufficient_funds_bid", "not enough "+quoteCur))
		}
		volume := amount.Div(ask).Truncate(8)
		p.balances[quoteCur] = p.balances[quoteCur].Sub(cost)
		p.balances[assetCur] = p.balances[assetCur].Add(volume)
		receipt.Notional = size
		receipt.Volume = volume.InexactFloat64()

	case models.OrderSideSell:
		if p.balances[assetCur].LessThan(amount) {
			return nil, apperrors.NewOrderError(orderID, pair, string(side), "insufficient funds",
				apperrors.NewExchangeError(400, "insufficient_funds_ask", "not enough "+assetCur))
		}
		proceeds := amount.Mul(ask).Mul(one.Sub(p.feeRate))
		p.balances[assetCur] = p.balances[assetCur].Sub(amount)
		p.balances[quoteCur] = p.balances[quoteCur].Add(proceeds)
		receipt.Notional = proceeds.InexactFloat64()
		receipt.Volume = size

	default:
		return nil, apperrors.NewOrderError(orderID, pair, string(side), "unknown side", apperrors.ErrInvalidOrder)
	}

	p.orders = append(p.orders, receipt)
	return &receipt, nil
}

// Orders returns the simulated fills in placement order.
func (p *PaperExchange) Orders() []models.OrderReceipt {
	p.mu.RLock()
	defer p.mu.RUnlock()

	orders := make([]models.OrderReceipt, len(p.orders))
	copy(orders, p.orders)
	return orders
}
