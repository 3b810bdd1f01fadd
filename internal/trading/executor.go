package trading

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"upbit-trader/internal/broker"
	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/logging"
	"upbit-trader/internal/models"
)

// volumePrecision is the number of decimals kept on sell volumes.
const volumePrecision = 8

// Executor validates decisions against balances and places at most one
// market order per decision.
type Executor struct {
	exchange broker.Exchange
	pair     string
	minOrder decimal.Decimal
	logger   zerolog.Logger
}

// ExecutorOptions holds executor configuration.
type ExecutorOptions struct {
	Pair        string
	MinOrderKRW float64
}

// NewExecutor creates a new Executor.
func NewExecutor(exchange broker.Exchange, opts ExecutorOptions, logger zerolog.Logger) *Executor {
	if opts.Pair == "" {
		opts.Pair = models.DefaultPair
	}
	if opts.MinOrderKRW <= 0 {
		opts.MinOrderKRW = models.DefaultMinOrderKRW
	}
	return &Executor{
		exchange: exchange,
		pair:     opts.Pair,
		minOrder: decimal.NewFromFloat(opts.MinOrderKRW),
		logger:   logging.WithComponent(logger, "executor"),
	}
}

// AdjustedNotional returns amount × (1 − feeRate).
func AdjustedNotional(amount, feeRate float64) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return decimal.NewFromFloat(amount).Mul(one.Sub(decimal.NewFromFloat(feeRate)))
}

// Execute validates decision and, when it passes, places exactly one market
// order. HOLD places nothing. Every validation failure is an
// *errors.OrderValidationError and no order is placed.
func (e *Executor) Execute(ctx context.Context, decision models.TradeDecision, balances models.Balances, askPrice, feeRate float64) (*models.ExecutionResult, error) {
	action := string(decision.Decision)

	if !decision.Decision.IsValid() {
		return nil, apperrors.NewInvalidOrder(action, "unknown decision")
	}
	if decision.Decision == models.ActionHold {
		return &models.ExecutionResult{Action: models.ActionHold, Skipped: true}, nil
	}
	if decision.Amount < 0 {
		return nil, apperrors.NewInvalidOrder(action, "amount must be non-negative")
	}
	if feeRate < 0 || feeRate >= 1 {
		return nil, apperrors.NewInvalidOrder(action, "fee rate must be in [0, 1)")
	}

	adjusted := AdjustedNotional(decision.Amount, feeRate)
	if adjusted.LessThan(e.minOrder) {
		return nil, apperrors.NewBelowMinimumOrder(action, adjusted.InexactFloat64(), e.minOrder.InexactFloat64())
	}

	result := &models.ExecutionResult{
		Action:           decision.Decision,
		AdjustedNotional: adjusted.InexactFloat64(),
	}

	side, _ := decision.Decision.Side()
	var size decimal.Decimal

	switch decision.Decision {
	case models.ActionBuy:
		available := decimal.NewFromFloat(balances.Quote)
		if available.LessThan(adjusted) {
			return nil, apperrors.NewInsufficientBalance(action, adjusted.InexactFloat64(), balances.Quote)
		}
		size = adjusted

	case models.ActionSell:
		if askPrice <= 0 {
			return nil, apperrors.NewInvalidOrder(action, "ask price must be positive")
		}
		ask := decimal.NewFromFloat(askPrice)
		value := decimal.NewFromFloat(balances.AssetQuantity).Mul(ask)
		if value.LessThan(adjusted) {
			return nil, apperrors.NewInsufficientBalance(action, adjusted.InexactFloat64(), value.InexactFloat64())
		}
		size = adjusted.Div(ask).Truncate(volumePrecision)
		if !size.IsPositive() {
			return nil, apperrors.NewInvalidOrder(action, "sell volume rounds to zero")
		}
		result.Volume = size.InexactFloat64()
	}

	receipt, err := e.exchange.PlaceMarketOrder(ctx, e.pair, side, size.InexactFloat64())
	if err != nil {
		var orderErr *apperrors.OrderError
		if apperrors.As(err, &orderErr) {
			return nil, err
		}
		return nil, apperrors.NewOrderError("", e.pair, string(side), "order placement failed", err)
	}

	result.Executed = true
	result.Receipt = receipt

	e.logger.Info().
		Str("action", action).
		Str("adjusted_notional", adjusted.StringFixed(2)).
		Str("size", size.String()).
		Msg("Order executed")

	return result, nil
}
