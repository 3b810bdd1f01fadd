package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
)

type recordingExchange struct {
	orders []placedOrder
	err    error
}

type placedOrder struct {
	pair string
	side models.OrderSide
	size float64
}

func (r *recordingExchange) Balance(ctx context.Context, currency string) (float64, error) {
	return 0, nil
}

func (r *recordingExchange) AskPrice(ctx context.Context, pair string) (float64, error) {
	return 0, nil
}

func (r *recordingExchange) PlaceMarketOrder(ctx context.Context, pair string, side models.OrderSide, size float64) (*models.OrderReceipt, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.orders = append(r.orders, placedOrder{pair: pair, side: side, size: size})
	return &models.OrderReceipt{OrderID: "ord-1", Pair: pair, Side: side, State: "wait"}, nil
}

func newTestExecutor(ex *recordingExchange) *Executor {
	return NewExecutor(ex, ExecutorOptions{}, zerolog.Nop())
}

func TestAdjustedNotional(t *testing.T) {
	assert.True(t, AdjustedNotional(10000, 0.0005).Equal(decimal.NewFromInt(9995)))
	assert.True(t, AdjustedNotional(10000, 0).Equal(decimal.NewFromInt(10000)))
}

func TestExecuteHoldPlacesNothing(t *testing.T) {
	ex := &recordingExchange{}
	result, err := newTestExecutor(ex).Execute(context.Background(),
		models.TradeDecision{Decision: models.ActionHold, Amount: 100000},
		models.Balances{}, 0, 0.0005)

	require.NoError(t, err)
	assert.False(t, result.Executed)
	assert.True(t, result.Skipped)
	assert.Empty(t, ex.orders)
}

func TestExecuteBuy(t *testing.T) {
	ex := &recordingExchange{}
	result, err := newTestExecutor(ex).Execute(context.Background(),
		models.TradeDecision{Decision: models.ActionBuy, Amount: 10000},
		models.Balances{Quote: 20000}, 90000000, 0.0005)

	require.NoError(t, err)
	assert.True(t, result.Executed)
	assert.Equal(t, 9995.0, result.AdjustedNotional)
	require.Len(t, ex.orders, 1)
	assert.Equal(t, models.OrderSideBuy, ex.orders[0].side)
	assert.Equal(t, 9995.0, ex.orders[0].size)
	assert.Equal(t, models.DefaultPair, ex.orders[0].pair)
}

func TestExecuteBuyBelowMinimum(t *testing.T) {
	for _, quote := range []float64{10000, 4000} {
		ex := &recordingExchange{}
		_, err := newTestExecutor(ex).Execute(context.Background(),
			models.TradeDecision{Decision: models.ActionBuy, Amount: 5000},
			models.Balances{Quote: quote}, 90000000, 0.0005)

		assert.ErrorIs(t, err, apperrors.ErrBelowMinimumOrder, "quote %v", quote)
		assert.ErrorIs(t, err, apperrors.ErrOrderValidation)
		assert.Empty(t, ex.orders)
	}
}

func TestExecuteBuyInsufficientBalance(t *testing.T) {
	ex := &recordingExchange{}
	_, err := newTestExecutor(ex).Execute(context.Background(),
		models.TradeDecision{Decision: models.ActionBuy, Amount: 20000},
		models.Balances{Quote: 10000}, 90000000, 0)

	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Empty(t, ex.orders)
}

func TestExecuteSell(t *testing.T) {
	ex := &recordingExchange{}
	result, err := newTestExecutor(ex).Execute(context.Background(),
		models.TradeDecision{Decision: models.ActionSell, Amount: 10000},
		models.Balances{AssetQuantity: 0.001}, 30000000, 0)

	require.NoError(t, err)
	require.Len(t, ex.orders, 1)
	assert.Equal(t, models.OrderSideSell, ex.orders[0].side)
	assert.Equal(t, 0.00033333, ex.orders[0].size)
	assert.Equal(t, 0.00033333, result.Volume)
}

func TestExecuteSellInsufficientBalance(t *testing.T) {
	ex := &recordingExchange{}
	// 0.0001 BTC at 30,000,000 is worth 3,000 KRW.
	_, err := newTestExecutor(ex).Execute(context.Background(),
		models.TradeDecision{Decision: models.ActionSell, Amount: 6000},
		models.Balances{AssetQuantity: 0.0001, AssetValue: 3000}, 30000000, 0)

	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Empty(t, ex.orders)
}

func TestExecuteInvalidInputs(t *testing.T) {
	cases := []struct {
		name     string
		decision models.TradeDecision
		ask      float64
		fee      float64
	}{
		{"unknown action", models.TradeDecision{Decision: "SHORT", Amount: 10000}, 1, 0},
		{"negative amount", models.TradeDecision{Decision: models.ActionBuy, Amount: -1}, 1, 0},
		{"fee of one", models.TradeDecision{Decision: models.ActionBuy, Amount: 10000}, 1, 1},
		{"negative fee", models.TradeDecision{Decision: models.ActionBuy, Amount: 10000}, 1, -0.1},
		{"sell without price", models.TradeDecision{Decision: models.ActionSell, Amount: 10000}, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := &recordingExchange{}
			_, err := newTestExecutor(ex).Execute(context.Background(), tc.decision,
				models.Balances{Quote: 1e9, AssetQuantity: 100}, tc.ask, tc.fee)
			assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
			assert.Empty(t, ex.orders)
		})
	}
}

func TestExecutePlacementFailure(t *testing.T) {
	ex := &recordingExchange{err: errors.New("connection reset")}
	_, err := newTestExecutor(ex).Execute(context.Background(),
		models.TradeDecision{Decision: models.ActionBuy, Amount: 10000},
		models.Balances{Quote: 20000}, 1, 0)

	var orderErr *apperrors.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, "BUY", orderErr.Side)
}

// Property: an order is placed exactly when the fee-adjusted notional clears
// the minimum and the relevant balance covers it, and the buy size is always
// amount × (1 − fee).
func TestProperty_ExecutorPlacesOrderOnlyWhenAffordable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("buy places one order iff adjusted >= minimum and quote covers it", prop.ForAll(
		func(amount, quote, fee float64) bool {
			ex := &recordingExchange{}
			_, err := newTestExecutor(ex).Execute(context.Background(),
				models.TradeDecision{Decision: models.ActionBuy, Amount: amount},
				models.Balances{Quote: quote}, 1, fee)

			adjusted := AdjustedNotional(amount, fee)
			affordable := !adjusted.LessThan(decimal.NewFromFloat(models.DefaultMinOrderKRW)) &&
				!decimal.NewFromFloat(quote).LessThan(adjusted)

			if affordable {
				return err == nil && len(ex.orders) == 1 &&
					decimal.NewFromFloat(ex.orders[0].size).Equal(decimal.NewFromFloat(adjusted.InexactFloat64()))
			}
			return err != nil && len(ex.orders) == 0
		},
		gen.Float64Range(0, 1000000),
		gen.Float64Range(0, 1000000),
		gen.Float64Range(0, 0.01),
	))

	properties.Property("sell places one order iff asset value covers adjusted notional", prop.ForAll(
		func(amount, qty, ask float64) bool {
			ex := &recordingExchange{}
			_, err := newTestExecutor(ex).Execute(context.Background(),
				models.TradeDecision{Decision: models.ActionSell, Amount: amount},
				models.Balances{AssetQuantity: qty}, ask, 0.0005)

			adjusted := AdjustedNotional(amount, 0.0005)
			value := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(ask))
			affordable := !adjusted.LessThan(decimal.NewFromFloat(models.DefaultMinOrderKRW)) && !value.LessThan(adjusted)

			if affordable {
				return err == nil && len(ex.orders) == 1 && ex.orders[0].side == models.OrderSideSell
			}
			return err != nil && len(ex.orders) == 0
		},
		gen.Float64Range(0, 1000000),
		gen.Float64Range(0, 0.05),
		gen.Float64Range(10000000, 150000000),
	))

	properties.TestingRun(t)
}
