package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
	"upbit-trader/pkg/utils"
)

type fakeExchange struct {
	balances map[string]float64
	ask      float64
	err      error
}

func (f *fakeExchange) Balance(ctx context.Context, currency string) (float64, error) {
	return f.balances[currency], f.err
}

func (f *fakeExchange) AskPrice(ctx context.Context, pair string) (float64, error) {
	return f.ask, f.err
}

func (f *fakeExchange) PlaceMarketOrder(ctx context.Context, pair string, side models.OrderSide, size float64) (*models.OrderReceipt, error) {
	return nil, errors.New("not used")
}

type fakeCandles struct {
	calls int
	fail  int
}

func (f *fakeCandles) DailyCandles(ctx context.Context, pair string, count int) ([]models.Candle, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, errors.New("temporarily unavailable")
	}
	return []models.Candle{{Close: 1}, {Close: 2}}, nil
}

type fakeNews struct{ err error }

func (f fakeNews) Headlines(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.NewsItem{{Title: "BTC rallies"}}, nil
}

type fakeSentiment struct{ err error }

func (f fakeSentiment) Latest(ctx context.Context) (models.Sentiment, error) {
	return models.Sentiment{Value: 40, Classification: "Fear"}, f.err
}

func testOptions() AggregatorOptions {
	opts := DefaultAggregatorOptions()
	opts.Retry = utils.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	return opts
}

func TestSnapshotCollectsEverything(t *testing.T) {
	ex := &fakeExchange{balances: map[string]float64{"KRW": 100000, "BTC": 0.5}, ask: 90000000}
	candles := &fakeCandles{fail: 1}
	agg := NewAggregator(ex, candles, fakeNews{}, fakeSentiment{}, testOptions(), zerolog.Nop())

	snap, err := agg.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, candles.calls)
	assert.Equal(t, models.DefaultPair, snap.Pair)
	assert.Equal(t, 100000.0, snap.Balances.Quote)
	assert.Equal(t, 0.5, snap.Balances.AssetQuantity)
	assert.Equal(t, 45000000.0, snap.Balances.AssetValue)
	assert.Equal(t, 2.0, snap.LastClose())
	assert.Len(t, snap.News, 1)
	assert.Equal(t, 40, snap.Sentiment.Value)
}

func TestSnapshotNewsFailureIsRecoverable(t *testing.T) {
	ex := &fakeExchange{balances: map[string]float64{}, ask: 1}
	agg := NewAggregator(ex, &fakeCandles{}, fakeNews{err: errors.New("quota")}, fakeSentiment{}, testOptions(), zerolog.Nop())

	snap, err := agg.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.News)
	assert.Empty(t, snap.News)
}

func TestSnapshotRequiredSourceFailure(t *testing.T) {
	ex := &fakeExchange{balances: map[string]float64{}, ask: 1}
	agg := NewAggregator(ex, &fakeCandles{}, nil, fakeSentiment{err: errors.New("down")}, testOptions(), zerolog.Nop())

	_, err := agg.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDataCollection)

	var dce *apperrors.DataCollectionError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, "fear_greed_index", dce.Source)
}

func TestSnapshotDoesNotRetryMissingCredentials(t *testing.T) {
	ex := &fakeExchange{err: apperrors.ErrNotAuthenticated}
	candles := &fakeCandles{}
	agg := NewAggregator(ex, candles, nil, fakeSentiment{}, testOptions(), zerolog.Nop())

	_, err := agg.Snapshot(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.ErrorIs(t, err, apperrors.ErrDataCollection)
}
