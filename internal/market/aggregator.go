// Package market gathers the per-cycle market snapshot: daily candles,
// balances, the ask price, news headlines and the fear & greed index.
package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"upbit-trader/internal/broker"
	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/logging"
	"upbit-trader/internal/models"
	"upbit-trader/pkg/utils"
)

// NewsSource returns recent headlines for a query.
type NewsSource interface {
	Headlines(ctx context.Context, query string, limit int) ([]models.NewsItem, error)
}

// SentimentSource returns the latest market sentiment reading.
type SentimentSource interface {
	Latest(ctx context.Context) (models.Sentiment, error)
}

// Aggregator builds MarketSnapshots from its sources.
type Aggregator struct {
	exchange  broker.Exchange
	candles   broker.CandleSource
	news      NewsSource
	sentiment SentimentSource
	opts      AggregatorOptions
	logger    zerolog.Logger
	now       func() time.Time
}

// AggregatorOptions holds snapshot parameters.
type AggregatorOptions struct {
	Pair        string
	CandleCount int
	NewsQuery   string
	NewsLimit   int
	Retry       utils.RetryConfig
}

// DefaultAggregatorOptions returns the defaults for the KRW-BTC market.
func DefaultAggregatorOptions() AggregatorOptions {
	return AggregatorOptions{
		Pair:        models.DefaultPair,
		CandleCount: 30,
		NewsQuery:   "Stock Market Bitcoin",
		NewsLimit:   10,
		Retry:       utils.DefaultRetryConfig(),
	}
}

// NewAggregator creates an Aggregator. news may be nil, in which case
// snapshots carry no headlines.
func NewAggregator(exchange broker.Exchange, candles broker.CandleSource, news NewsSource, sentiment SentimentSource, opts AggregatorOptions, logger zerolog.Logger) *Aggregator {
	defaults := DefaultAggregatorOptions()
	if opts.Pair == "" {
		opts.Pair = defaults.Pair
	}
	if opts.CandleCount <= 0 {
		opts.CandleCount = defaults.CandleCount
	}
	if opts.NewsQuery == "" {
		opts.NewsQuery = defaults.NewsQuery
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = defaults.NewsLimit
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = defaults.Retry
	}
	if opts.Retry.ShouldRetry == nil {
		opts.Retry.ShouldRetry = func(err error) bool {
			return !apperrors.Is(err, apperrors.ErrNotAuthenticated)
		}
	}

	return &Aggregator{
		exchange:  exchange,
		candles:   candles,
		news:      news,
		sentiment: sentiment,
		opts:      opts,
		logger:    logging.WithComponent(logger, "market"),
		now:       time.Now,
	}
}

// Snapshot collects a fresh MarketSnapshot. Candles, balances, the ask
// price and sentiment are required; news failures only leave the news empty.
func (a *Aggregator) Snapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	quoteCur, assetCur := broker.SplitPair(a.opts.Pair)

	candles, err := fetch(ctx, a.opts.Retry, func() ([]models.Candle, error) {
		return a.candles.DailyCandles(ctx, a.opts.Pair, a.opts.CandleCount)
	})
	if err != nil {
		return nil, apperrors.NewDataCollectionError("candles", err)
	}

	quote, err := fetch(ctx, a.opts.Retry, func() (float64, error) {
		return a.exchange.Balance(ctx, quoteCur)
	})
	if err != nil {
		return nil, apperrors.NewDataCollectionError("balance "+quoteCur, err)
	}

	asset, err := fetch(ctx, a.opts.Retry, func() (float64, error) {
		return a.exchange.Balance(ctx, assetCur)
	})
	if err != nil {
		return nil, apperrors.NewDataCollectionError("balance "+assetCur, err)
	}

	ask, err := fetch(ctx, a.opts.Retry, func() (float64, error) {
		return a.exchange.AskPrice(ctx, a.opts.Pair)
	})
	if err != nil {
		return nil, apperrors.NewDataCollectionError("orderbook", err)
	}

	sentiment, err := fetch(ctx, a.opts.Retry, func() (models.Sentiment, error) {
		return a.sentiment.Latest(ctx)
	})
	if err != nil {
		return nil, apperrors.NewDataCollectionError("fear_greed_index", err)
	}

	news := []models.NewsItem{}
	if a.news != nil {
		items, err := a.news.Headlines(ctx, a.opts.NewsQuery, a.opts.NewsLimit)
		if err != nil {
			a.logger.Warn().Err(err).Msg("News unavailable, continuing without headlines")
		} else {
			news = items
		}
	}

	return &models.MarketSnapshot{
		Pair:    a.opts.Pair,
		Candles: candles,
		Balances: models.Balances{
			Quote:         quote,
			AssetQuantity: asset,
			AssetValue:    asset * ask,
		},
		AskPrice:   ask,
		News:       news,
		Sentiment:  sentiment,
		TakenAt:    a.now(),
		Indicators: ComputeIndicators(candles),
	}, nil
}

func fetch[T any](ctx context.Context, cfg utils.RetryConfig, fn func() (T, error)) (T, error) {
	result, _, err := utils.RetryWithResult(ctx, cfg, fn)
	return result, err
}
