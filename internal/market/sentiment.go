package market

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"upbit-trader/internal/models"
)

// DefaultFearGreedBaseURL is the alternative.me API host.
const DefaultFearGreedBaseURL = "https://api.alternative.me"

// FearGreedIndex reads the crypto fear & greed index.
type FearGreedIndex struct {
	client *resty.Client
}

// NewFearGreedIndex creates a fear & greed index client.
func NewFearGreedIndex(baseURL string, timeout time.Duration) *FearGreedIndex {
	if baseURL == "" {
		baseURL = DefaultFearGreedBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &FearGreedIndex{client: client}
}

// Latest returns today's index reading.
func (f *FearGreedIndex) Latest(ctx context.Context) (models.Sentiment, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("limit", "2").
		Get("/fng/")
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("failed to fetch fear & greed index: %w", err)
	}
	if resp.IsError() {
		return models.Sentiment{}, fmt.Errorf("fear & greed API error %d", resp.StatusCode())
	}

	latest := gjson.GetBytes(resp.Body(), "data.0")
	if !latest.Exists() || !latest.Get("value").Exists() {
		return models.Sentiment{}, fmt.Errorf("fear & greed response has no data")
	}

	return models.Sentiment{
		Value:          int(latest.Get("value").Int()),
		Classification: latest.Get("value_classification").String(),
		Timestamp:      time.Unix(latest.Get("timestamp").Int(), 0).UTC(),
	}, nil
}
