package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"upbit-trader/internal/models"
)

// DefaultSerpAPIBaseURL is the SerpAPI search endpoint host.
const DefaultSerpAPIBaseURL = "https://serpapi.com"

// SerpAPINews fetches Google News results through SerpAPI. Only the search
// snippets are used; article pages are never downloaded.
type SerpAPINews struct {
	client *resty.Client
	apiKey string
}

// NewSerpAPINews creates a SerpAPI news client.
func NewSerpAPINews(baseURL, apiKey string, timeout time.Duration) *SerpAPINews {
	if baseURL == "" {
		baseURL = DefaultSerpAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &SerpAPINews{client: client, apiKey: apiKey}
}

// Headlines returns at most limit news results for query, following result
// pages until enough are collected or the results run out.
func (s *SerpAPINews) Headlines(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("SerpAPI key not configured")
	}

	items := make([]models.NewsItem, 0, limit)
	for start := 0; len(items) < limit; {
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"api_key":       s.apiKey,
				"engine":        "google",
				"q":             query,
				"google_domain": "google.com",
				"gl":            "us",
				"hl":            "en",
				"tbm":           "nws",
				"start":         strconv.Itoa(start),
			}).
			Get("/search.json")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch news: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("SerpAPI error %d: %s", resp.StatusCode(), gjson.GetBytes(resp.Body(), "error").String())
		}

		results := gjson.GetBytes(resp.Body(), "news_results").Array()
		if len(results) == 0 {
			break
		}
		for _, r := range results {
			if len(items) >= limit {
				break
			}
			items = append(items, parseNewsResult(r))
		}
		start += len(results)
	}

	return items, nil
}

func parseNewsResult(r gjson.Result) models.NewsItem {
	source := r.Get("source.name").String()
	if source == "" {
		source = r.Get("source").String()
	}

	item := models.NewsItem{
		Title:  r.Get("title").String(),
		Text:   r.Get("snippet").String(),
		Source: source,
		Link:   r.Get("link").String(),
	}
	if t, err := time.Parse(time.RFC3339, r.Get("iso_date").String()); err == nil {
		item.PublishedAt = t
	} else {
		item.PublishedAt = parseRelativeDate(r.Get("date").String(), time.Now())
	}
	return item
}

// parseRelativeDate understands Google's "3 hours ago" style dates. Anything
// else yields the zero time.
func parseRelativeDate(s string, now time.Time) time.Time {
	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d %s ago", &n, &unit); err != nil {
		return time.Time{}
	}

	switch unit {
	case "min", "mins", "minute", "minutes":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour", "hours":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day", "days":
		return now.AddDate(0, 0, -n)
	case "week", "weeks":
		return now.AddDate(0, 0, -7*n)
	case "month", "months":
		return now.AddDate(0, -n, 0)
	}
	return time.Time{}
}
