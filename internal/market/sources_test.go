package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerpAPINewsPaginatesUpToLimit(t *testing.T) {
	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "nws", r.URL.Query().Get("tbm"))
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		pages++

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		fmt.Fprintf(w, `{"news_results":[
			{"position":%d,"title":"headline %d","snippet":"s","source":"CNBC","link":"https://a","date":"3 hours ago"},
			{"position":%d,"title":"headline %d","snippet":"s","source":{"name":"Reuters"},"link":"https://b","iso_date":"2024-05-01T10:00:00Z"}
		]}`, start+1, start+1, start+2, start+2)
	}))
	defer srv.Close()

	news := NewSerpAPINews(srv.URL, "key", time.Second)
	items, err := news.Headlines(context.Background(), "Stock Market Bitcoin", 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 2, pages)
	assert.Equal(t, "headline 1", items[0].Title)
	assert.Equal(t, "CNBC", items[0].Source)
	assert.Equal(t, "Reuters", items[1].Source)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), items[1].PublishedAt.UTC())
}

func TestSerpAPINewsRequiresKey(t *testing.T) {
	_, err := NewSerpAPINews("http://127.0.0.1:0", "", time.Second).Headlines(context.Background(), "q", 10)
	assert.Error(t, err)
}

func TestParseRelativeDate(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-3*time.Hour), parseRelativeDate("3 hours ago", now))
	assert.Equal(t, now.AddDate(0, 0, -2), parseRelativeDate("2 days ago", now))
	assert.True(t, parseRelativeDate("May 1, 2024", now).IsZero())
}

func TestFearGreedIndexLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fng/", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"name":"Fear and Greed Index","data":[
			{"value":"40","value_classification":"Fear","timestamp":"1714521600"},
			{"value":"55","value_classification":"Greed","timestamp":"1714435200"}
		]}`))
	}))
	defer srv.Close()

	s, err := NewFearGreedIndex(srv.URL, time.Second).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, s.Value)
	assert.Equal(t, "Fear", s.Classification)
	assert.Equal(t, int64(1714521600), s.Timestamp.Unix())
}

func TestFearGreedIndexEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewFearGreedIndex(srv.URL, time.Second).Latest(context.Background())
	assert.Error(t, err)
}
