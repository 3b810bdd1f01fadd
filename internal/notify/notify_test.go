package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbit-trader/internal/config"
	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
)

type stubChannel struct {
	name    string
	enabled bool
	err     error
	sent    []Notification
}

func (s *stubChannel) Name() string    { return s.name }
func (s *stubChannel) IsEnabled() bool { return s.enabled }
func (s *stubChannel) Send(ctx context.Context, n Notification) error {
	s.sent = append(s.sent, n)
	return s.err
}

func testSummary() models.TradeSummary {
	return models.TradeSummary{
		Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Pair:      models.DefaultPair,
		Decision:  models.ActionBuy,
		Amount:    25000,
		Reason:    "Breakout above resistance",
		Executed:  true,
		TradeID:   42,
	}
}

func TestWebhookReceivesSummary(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mn := NewMultiNotifier(&config.NotificationConfig{
		Enabled: true,
		Webhook: config.WebhookConfig{Enabled: true, URL: srv.URL},
	})

	require.NoError(t, mn.SendTradeSummary(context.Background(), testSummary()))
	assert.Equal(t, "trade", payload["type"])

	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "BUY", data["decision"])
	assert.Equal(t, 25000.0, data["amount"])
	assert.Equal(t, "2024-05-01T09:30:00Z", data["timestamp"])
	assert.Contains(t, payload["message"], "₩25,000")
}

func TestWebhookErrorStatusIsNotificationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	mn := NewMultiNotifier(&config.NotificationConfig{
		Enabled: true,
		Webhook: config.WebhookConfig{Enabled: true, URL: srv.URL},
	})

	err := mn.SendTradeSummary(context.Background(), testSummary())
	assert.ErrorIs(t, err, apperrors.ErrNotification)

	var ne *apperrors.NotificationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "webhook", ne.Channel)
}

func TestTelegramSendsEscapedHTML(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier(config.TelegramConfig{Enabled: true, BotToken: "TOKEN", ChatID: "123"})
	tg.client.SetBaseURL(srv.URL)

	err := tg.Send(context.Background(), Notification{Title: "A <b> title", Message: "x & y"})
	require.NoError(t, err)
	assert.Equal(t, "123", body["chat_id"])
	assert.Equal(t, "HTML", body["parse_mode"])
	assert.True(t, strings.Contains(body["text"].(string), "A &lt;b&gt; title"))
	assert.True(t, strings.Contains(body["text"].(string), "x &amp; y"))
}

func TestMultiNotifierTriesEveryChannel(t *testing.T) {
	failing := &stubChannel{name: "first", enabled: true, err: errors.New("boom")}
	working := &stubChannel{name: "second", enabled: true}
	disabled := &stubChannel{name: "third"}

	mn := NewMultiNotifier(nil)
	mn.AddChannel(failing)
	mn.AddChannel(working)
	mn.AddChannel(disabled)

	err := mn.Send(context.Background(), Notification{Title: "t"})
	require.Error(t, err)
	assert.Len(t, failing.sent, 1)
	assert.Len(t, working.sent, 1)
	assert.Empty(t, disabled.sent)
	assert.False(t, working.sent[0].Timestamp.IsZero())

	var ne *apperrors.NotificationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "first", ne.Channel)
}

func TestMultiNotifierKeepsEveryChannelCause(t *testing.T) {
	errFirst := errors.New("first down")
	errSecond := errors.New("second down")

	mn := NewMultiNotifier(nil)
	mn.AddChannel(&stubChannel{name: "first", enabled: true, err: errFirst})
	mn.AddChannel(&stubChannel{name: "second", enabled: true, err: errSecond})

	err := mn.Send(context.Background(), Notification{Title: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotification)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)

	var ne *apperrors.NotificationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "first,second", ne.Channel)
	assert.Contains(t, err.Error(), "first: first down")
	assert.Contains(t, err.Error(), "second: second down")
}

func TestDisabledNotificationsHaveNoChannels(t *testing.T) {
	mn := NewMultiNotifier(&config.NotificationConfig{
		Enabled: false,
		Webhook: config.WebhookConfig{Enabled: true, URL: "http://127.0.0.1:1"},
	})
	assert.NoError(t, mn.SendTradeSummary(context.Background(), testSummary()))
}
