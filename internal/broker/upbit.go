package broker

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/logging"
	"upbit-trader/internal/models"
)

// DefaultUpbitBaseURL is the Upbit REST endpoint.
const DefaultUpbitBaseURL = "https://api.upbit.com"

// DefaultUpbitRequestsPerSecond stays under the tightest Upbit per-second quota.
const DefaultUpbitRequestsPerSecond = 8

// UpbitExchange implements Exchange and CandleSource against the Upbit REST API.
type UpbitExchange struct {
	client    *resty.Client
	limiter   *rate.Limiter
	accessKey string
	secretKey string
	logger    zerolog.Logger
}

// UpbitConfig holds configuration for the Upbit exchange.
type UpbitConfig struct {
	BaseURL   string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
	// RequestsPerSecond throttles every call; zero means the default.
	RequestsPerSecond float64
}

// NewUpbitExchange creates a new Upbit client. Quotation endpoints work
// without keys; account and order endpoints require them.
func NewUpbitExchange(cfg UpbitConfig, logger zerolog.Logger) *UpbitExchange {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultUpbitBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultUpbitRequestsPerSecond
	}

	return &UpbitExchange{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		logger:    logging.WithComponent(logger, "upbit"),
	}
}

// IsAuthenticated reports whether account endpoints can be used.
func (u *UpbitExchange) IsAuthenticated() bool {
	return u.accessKey != "" && u.secretKey != ""
}

type upbitAccount struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Locked       string `json:"locked"`
	AvgBuyPrice  string `json:"avg_buy_price"`
	UnitCurrency string `json:"unit_currency"`
}

type upbitOrderbook struct {
	Market string `json:"market"`
	Units  []struct {
		AskPrice float64 `json:"ask_price"`
		BidPrice float64 `json:"bid_price"`
		AskSize  float64 `json:"ask_size"`
		BidSize  float64 `json:"bid_size"`
	} `json:"orderbook_units"`
}

type upbitCandle struct {
	Market        string  `json:"market"`
	CandleTimeUTC string  `json:"candle_date_time_utc"`
	Open          float64 `json:"opening_price"`
	High          float64 `json:"high_price"`
	Low           float64 `json:"low_price"`
	Close         float64 `json:"trade_price"`
	Volume        float64 `json:"candle_acc_trade_volume"`
	Value         float64 `json:"candle_acc_trade_price"`
}

type upbitOrder struct {
	UUID      string `json:"uuid"`
	Side      string `json:"side"`
	OrdType   string `json:"ord_type"`
	Price     string `json:"price"`
	Volume    string `json:"volume"`
	State     string `json:"state"`
	Market    string `json:"market"`
	CreatedAt string `json:"created_at"`
}

type upbitErrorBody struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// Balance returns the unlocked balance of currency. A currency the account
// has never held has a zero balance.
func (u *UpbitExchange) Balance(ctx context.Context, currency string) (float64, error) {
	if !u.IsAuthenticated() {
		return 0, apperrors.ErrNotAuthenticated
	}

	token, err := u.token(nil)
	if err != nil {
		return 0, err
	}

	var accounts []upbitAccount
	if err := u.do(ctx, "GET", "/v1/accounts", nil, token, &accounts); err != nil {
		return 0, err
	}

	for _, acc := range accounts {
		if acc.Currency != currency {
			continue
		}
		balance, err := strconv.ParseFloat(acc.Balance, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s balance %q: %w", currency, acc.Balance, err)
		}
		return balance, nil
	}
	return 0, nil
}

// AskPrice returns the best ask price for pair.
func (u *UpbitExchange) AskPrice(ctx context.Context, pair string) (float64, error) {
	var books []upbitOrderbook
	params := url.Values{"markets": {pair}}
	if err := u.do(ctx, "GET", "/v1/orderbook", params, "", &books); err != nil {
		return 0, err
	}
	if len(books) == 0 || len(books[0].Units) == 0 {
		return 0, fmt.Errorf("empty order book for %s", pair)
	}
	return books[0].Units[0].AskPrice, nil
}

// DailyCandles returns up to count daily candles, oldest first.
func (u *UpbitExchange) DailyCandles(ctx context.Context, pair string, count int) ([]models.Candle, error) {
	var raw []upbitCandle
	params := url.Values{
		"market": {pair},
		"count":  {strconv.Itoa(count)},
	}
	if err := u.do(ctx, "GET", "/v1/candles/days", params, "", &raw); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		c := raw[i]
		ts, err := time.Parse("2006-01-02T15:04:05", c.CandleTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("parsing candle time %q: %w", c.CandleTimeUTC, err)
		}
		candles = append(candles, models.Candle{
			Timestamp: ts.UTC(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			Value:     c.Value,
		})
	}
	return candles, nil
}

// PlaceMarketOrder places a market order. A BUY spends size KRW
// (ord_type=price); a SELL sells size units of the asset (ord_type=market).
func (u *UpbitExchange) PlaceMarketOrder(ctx context.Context, pair string, side models.OrderSide, size float64) (*models.OrderReceipt, error) {
	if !u.IsAuthenticated() {
		return nil, apperrors.NewOrderError("", pair, string(side), "credentials missing", apperrors.ErrNotAuthenticated)
	}

	params := url.Values{"market": {pair}}
	switch side {
	case models.OrderSideBuy:
		params.Set("side", "bid")
		params.Set("ord_type", "price")
		params.Set("price", decimal.NewFromFloat(size).Truncate(0).String())
	case models.OrderSideSell:
		params.Set("side", "ask")
		params.Set("ord_type", "market")
		params.Set("volume", strconv.FormatFloat(size, 'f', 8, 64))
	default:
		return nil, apperrors.NewOrderError("", pair, string(side), "unknown side", apperrors.ErrInvalidOrder)
	}

	token, err := u.token(params)
	if err != nil {
		return nil, apperrors.NewOrderError("", pair, string(side), "signing request", err)
	}

	body := make(map[string]string, len(params))
	for k := range params {
		body[k] = params.Get(k)
	}

	var order upbitOrder
	if err := u.do(ctx, "POST", "/v1/orders", body, token, &order); err != nil {
		return nil, apperrors.NewOrderError("", pair, string(side), "order placement failed", err)
	}

	receipt := &models.OrderReceipt{
		OrderID:  order.UUID,
		Pair:     pair,
		Side:     side,
		State:    order.State,
		PlacedAt: time.Now(),
	}
	if t, err := time.Parse(time.RFC3339, order.CreatedAt); err == nil {
		receipt.PlacedAt = t
	}
	if side == models.OrderSideBuy {
		receipt.Notional = size
	} else {
		receipt.Volume = size
	}

	logging.LogOrder(u.logger, receipt.OrderID, pair, string(side), size)
	return receipt, nil
}

// token builds the bearer JWT. When params are present the query hash of
// their encoded form is included.
func (u *UpbitExchange) token(params url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": u.accessKey,
		"nonce":      uuid.NewString(),
	}
	if len(params) > 0 {
		sum := sha512.Sum512([]byte(params.Encode()))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(u.secretKey))
	if err != nil {
		return "", fmt.Errorf("signing upbit token: %w", err)
	}
	return signed, nil
}

// do executes a request. For GET, payload must be url.Values; for POST it is
// sent as the JSON body.
func (u *UpbitExchange) do(ctx context.Context, method, path string, payload interface{}, token string, out interface{}) error {
	if err := u.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()

	req := u.client.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case "GET":
		if params, ok := payload.(url.Values); ok {
			req.SetQueryParamsFromValues(params)
		}
		resp, err = req.Get(path)
	case "POST":
		resp, err = req.SetHeader("Content-Type", "application/json").SetBody(payload).Post(path)
	default:
		err = fmt.Errorf("unsupported method %s", method)
	}

	if err == nil && resp.IsError() {
		err = decodeUpbitError(resp)
	}
	logging.LogAPICall(u.logger, method, path, time.Since(start), err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeUpbitError(resp *resty.Response) error {
	var body upbitErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Error.Name == "" {
		return apperrors.NewExchangeError(resp.StatusCode(), "", resp.String())
	}
	return apperrors.NewExchangeError(resp.StatusCode(), body.Error.Name, body.Error.Message)
}
