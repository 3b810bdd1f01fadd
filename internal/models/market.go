package models

import "time"

// Sentiment is a third-party market mood reading such as the fear & greed index.
type Sentiment struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}

// MarketSnapshot is everything the decision oracle sees for one cycle.
// It is built fresh every cycle and never persisted.
type MarketSnapshot struct {
	Pair      string     `json:"pair"`
	Candles   []Candle   `json:"candles"`
	Balances  Balances   `json:"balances"`
	AskPrice  float64    `json:"ask_price"`
	News      []NewsItem `json:"news"`
	Sentiment Sentiment  `json:"sentiment"`
	TakenAt   time.Time  `json:"taken_at"`

	Indicators TechnicalIndicators `json:"indicators"`
}

// LastClose returns the close of the newest candle, or zero.
func (s *MarketSnapshot) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// TechnicalIndicators are computed from the snapshot's daily candles. A nil
// field means there were too few candles for that indicator.
type TechnicalIndicators struct {
	SMA7            *float64 `json:"sma_7,omitempty"`
	SMA20           *float64 `json:"sma_20,omitempty"`
	EMA12           *float64 `json:"ema_12,omitempty"`
	EMA26           *float64 `json:"ema_26,omitempty"`
	MACD            *float64 `json:"macd,omitempty"`
	RSI14           *float64 `json:"rsi_14,omitempty"`
	BollingerUpper  *float64 `json:"bollinger_upper,omitempty"`
	BollingerMiddle *float64 `json:"bollinger_middle,omitempty"`
	BollingerLower  *float64 `json:"bollinger_lower,omitempty"`
}
