package market

import (
	"math"

	"github.com/markcheno/go-talib"

	"upbit-trader/internal/models"
)

// Indicator periods on daily candles.
const (
	shortSMAPeriod  = 7
	longSMAPeriod   = 20
	fastEMAPeriod   = 12
	slowEMAPeriod   = 26
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerStdDev = 2.0
)

// ComputeIndicators derives the latest indicator values from candles ordered
// oldest first. Indicators whose lookback exceeds the candle count are left nil.
func ComputeIndicators(candles []models.Candle) models.TechnicalIndicators {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	var out models.TechnicalIndicators
	n := len(closes)

	if n >= shortSMAPeriod {
		out.SMA7 = latest(talib.Sma(closes, shortSMAPeriod))
	}
	if n >= longSMAPeriod {
		out.SMA20 = latest(talib.Sma(closes, longSMAPeriod))
	}
	if n >= fastEMAPeriod {
		out.EMA12 = latest(talib.Ema(closes, fastEMAPeriod))
	}
	if n >= slowEMAPeriod {
		out.EMA26 = latest(talib.Ema(closes, slowEMAPeriod))
	}
	if out.EMA12 != nil && out.EMA26 != nil {
		macd := *out.EMA12 - *out.EMA26
		out.MACD = &macd
	}
	if n > rsiPeriod {
		out.RSI14 = latest(talib.Rsi(closes, rsiPeriod))
	}
	if n >= bollingerPeriod {
		upper, middle, lower := talib.BBands(closes, bollingerPeriod, bollingerStdDev, bollingerStdDev, talib.SMA)
		out.BollingerUpper = latest(upper)
		out.BollingerMiddle = latest(middle)
		out.BollingerLower = latest(lower)
	}

	return out
}

func latest(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
