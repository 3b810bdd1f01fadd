package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbit-trader/internal/models"
)

func risingCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{Close: float64(i + 1)}
	}
	return candles
}

func TestComputeIndicatorsOnRisingSeries(t *testing.T) {
	ind := ComputeIndicators(risingCandles(30))

	require.NotNil(t, ind.SMA7)
	assert.InDelta(t, 27.0, *ind.SMA7, 1e-9)
	require.NotNil(t, ind.SMA20)
	assert.InDelta(t, 20.5, *ind.SMA20, 1e-9)

	require.NotNil(t, ind.RSI14)
	assert.InDelta(t, 100.0, *ind.RSI14, 1e-9)

	require.NotNil(t, ind.MACD)
	assert.Positive(t, *ind.MACD)

	require.NotNil(t, ind.BollingerMiddle)
	assert.InDelta(t, 20.5, *ind.BollingerMiddle, 1e-9)
	assert.Greater(t, *ind.BollingerUpper, *ind.BollingerMiddle)
	assert.Less(t, *ind.BollingerLower, *ind.BollingerMiddle)
}

func TestComputeIndicatorsWithShortHistory(t *testing.T) {
	ind := ComputeIndicators(risingCandles(10))

	require.NotNil(t, ind.SMA7)
	assert.Nil(t, ind.SMA20)
	assert.Nil(t, ind.EMA12)
	assert.Nil(t, ind.MACD)
	assert.Nil(t, ind.RSI14)
	assert.Nil(t, ind.BollingerUpper)

	assert.Equal(t, models.TechnicalIndicators{}, ComputeIndicators(nil))
}
