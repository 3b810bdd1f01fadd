package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
)

func TestTradeDecisionSchemaDecode(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"bare object", `{"decision":"BUY","reason":"uptrend","amount":10000}`, true},
		{"fenced", "Here you go:\n```json\n{\"decision\":\"HOLD\",\"reason\":\"flat\",\"amount\":0}\n```", true},
		{"surrounded by prose", `Sure. {"decision":"SELL","reason":"top","amount":5000} Good luck.`, true},
		{"lowercase decision", `{"decision":"buy","reason":"r","amount":1}`, false},
		{"negative amount", `{"decision":"BUY","reason":"r","amount":-1}`, false},
		{"missing reason", `{"decision":"BUY","amount":1}`, false},
		{"extra field", `{"decision":"BUY","reason":"r","amount":1,"confidence":0.9}`, false},
		{"amount as string", `{"decision":"BUY","reason":"r","amount":"1000"}`, false},
		{"not json", `I think you should buy.`, false},
		{"empty", ``, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d models.TradeDecision
			err := TradeDecisionSchema.Decode(tc.raw, &d)
			if tc.ok {
				require.NoError(t, err)
				assert.NoError(t, d.Validate())
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrSchemaViolation)
			var sv *apperrors.SchemaViolation
			require.ErrorAs(t, err, &sv)
			assert.Equal(t, "trade_decision", sv.Schema)
		})
	}
}

func TestReflectionSchemaRequiresInsights(t *testing.T) {
	var resp reflectionResponse
	err := ReflectionSchema.Decode(`{"reflection":"r","recommended_actions":"a","market_trends":"m"}`, &resp)
	assert.ErrorIs(t, err, apperrors.ErrSchemaViolation)

	err = ReflectionSchema.Decode(`{"reflection":"r","recommended_actions":"a","market_trends":"m",
		"insights":{"successes":"s","challenges":"c"}}`, &resp)
	require.NoError(t, err)
	assert.Equal(t, "s", resp.Insights.Successes)
}

func TestCompileSchemaRejectsInvalidDocument(t *testing.T) {
	_, err := CompileSchema("broken", `{"type": 12}`)
	assert.Error(t, err)
}

func TestSchemaRawIsSentVerbatim(t *testing.T) {
	assert.Contains(t, string(TradeDecisionSchema.Raw()), `"additionalProperties": false`)
}
