package agents

import (
	"context"

	"github.com/rs/zerolog"

	"upbit-trader/internal/models"
)

// ReflectionOracle reviews a finished trade against recent history.
type ReflectionOracle struct {
	oracle
}

// reflectionResponse mirrors ReflectionSchema.
type reflectionResponse struct {
	Reflection         string `json:"reflection"`
	RecommendedActions string `json:"recommended_actions"`
	MarketTrends       string `json:"market_trends"`
	Insights           struct {
		Successes  string `json:"successes"`
		Challenges string `json:"challenges"`
	} `json:"insights"`
}

// NewReflectionOracle creates a new reflection oracle.
func NewReflectionOracle(client LLMClient, opts OracleOptions, logger zerolog.Logger) *ReflectionOracle {
	return &ReflectionOracle{
		oracle: newOracle("reflection", client, ReflectionSchema, opts, logger),
	}
}

// Reflect asks the oracle for a reflection on outcome. The result is unsaved:
// ids are zero and Insights is always set.
func (r *ReflectionOracle) Reflect(ctx context.Context, outcome models.TradeOutcome, history []models.Trade, snapshot *models.MarketSnapshot) (models.Reflection, error) {
	prompt := BuildReflectionPrompt(outcome, history, snapshot)

	resp, err := ask[reflectionResponse](ctx, &r.oracle, prompt, nil)
	if err != nil {
		return models.Reflection{}, err
	}

	r.logger.Info().
		Str("event", "reflection").
		Int("recommended_actions_len", len(resp.RecommendedActions)).
		Msg("AI reflection")

	return models.Reflection{
		Reflection:         resp.Reflection,
		RecommendedActions: resp.RecommendedActions,
		MarketTrends:       resp.MarketTrends,
		Insights: &models.Insights{
			Successes:  resp.Insights.Successes,
			Challenges: resp.Insights.Challenges,
		},
	}, nil
}
