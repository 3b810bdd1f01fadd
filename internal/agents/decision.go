package agents

import (
	"context"

	"github.com/rs/zerolog"

	"upbit-trader/internal/logging"
	"upbit-trader/internal/models"
)

// DecisionOracle turns a market snapshot into a BUY/SELL/HOLD decision.
type DecisionOracle struct {
	oracle
}

// NewDecisionOracle creates a new decision oracle.
func NewDecisionOracle(client LLMClient, opts OracleOptions, logger zerolog.Logger) *DecisionOracle {
	return &DecisionOracle{
		oracle: newOracle("decision", client, TradeDecisionSchema, opts, logger),
	}
}

// Decide asks the oracle for a trade decision. The returned decision always
// satisfies TradeDecision.Validate; otherwise the error is an
// *OracleContractViolation and nothing should be executed or recorded.
func (d *DecisionOracle) Decide(ctx context.Context, snapshot *models.MarketSnapshot, history []models.Trade, feeRate float64) (models.TradeDecision, error) {
	prompt := BuildDecisionPrompt(snapshot, history, feeRate, d.opts.MinOrderKRW)

	decision, err := ask(ctx, &d.oracle, prompt, models.TradeDecision.Validate)
	if err != nil {
		return models.TradeDecision{}, err
	}

	logging.LogDecision(d.logger, string(decision.Decision), decision.Amount, decision.Reason)
	return decision, nil
}
