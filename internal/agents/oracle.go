package agents

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/pkg/utils"
)

// OracleOptions configures a single oracle.
type OracleOptions struct {
	Model           string
	ReasoningEffort string
	Temperature     float32
	MaxTokens       int
	// MaxAttempts bounds the number of requests per call, malformed answers
	// and transport failures included.
	MaxAttempts    int
	Timeout        time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MinOrderKRW is quoted to the decision oracle as the exchange minimum.
	MinOrderKRW float64
}

func (o OracleOptions) withDefaults() OracleOptions {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.InitialBackoff < 0 {
		o.InitialBackoff = 0
	}
	return o
}

// oracle holds what DecisionOracle and ReflectionOracle share: a client, a
// schema and a bounded retry policy.
type oracle struct {
	name   string
	client LLMClient
	schema *Schema
	opts   OracleOptions
	logger zerolog.Logger
}

func newOracle(name string, client LLMClient, schema *Schema, opts OracleOptions, logger zerolog.Logger) oracle {
	return oracle{
		name:   name,
		client: client,
		schema: schema,
		opts:   opts.withDefaults(),
		logger: logger.With().Str("agent", name).Logger(),
	}
}

// ask sends the same prompt until the answer decodes into T and passes check,
// or the attempts run out. Exhaustion is an *OracleContractViolation.
func ask[T any](ctx context.Context, o *oracle, prompt string, check func(T) error) (T, error) {
	req := CompletionRequest{
		Model:           o.opts.Model,
		Prompt:          prompt,
		Schema:          o.schema,
		ReasoningEffort: o.opts.ReasoningEffort,
		Temperature:     o.opts.Temperature,
		MaxTokens:       o.opts.MaxTokens,
	}

	retry := utils.RetryConfig{
		MaxAttempts:   o.opts.MaxAttempts,
		InitialDelay:  o.opts.InitialBackoff,
		MaxDelay:      o.opts.MaxBackoff,
		BackoffFactor: 2.0,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			o.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", o.opts.MaxAttempts).
				Dur("backoff", delay).
				Msg("Oracle response rejected, retrying")
		},
	}

	result, attempts, err := utils.RetryWithResult(ctx, retry, func() (T, error) {
		var out T
		callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()

		start := time.Now()
		raw, err := o.client.Complete(callCtx, req)
		o.logger.Debug().
			Str("model", req.Model).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("Oracle request completed")
		if err != nil {
			return out, err
		}
		if err := o.schema.Decode(raw, &out); err != nil {
			return out, err
		}
		if check != nil {
			if err := check(out); err != nil {
				return out, apperrors.NewSchemaViolation(o.schema.Name, raw, err)
			}
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, apperrors.NewOracleContractViolation(o.name, attempts, err)
	}
	return result, nil
}
