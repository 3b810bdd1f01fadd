// Package trading sequences a trading cycle and executes its orders.
package trading

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/logging"
	"upbit-trader/internal/models"
	"upbit-trader/internal/store"
)

// DataAggregator provides the market snapshot for a cycle.
type DataAggregator interface {
	Snapshot(ctx context.Context) (*models.MarketSnapshot, error)
}

// DecisionMaker turns a snapshot and history into a trade decision.
type DecisionMaker interface {
	Decide(ctx context.Context, snapshot *models.MarketSnapshot, history []models.Trade, feeRate float64) (models.TradeDecision, error)
}

// Reflector reviews a cycle's outcome.
type Reflector interface {
	Reflect(ctx context.Context, outcome models.TradeOutcome, history []models.Trade, snapshot *models.MarketSnapshot) (models.Reflection, error)
}

// OrderExecutor validates and executes a decision.
type OrderExecutor interface {
	Execute(ctx context.Context, decision models.TradeDecision, balances models.Balances, askPrice, feeRate float64) (*models.ExecutionResult, error)
}

// Notifier delivers the end-of-cycle summary.
type Notifier interface {
	SendTradeSummary(ctx context.Context, summary models.TradeSummary) error
}

// Orchestrator runs trading cycles. Only one cycle runs at a time.
type Orchestrator struct {
	data      DataAggregator
	ledger    store.Ledger
	decider   DecisionMaker
	executor  OrderExecutor
	reflector Reflector
	notifier  Notifier
	opts      CycleOptions
	logger    zerolog.Logger
	now       func() time.Time

	mu sync.Mutex
}

// CycleOptions holds per-cycle parameters.
type CycleOptions struct {
	Pair        string
	FeeRate     float64
	HistorySize int
	DryRun      bool
}

// Dependencies are the collaborators an Orchestrator sequences.
type Dependencies struct {
	Data      DataAggregator
	Ledger    store.Ledger
	Decider   DecisionMaker
	Executor  OrderExecutor
	Reflector Reflector
	Notifier  Notifier
}

// NewOrchestrator creates a new Orchestrator. A nil Notifier disables
// notifications.
func NewOrchestrator(deps Dependencies, opts CycleOptions, logger zerolog.Logger) *Orchestrator {
	if opts.Pair == "" {
		opts.Pair = models.DefaultPair
	}
	if opts.HistorySize < 0 {
		opts.HistorySize = 0
	}

	return &Orchestrator{
		data:      deps.Data,
		ledger:    deps.Ledger,
		decider:   deps.Decider,
		executor:  deps.Executor,
		reflector: deps.Reflector,
		notifier:  deps.Notifier,
		opts:      opts,
		logger:    logging.WithComponent(logger, "orchestrator"),
		now:       time.Now,
	}
}

// RunCycle runs one trading cycle to completion or abort. The report is
// always returned; the error is non-nil exactly when the cycle aborted.
func (o *Orchestrator) RunCycle(ctx context.Context) (*models.CycleReport, error) {
	if !o.mu.TryLock() {
		return nil, apperrors.ErrCycleInProgress
	}
	defer o.mu.Unlock()

	report := &models.CycleReport{
		CycleID:   uuid.NewString(),
		State:     models.StateCollectContext,
		DryRun:    o.opts.DryRun,
		StartedAt: o.now(),
	}
	logger := logging.WithCycle(o.logger, report.CycleID)

	err := o.run(ctx, report, logger)

	report.FinishedAt = o.now()
	logging.LogCycle(logger, string(report.State), report.Duration(), err)
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, report *models.CycleReport, logger zerolog.Logger) error {
	// CollectContext
	snapshot, err := o.data.Snapshot(ctx)
	if err != nil {
		report.State = models.StateAbortedOnDataFailure
		if !apperrors.Is(err, apperrors.ErrDataCollection) {
			err = apperrors.NewDataCollectionError("snapshot", err)
		}
		return err
	}

	history, err := o.ledger.Recent(ctx, o.opts.HistorySize)
	if err != nil {
		report.State = models.StateAbortedOnDataFailure
		return apperrors.NewDataCollectionError("history", err)
	}

	// Decide
	report.State = models.StateDecide
	decision, err := o.decider.Decide(ctx, snapshot, history, o.opts.FeeRate)
	if err != nil {
		report.State = models.StateAbortedOnOracleFailure
		return err
	}
	report.Decision = &decision

	// ValidateAndExecute
	report.State = models.StateValidateAndExecute
	outcome := models.TradeOutcome{Decision: decision, DryRun: o.opts.DryRun}
	if o.opts.DryRun {
		report.Execution = &models.ExecutionResult{Action: decision.Decision, Skipped: true}
		logger.Info().Str("decision", string(decision.Decision)).Msg("Dry run, order execution skipped")
	} else {
		execution, err := o.executor.Execute(ctx, decision, snapshot.Balances, snapshot.AskPrice, o.opts.FeeRate)
		if err != nil {
			report.ExecutionErr = err.Error()
			outcome.ExecutionError = err.Error()
			logger.Warn().Err(err).Str("decision", string(decision.Decision)).Msg("Execution failed, continuing to reflection")
		} else {
			report.Execution = execution
		}
	}
	outcome.Execution = report.Execution

	// Reflect
	report.State = models.StateReflect
	reflection, err := o.reflector.Reflect(ctx, outcome, history, snapshot)
	if err != nil {
		report.State = models.StateAbortedOnOracleFailure
		return err
	}

	// Persist
	report.State = models.StatePersist
	tradeID, err := o.ledger.Record(ctx, models.TradeFromDecision(decision), reflection)
	if err != nil {
		report.State = models.StateAbortedOnPersistenceFailure
		if !apperrors.Is(err, apperrors.ErrPersistence) {
			err = apperrors.NewPersistenceError("record", err)
		}
		return err
	}
	report.TradeID = tradeID

	// NotifyResult
	if !o.opts.DryRun && o.notifier != nil {
		report.State = models.StateNotifyResult
		summary := models.TradeSummary{
			Timestamp: o.now(),
			Pair:      o.opts.Pair,
			Decision:  decision.Decision,
			Amount:    decision.Amount,
			Reason:    decision.Reason,
			Executed:  report.Execution != nil && report.Execution.Executed,
			TradeID:   tradeID,
		}
		if err := o.notifier.SendTradeSummary(ctx, summary); err != nil {
			logger.Warn().Err(err).Msg("Notification failed")
		} else {
			report.Notified = true
		}
	}

	report.State = models.StateCompleted
	return nil
}
