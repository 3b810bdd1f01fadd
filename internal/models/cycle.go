package models

import "time"

// CycleState is the stage a trading cycle is in, or the terminal state it
// ended in.
type CycleState string

const (
	StateCollectContext     CycleState = "CollectContext"
	StateDecide             CycleState = "Decide"
	StateValidateAndExecute CycleState = "ValidateAndExecute"
	StateReflect            CycleState = "Reflect"
	StatePersist            CycleState = "Persist"
	StateNotifyResult       CycleState = "NotifyResult"

	StateCompleted                   CycleState = "Completed"
	StateAbortedOnDataFailure        CycleState = "AbortedOnDataFailure"
	StateAbortedOnOracleFailure      CycleState = "AbortedOnOracleFailure"
	StateAbortedOnPersistenceFailure CycleState = "AbortedOnPersistenceFailure"
)

// IsTerminal reports whether s ends a cycle.
func (s CycleState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateAbortedOnDataFailure, StateAbortedOnOracleFailure, StateAbortedOnPersistenceFailure:
		return true
	}
	return false
}

// IsAborted reports whether s is a terminal failure state.
func (s CycleState) IsAborted() bool {
	return s.IsTerminal() && s != StateCompleted
}

// CycleReport summarizes one trading cycle.
type CycleReport struct {
	CycleID      string           `json:"cycle_id"`
	State        CycleState       `json:"state"`
	DryRun       bool             `json:"dry_run"`
	Decision     *TradeDecision   `json:"decision,omitempty"`
	Execution    *ExecutionResult `json:"execution,omitempty"`
	ExecutionErr string           `json:"execution_error,omitempty"`
	TradeID      int64            `json:"trade_id,omitempty"`
	Notified     bool             `json:"notified"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
}

// Duration returns how long the cycle ran.
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
