// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataCollection          = errors.New("data collection failed")
	ErrOracleContractViolation = errors.New("oracle contract violation")
	ErrSchemaViolation         = errors.New("response does not match schema")
	ErrOrderValidation         = errors.New("order validation failed")
	ErrBelowMinimumOrder       = errors.New("below minimum order")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidOrder            = errors.New("invalid order")
	ErrOrderRejected           = errors.New("order rejected")
	ErrPersistence             = errors.New("persistence failure")
	ErrNotification            = errors.New("notification failed")
	ErrCycleInProgress         = errors.New("a trading cycle is already running")
	ErrConfigInvalid           = errors.New("invalid configuration")
	ErrNotAuthenticated        = errors.New("not authenticated")
)

// DataCollectionError is returned when the market snapshot or trade history
// cannot be gathered. It aborts a cycle before any decision is made.
type DataCollectionError struct {
	Source string
	Err    error
}

func (e *DataCollectionError) Error() string {
	return fmt.Sprintf("data collection error [%s]: %v", e.Source, e.Err)
}

func (e *DataCollectionError) Unwrap() []error {
	return []error{ErrDataCollection, e.Err}
}

// NewDataCollectionError creates a new DataCollectionError.
func NewDataCollectionError(source string, err error) *DataCollectionError {
	return &DataCollectionError{Source: source, Err: err}
}

// OracleContractViolation is returned when the AI oracle keeps answering with
// malformed or non-conforming output after all attempts are used.
type OracleContractViolation struct {
	Oracle   string
	Attempts int
	Err      error
}

func (e *OracleContractViolation) Error() string {
	return fmt.Sprintf("oracle contract violation [%s] after %d attempt(s): %v", e.Oracle, e.Attempts, e.Err)
}

func (e *OracleContractViolation) Unwrap() []error {
	return []error{ErrOracleContractViolation, e.Err}
}

// NewOracleContractViolation creates a new OracleContractViolation.
func NewOracleContractViolation(oracle string, attempts int, err error) *OracleContractViolation {
	return &OracleContractViolation{Oracle: oracle, Attempts: attempts, Err: err}
}

// SchemaViolation reports why a single oracle response was rejected.
type SchemaViolation struct {
	Schema string
	Raw    string
	Err    error
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation [%s]: %v", e.Schema, e.Err)
}

func (e *SchemaViolation) Unwrap() []error {
	return []error{ErrSchemaViolation, e.Err}
}

// NewSchemaViolation creates a new SchemaViolation.
func NewSchemaViolation(schema, raw string, err error) *SchemaViolation {
	return &SchemaViolation{Schema: schema, Raw: raw, Err: err}
}

// OrderValidationError represents a fee-aware validation failure. Kind is one
// of ErrBelowMinimumOrder, ErrInsufficientBalance or ErrInvalidOrder.
type OrderValidationError struct {
	Kind     error
	Action   string
	Required float64
	Limit    float64
	Message  string
}

func (e *OrderValidationError) Error() string {
	return fmt.Sprintf("order validation error [%s] %s: %s (required: %.4f, limit: %.4f)",
		e.Kind, e.Action, e.Message, e.Required, e.Limit)
}

func (e *OrderValidationError) Unwrap() []error {
	return []error{ErrOrderValidation, e.Kind}
}

// NewBelowMinimumOrder creates an OrderValidationError of kind ErrBelowMinimumOrder.
func NewBelowMinimumOrder(action string, adjusted, minimum float64) *OrderValidationError {
	return &OrderValidationError{
		Kind:     ErrBelowMinimumOrder,
		Action:   action,
		Required: minimum,
		Limit:    adjusted,
		Message:  "fee-adjusted notional is below the exchange minimum",
	}
}

// NewInsufficientBalance creates an OrderValidationError of kind ErrInsufficientBalance.
func NewInsufficientBalance(action string, required, available float64) *OrderValidationError {
	return &OrderValidationError{
		Kind:     ErrInsufficientBalance,
		Action:   action,
		Required: required,
		Limit:    available,
		Message:  "available balance does not cover the order",
	}
}

// NewInvalidOrder creates an OrderValidationError of kind ErrInvalidOrder.
func NewInvalidOrder(action, message string) *OrderValidationError {
	return &OrderValidationError{
		Kind:    ErrInvalidOrder,
		Action:  action,
		Message: message,
	}
}

// OrderError represents an error related to order placement.
type OrderError struct {
	OrderID string
	Pair    string
	Side    string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s %s: %s: %v", e.OrderID, e.Side, e.Pair, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s %s: %s", e.OrderID, e.Side, e.Pair, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(orderID, pair, side, reason string, err error) *OrderError {
	return &OrderError{
		OrderID: orderID,
		Pair:    pair,
		Side:    side,
		Reason:  reason,
		Err:     err,
	}
}

// ExchangeError represents an error response from the exchange API.
type ExchangeError struct {
	Status  int
	Code    string
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange error [%d %s]: %s", e.Status, e.Code, e.Message)
}

// NewExchangeError creates a new ExchangeError.
func NewExchangeError(status int, code, message string) *ExchangeError {
	return &ExchangeError{Status: status, Code: code, Message: message}
}

// PersistenceError wraps a failed ledger operation. Writes that fail this way
// leave no partial rows behind.
type PersistenceError struct {
	Operation string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error [%s]: %v", e.Operation, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(operation string, err error) *PersistenceError {
	return &PersistenceError{Operation: operation, Err: err}
}

// NotificationError represents a failed delivery on one or more channels.
// It is always recovered locally.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification error [%s]: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() []error {
	return []error{ErrNotification, e.Err}
}

// NewNotificationError creates a new NotificationError.
func NewNotificationError(channel string, err error) *NotificationError {
	return &NotificationError{Channel: channel, Err: err}
}

// ValidationError represents a configuration or input validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
