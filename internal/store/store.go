// Package store provides the append-only trade ledger.
package store

import (
	"context"

	"upbit-trader/internal/models"
)

// Ledger persists each cycle as an Insights -> Reflection -> Trade chain and
// serves recent trades back as context for the next cycle. Rows are never
// updated or deleted once written.
type Ledger interface {
	// Record writes the whole chain atomically and returns the new trade id.
	Record(ctx context.Context, trade models.Trade, reflection models.Reflection) (int64, error)
	// Recent returns at most n trades, newest first, with reflection and
	// insights populated when present.
	Recent(ctx context.Context, n int) ([]models.Trade, error)
	// Close releases the underlying database.
	Close() error
}
