package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "upbit-trader/internal/errors"
	"upbit-trader/internal/models"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db  *sql.DB
	now func() time.Time
}

var _ Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (or creates) the ledger database at dbPath.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; cycles never run concurrently.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ledger := &SQLiteLedger{
		db:  db,
		now: time.Now,
	}

	if err := ledger.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return ledger, nil
}

// initSchema creates all required tables, indexes and append-only guards.
func (s *SQLiteLedger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		successes TEXT NOT NULL,
		challenges TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reflections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reflection TEXT NOT NULL,
		recommended_actions TEXT NOT NULL,
		market_trends TEXT NOT NULL,
		insights_id INTEGER NOT NULL UNIQUE REFERENCES insights(id),
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		decision TEXT NOT NULL CHECK (decision IN ('BUY', 'SELL', 'HOLD')),
		reason TEXT NOT NULL,
		amount REAL NOT NULL CHECK (amount >= 0),
		traded_time INTEGER NOT NULL,
		reflection_id INTEGER NOT NULL UNIQUE REFERENCES reflections(id)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_traded_time ON trades(traded_time DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	for _, table := range []string{"insights", "reflections", "trades"} {
		for _, op := range []string{"UPDATE", "DELETE"} {
			stmt := fmt.Sprintf(`
			CREATE TRIGGER IF NOT EXISTS %[1]s_no_%[2]s BEFORE %[3]s ON %[1]s
			BEGIN
				SELECT RAISE(ABORT, 'ledger is append-only');
			END;`, table, strings.ToLower(op), op)
			if _, err := s.db.Exec(stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// Record inserts Insights, then Reflection, then Trade inside one transaction.
// Either all three rows are written or none are.
func (s *SQLiteLedger) Record(ctx context.Context, trade models.Trade, reflection models.Reflection) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewPersistenceError("begin", err)
	}
	defer tx.Rollback()

	now := s.now()

	var successes, challenges string
	if reflection.Insights != nil {
		successes = reflection.Insights.Successes
		challenges = reflection.Insights.Challenges
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO insights (successes, challenges, created_at) VALUES (?, ?, ?)
	`, successes, challenges, now.UnixNano())
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert insights", err)
	}
	insightsID, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert insights", err)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO reflections (reflection, recommended_actions, market_trends, insights_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, reflection.Reflection, reflection.RecommendedActions, reflection.MarketTrends, insightsID, now.UnixNano())
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert reflection", err)
	}
	reflectionID, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert reflection", err)
	}

	tradedTime, err := s.nextTradedTime(ctx, tx, now)
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert trade", err)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO trades (decision, reason, amount, traded_time, reflection_id)
		VALUES (?, ?, ?, ?, ?)
	`, string(trade.Decision), trade.Reason, trade.Amount, tradedTime, reflectionID)
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert trade", err)
	}
	tradeID, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.NewPersistenceError("insert trade", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewPersistenceError("commit", err)
	}

	return tradeID, nil
}

// nextTradedTime keeps traded_time strictly increasing so that "most recent"
// ordering is total even when the clock stalls or steps backwards.
func (s *SQLiteLedger) nextTradedTime(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error) {
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(traded_time) FROM trades`).Scan(&last); err != nil {
		return 0, err
	}
	ts := now.UnixNano()
	if last.Valid && ts <= last.Int64 {
		ts = last.Int64 + 1
	}
	return ts, nil
}

// Recent returns at most n trades ordered by traded time, newest first.
func (s *SQLiteLedger) Recent(ctx context.Context, n int) ([]models.Trade, error) {
	if n <= 0 {
		return []models.Trade{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.decision, t.reason, t.amount, t.traded_time, t.reflection_id,
		       r.id, r.reflection, r.recommended_actions, r.market_trends, r.insights_id, r.created_at,
		       i.id, i.successes, i.challenges, i.created_at
		FROM trades t
		LEFT JOIN reflections r ON r.id = t.reflection_id
		LEFT JOIN insights i ON i.id = r.insights_id
		ORDER BY t.traded_time DESC, t.id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, apperrors.NewPersistenceError("query recent trades", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("scan trade", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("query recent trades", err)
	}

	return trades, nil
}

func scanTrade(rows *sql.Rows) (models.Trade, error) {
	var (
		t          models.Trade
		decision   string
		tradedTime int64

		rID, rInsightsID, rCreated sql.NullInt64
		rText, rActions, rTrends   sql.NullString
		iID, iCreated              sql.NullInt64
		iSuccesses, iChallenges    sql.NullString
	)

	if err := rows.Scan(
		&t.ID, &decision, &t.Reason, &t.Amount, &tradedTime, &t.ReflectionID,
		&rID, &rText, &rActions, &rTrends, &rInsightsID, &rCreated,
		&iID, &iSuccesses, &iChallenges, &iCreated,
	); err != nil {
		return t, err
	}

	t.Decision = models.Action(decision)
	t.TradedTime = time.Unix(0, tradedTime)

	if rID.Valid {
		t.Reflection = &models.Reflection{
			ID:                 rID.Int64,
			Reflection:         rText.String,
			RecommendedActions: rActions.String,
			MarketTrends:       rTrends.String,
			InsightsID:         rInsightsID.Int64,
			CreatedAt:          time.Unix(0, rCreated.Int64),
		}
		if iID.Valid {
			t.Reflection.Insights = &models.Insights{
				ID:         iID.Int64,
				Successes:  iSuccesses.String,
				Challenges: iChallenges.String,
				CreatedAt:  time.Unix(0, iCreated.Int64),
			}
		}
	}

	return t, nil
}
