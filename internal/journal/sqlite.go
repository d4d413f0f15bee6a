package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS journal_imports (
    journal     TEXT PRIMARY KEY,
    import_id   TEXT     NOT NULL,
    trade_count INTEGER  NOT NULL DEFAULT 0,
    updated_at  DATETIME NOT NULL
);

-- seq keeps the stored order, newest first by convention
CREATE TABLE IF NOT EXISTS journal_trades (
    journal TEXT    NOT NULL,
    seq     INTEGER NOT NULL,
    payload TEXT    NOT NULL,
    PRIMARY KEY (journal, seq)
);
`

// SQLiteStore keeps journals in a SQLite database (pure Go driver)
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates the database at path. ":memory:" works.
func NewSQLiteStore(logger *zap.Logger, path string) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal.NewSQLiteStore: apply schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// List returns the stored journal names, sorted
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT journal FROM journal_imports ORDER BY journal`)
	if err != nil {
		return nil, fmt.Errorf("journal.List: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("journal.List: scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Load returns the raw trades of a journal in stored order
func (s *SQLiteStore) Load(ctx context.Context, name string) ([]analytics.RawTrade, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var importID string
	err := s.db.QueryRowContext(ctx,
		`SELECT import_id FROM journal_imports WHERE journal = ?`, name,
	).Scan(&importID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJournalNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("journal.Load: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM journal_trades WHERE journal = ? ORDER BY seq`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("journal.Load: query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]analytics.RawTrade, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("journal.Load: scan: %w", err)
		}

		dec := json.NewDecoder(strings.NewReader(payload))
		dec.UseNumber()
		var trade analytics.RawTrade
		if err := dec.Decode(&trade); err != nil {
			return nil, fmt.Errorf("journal.Load: decode trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal.Load: %w", err)
	}

	s.logger.Debug("Loaded journal",
		zap.String("journal", name),
		zap.String("importId", importID),
		zap.Int("trades", len(trades)),
	)
	return trades, nil
}

// Save replaces the journal's trades in one transaction
func (s *SQLiteStore) Save(ctx context.Context, name string, trades []analytics.RawTrade) (*Metadata, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("journal.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_trades WHERE journal = ?`, name); err != nil {
		return nil, fmt.Errorf("journal.Save: clear trades: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO journal_trades (journal, seq, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("journal.Save: prepare: %w", err)
	}
	defer stmt.Close()

	for i, trade := range trades {
		payload, err := json.Marshal(trade)
		if err != nil {
			return nil, fmt.Errorf("journal.Save: marshal trade %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, name, i, string(payload)); err != nil {
			return nil, fmt.Errorf("journal.Save: insert trade %d: %w", i, err)
		}
	}

	meta := &Metadata{
		Name:       name,
		ImportID:   uuid.New().String(),
		TradeCount: len(trades),
		UpdatedAt:  time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO journal_imports (journal, import_id, trade_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(journal) DO UPDATE SET
			import_id   = excluded.import_id,
			trade_count = excluded.trade_count,
			updated_at  = excluded.updated_at`,
		meta.Name, meta.ImportID, meta.TradeCount, meta.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("journal.Save: upsert import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("journal.Save: commit: %w", err)
	}
	return meta, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
