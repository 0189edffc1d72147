package collector

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"TransferSentinel/internal/model"
)

// SQLiteSource serves season data from a SQLite database.
type SQLiteSource struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteSource opens (or creates) the SQLite database and runs migrations.
func NewSQLiteSource(dbPath string, logger *zap.Logger) (*SQLiteSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so readers are not blocked while rows are being loaded.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteSource{db: db, log: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite source opened", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY,
			deadline   INTEGER NOT NULL DEFAULT 0,
			finished   INTEGER NOT NULL DEFAULT 0,
			is_current INTEGER NOT NULL DEFAULT 0,
			is_next    INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS gameweek_history (
			entry_id             INTEGER NOT NULL,
			event                INTEGER NOT NULL,
			event_transfers      INTEGER NOT NULL,
			event_transfers_cost INTEGER NOT NULL,
			PRIMARY KEY (entry_id, event)
		)`,

		`CREATE TABLE IF NOT EXISTS chip_activations (
			entry_id INTEGER NOT NULL,
			event    INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			PRIMARY KEY (entry_id, event, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chip_entry ON chip_activations(entry_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteSource) Events(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deadline, finished, is_current, is_next FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var deadline int64
		if err := rows.Scan(&e.ID, &deadline, &e.Finished, &e.IsCurrent, &e.IsNext); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if deadline > 0 {
			e.Deadline = time.Unix(deadline, 0).UTC()
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteSource) EntryHistory(ctx context.Context, entryID int) (*model.EntryHistory, error) {
	h := &model.EntryHistory{EntryID: entryID}

	rows, err := s.db.QueryContext(ctx,
		`SELECT event, event_transfers, event_transfers_cost FROM gameweek_history
		 WHERE entry_id = ? ORDER BY event`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r model.GameweekRecord
		if err := rows.Scan(&r.Event, &r.TransfersMade, &r.TransferPointsCost); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		h.Current = append(h.Current, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(h.Current) == 0 {
		return nil, fmt.Errorf("entry %d: %w", entryID, ErrEntryNotFound)
	}

	chipRows, err := s.db.QueryContext(ctx,
		`SELECT event, name FROM chip_activations WHERE entry_id = ? ORDER BY event, rowid`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query chips: %w", err)
	}
	defer chipRows.Close()
	for chipRows.Next() {
		var c model.ChipActivation
		if err := chipRows.Scan(&c.Event, &c.Kind); err != nil {
			return nil, fmt.Errorf("scan chip: %w", err)
		}
		h.Chips = append(h.Chips, c)
	}
	return h, chipRows.Err()
}

// PutHistory replaces every stored row for the entry.
func (s *SQLiteSource) PutHistory(ctx context.Context, h *model.EntryHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gameweek_history WHERE entry_id = ?`, h.EntryID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chip_activations WHERE entry_id = ?`, h.EntryID); err != nil {
		return fmt.Errorf("clear chips: %w", err)
	}
	for _, r := range h.Current {
		if _, err := tx.ExecContext(ctx, `INSERT INTO gameweek_history
			(entry_id, event, event_transfers, event_transfers_cost)
			VALUES (?,?,?,?)`,
			h.EntryID, r.Event, r.TransfersMade, r.TransferPointsCost,
		); err != nil {
			return fmt.Errorf("insert gameweek %d: %w", r.Event, err)
		}
	}
	for _, c := range h.Chips {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO chip_activations
			(entry_id, event, name) VALUES (?,?,?)`,
			h.EntryID, c.Event, string(c.Kind),
		); err != nil {
			return fmt.Errorf("insert chip %s: %w", c.Kind, err)
		}
	}
	return tx.Commit()
}

// PutEvents replaces the season calendar.
func (s *SQLiteSource) PutEvents(ctx context.Context, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	for _, e := range events {
		var deadline int64
		if !e.Deadline.IsZero() {
			deadline = e.Deadline.Unix()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO events
			(id, deadline, finished, is_current, is_next) VALUES (?,?,?,?,?)`,
			e.ID, deadline, e.Finished, e.IsCurrent, e.IsNext,
		); err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSource) Close() error {
	s.log.Info("closing sqlite source")
	return s.db.Close()
}
