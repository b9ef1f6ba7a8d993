// Package sqlite persists save slots and the game-event ledger in a local
// SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"crumbs/internal/domain"
	"crumbs/internal/events"
	"crumbs/internal/save"
)

// Open initializes the database file and creates the schema.
func Open(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; the session is single threaded anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			economy TEXT NOT NULL,
			prestige TEXT,
			saved_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ledger (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at INTEGER NOT NULL,
			command_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_session ON ledger(session_id, seq);`,
	}
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Store keeps one save slot.
type Store struct {
	db   *sql.DB
	slot string
	now  func() time.Time
}

func NewStore(db *sql.DB, slot string) *Store {
	return &Store{db: db, slot: slot, now: time.Now}
}

var _ save.Store = (*Store)(nil)

func (s *Store) Load(ctx context.Context) (save.Blob, error) {
	var eco string
	var pre sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT economy, prestige FROM saves WHERE slot = ?`, s.slot,
	).Scan(&eco, &pre)
	if errors.Is(err, sql.ErrNoRows) {
		return save.Blob{}, fmt.Errorf("save slot %q: %w", s.slot, domain.ErrNotFound)
	}
	if err != nil {
		return save.Blob{}, fmt.Errorf("failed to load save slot: %w", err)
	}

	b := save.Blob{Economy: []byte(eco)}
	if pre.Valid {
		b.Prestige = []byte(pre.String)
	}
	return b, nil
}

func (s *Store) Save(ctx context.Context, b save.Blob) error {
	var pre sql.NullString
	if b.Prestige != nil {
		pre = sql.NullString{String: string(b.Prestige), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, economy, prestige, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET
			economy = excluded.economy,
			prestige = COALESCE(excluded.prestige, saves.prestige),
			saved_at = excluded.saved_at
	`, s.slot, string(b.Economy), pre, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

// Ledger is an append-only log of game events.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

var _ events.Sink = (*Ledger)(nil)

func (l *Ledger) Append(ctx context.Context, sessionID string, ev events.Event) error {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO ledger (id, session_id, seq, at, command_id, event_type, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), sessionID, int64(ev.ID), ev.At.UnixNano(), ev.CommandID, string(ev.Type), string(payload))
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// List returns a session's events in order. Payloads come back as raw JSON.
func (l *Ledger) List(ctx context.Context, sessionID string) ([]events.Event, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, at, command_id, event_type, payload
		FROM ledger WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			seq       int64
			at        int64
			commandID string
			typ       string
			payload   string
		)
		if err := rows.Scan(&seq, &at, &commandID, &typ, &payload); err != nil {
			return nil, err
		}
		out = append(out, events.New(uint64(seq), time.Unix(0, at).UTC(), commandID, events.EventType(typ), json.RawMessage(payload)))
	}
	return out, rows.Err()
}
