// Package postgres keeps save slots in a PostgreSQL table through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crumbs/internal/config"
	"crumbs/internal/domain"
	"crumbs/internal/save"
)

// BuildConnString creates a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS crumbs_saves (
	slot       TEXT PRIMARY KEY,
	economy    TEXT NOT NULL,
	prestige   TEXT,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate creates the saves table if it is missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create saves table: %w", err)
	}
	return nil
}

// Store keeps one save slot.
type Store struct {
	pool *pgxpool.Pool
	slot string
}

func NewStore(pool *pgxpool.Pool, slot string) *Store {
	return &Store{pool: pool, slot: slot}
}

var _ save.Store = (*Store)(nil)

func (s *Store) Load(ctx context.Context) (save.Blob, error) {
	var eco string
	var pre *string
	err := s.pool.QueryRow(ctx,
		`SELECT economy, prestige FROM crumbs_saves WHERE slot = $1`, s.slot,
	).Scan(&eco, &pre)
	if errors.Is(err, pgx.ErrNoRows) {
		return save.Blob{}, fmt.Errorf("save slot %q: %w", s.slot, domain.ErrNotFound)
	}
	if err != nil {
		return save.Blob{}, fmt.Errorf("failed to load save slot: %w", err)
	}

	b := save.Blob{Economy: []byte(eco)}
	if pre != nil {
		b.Prestige = []byte(*pre)
	}
	return b, nil
}

// Save writes both blobs in one transaction. A nil prestige blob keeps the
// stored one.
func (s *Store) Save(ctx context.Context, b save.Blob) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO crumbs_saves (slot, economy, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET economy = EXCLUDED.economy, saved_at = EXCLUDED.saved_at
	`, s.slot, string(b.Economy))
	if err != nil {
		return fmt.Errorf("failed to save economy: %w", err)
	}
	if b.Prestige != nil {
		_, err = tx.Exec(ctx, `UPDATE crumbs_saves SET prestige = $2 WHERE slot = $1`, s.slot, string(b.Prestige))
		if err != nil {
			return fmt.Errorf("failed to save prestige: %w", err)
		}
	}
	return tx.Commit(ctx)
}
