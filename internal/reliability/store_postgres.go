package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Connection pool settings.
const (
	pgMaxOpenConns    = 10
	pgMaxIdleConns    = 2
	pgConnMaxLifetime = 5 * time.Minute
	pgPingTimeout     = 5 * time.Second
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS source_reliability (
	source          TEXT PRIMARY KEY,
	total_articles  INTEGER NOT NULL DEFAULT 0,
	clickbait_count INTEGER NOT NULL DEFAULT 0,
	total_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	average_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating          TEXT NOT NULL DEFAULT 'unknown',
	last_updated    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO source_reliability
	(source, total_articles, clickbait_count, total_score, average_score, rating, last_updated)
VALUES
	(:source, :total_articles, :clickbait_count, :total_score, :average_score, :rating, :last_updated)
ON CONFLICT (source) DO UPDATE SET
	total_articles  = EXCLUDED.total_articles,
	clickbait_count = EXCLUDED.clickbait_count,
	total_score     = EXCLUDED.total_score,
	average_score   = EXCLUDED.average_score,
	rating          = EXCLUDED.rating,
	last_updated    = EXCLUDED.last_updated`

// PostgresStore persists the source map in a source_reliability table.
type PostgresStore struct {
	db *sqlx.DB
}

type pgRow struct {
	Source string `db:"source"`
	Record
}

// NewPostgresStore connects, verifies, and ensures the table exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %v", ErrPersistence, err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pgPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrPersistence, err)
	}

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create table: %v", ErrPersistence, err)
	}

	return &PostgresStore{db: db}, nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) (map[string]Record, error) {
	var rows []pgRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM source_reliability"); err != nil {
		return nil, fmt.Errorf("%w: select: %v", ErrPersistence, err)
	}

	records := make(map[string]Record, len(rows))
	for _, row := range rows {
		records[row.Source] = row.Record
	}
	return records, nil
}

// Save implements Store. Upserts every record in one transaction.
func (s *PostgresStore) Save(ctx context.Context, records map[string]Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrPersistence, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for source, rec := range records {
		if _, err := tx.NamedExecContext(ctx, upsertSQL, pgRow{Source: source, Record: rec}); err != nil {
			return fmt.Errorf("%w: upsert %s: %v", ErrPersistence, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPersistence, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
