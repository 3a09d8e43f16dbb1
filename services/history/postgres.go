package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"sjsage522/gpuwatcher/internal/scraper"
)

// PostgresStore persists emitted offers in PostgreSQL with the fingerprint
// as primary key.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs the schema migration, and
// returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: postgres open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: postgres ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: postgres migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS emitted_offers (
			fingerprint TEXT          PRIMARY KEY,
			sku         VARCHAR(100)  NOT NULL,
			title       TEXT          NOT NULL,
			price       NUMERIC(10,2) NOT NULL,
			link        TEXT          NOT NULL,
			observed_at TIMESTAMPTZ   NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_emitted_offers_sku ON emitted_offers(sku);
	`)
	return err
}

// Contains reports whether the fingerprint was recorded
func (s *PostgresStore) Contains(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM emitted_offers WHERE fingerprint = $1)",
		fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("history: postgres lookup: %w", err)
	}
	return exists, nil
}

// Append inserts one offer record
func (s *PostgresStore) Append(ctx context.Context, offer scraper.Offer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO emitted_offers (fingerprint, sku, title, price, link, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO NOTHING`,
		offer.Fingerprint(), offer.SKU, offer.Title, offer.Price, offer.Link, offer.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("history: postgres insert: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
