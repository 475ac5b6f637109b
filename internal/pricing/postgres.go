package pricing

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the price record in a single-row table:
//
//	CREATE TABLE IF NOT EXISTS price_cache (
//	    id              smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
//	    price_per_message double precision NOT NULL,
//	    currency        text NOT NULL,
//	    updated_at      timestamptz NOT NULL
//	);
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, rec Record) error {
	if rec.PricePerMessage <= 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO price_cache (id, price_per_message, currency, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET price_per_message = EXCLUDED.price_per_message,
		    currency = EXCLUDED.currency,
		    updated_at = EXCLUDED.updated_at
	`, rec.PricePerMessage, rec.Currency, rec.UpdatedAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context) (Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT price_per_message, currency, updated_at FROM price_cache WHERE id = 1
	`)
	var rec Record
	err := row.Scan(&rec.PricePerMessage, &rec.Currency, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Record{}, nil
		}
		return Record{}, err
	}
	return rec, nil
}
