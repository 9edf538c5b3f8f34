package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

// schema holds the three durable slots: the order collection, the single
// active-shift snapshot and the single manual-entry draft. The slot tables
// are constrained to one row so there can never be two in-flight shifts or
// two drafts on one device.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                    TEXT PRIMARY KEY,
	order_date            TEXT NOT NULL,
	service               TEXT NOT NULL,
	restaurant            TEXT NOT NULL,
	pay                   DOUBLE PRECISION NOT NULL,
	miles                 DOUBLE PRECISION NOT NULL,
	start_time            TEXT NOT NULL DEFAULT '',
	rest_arrival_time     TEXT NOT NULL DEFAULT '',
	rest_departure_time   TEXT NOT NULL DEFAULT '',
	delivery_time         TEXT NOT NULL DEFAULT '',
	seg_to_restaurant     INTEGER NOT NULL DEFAULT 0,
	seg_at_restaurant     INTEGER NOT NULL DEFAULT 0,
	seg_to_customer       INTEGER NOT NULL DEFAULT 0,
	seg_return_to_hotspot INTEGER NOT NULL DEFAULT 0,
	total_duration        TEXT NOT NULL DEFAULT '',
	gross_hourly_pay      DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_hourly_pay        DOUBLE PRECISION NOT NULL DEFAULT 0,
	saved_at              TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS active_shift (
	slot SMALLINT PRIMARY KEY DEFAULT 1 CHECK (slot = 1),
	doc  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS order_entry_draft (
	slot SMALLINT PRIMARY KEY DEFAULT 1 CHECK (slot = 1),
	doc  JSONB NOT NULL
);
`

// NewPool connects to the database and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage.NewPool: ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the slot tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("storage.EnsureSchema: %w", err)
	}
	return nil
}

// WriteFailure classifies a failed write under models.ErrStorageWrite,
// keeping the SQLSTATE visible when the driver reported one.
func WriteFailure(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w (sqlstate %s): %w", models.ErrStorageWrite, pgErr.Code, err)
	}
	return fmt.Errorf("%w: %w", models.ErrStorageWrite, err)
}

// ReadFailure classifies an unreadable or corrupt snapshot under
// models.ErrStorageRead.
func ReadFailure(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", models.ErrStorageRead, err)
}
