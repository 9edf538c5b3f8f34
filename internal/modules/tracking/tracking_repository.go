package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/storage"
)

// RepositoryInterface defines the contract for the single active-shift slot.
type RepositoryInterface interface {
	Save(ctx context.Context, shift models.ActiveShift) error
	Load(ctx context.Context) (*models.ActiveShift, error)
	Clear(ctx context.Context) error
}

// Repository keeps the active-shift snapshot as a one-row JSONB document.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new active-shift slot repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Save upserts the full snapshot. The slot key is fixed, so there is never
// more than one in-flight shift on a device.
func (r *Repository) Save(ctx context.Context, shift models.ActiveShift) error {
	doc, err := json.Marshal(shift)
	if err != nil {
		return fmt.Errorf("repository.Save: %w", storage.WriteFailure(err))
	}
	query := `
		INSERT INTO active_shift (slot, doc) VALUES (1, $1)
		ON CONFLICT (slot) DO UPDATE SET doc = EXCLUDED.doc`
	if _, err := r.db.Exec(ctx, query, doc); err != nil {
		return fmt.Errorf("repository.Save: %w", storage.WriteFailure(err))
	}
	return nil
}

// Load reads the snapshot. models.ErrNotFound means no shift is in flight;
// an unreadable document is reported as a storage read failure.
func (r *Repository) Load(ctx context.Context) (*models.ActiveShift, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM active_shift WHERE slot = 1`).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Load: %w", storage.ReadFailure(err))
	}
	var shift models.ActiveShift
	if err := json.Unmarshal(doc, &shift); err != nil {
		return nil, fmt.Errorf("repository.Load: %w", storage.ReadFailure(err))
	}
	return &shift, nil
}

// Clear deletes the snapshot; clearing an empty slot is a no-op.
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM active_shift WHERE slot = 1`); err != nil {
		return fmt.Errorf("repository.Clear: %w", storage.WriteFailure(err))
	}
	return nil
}
