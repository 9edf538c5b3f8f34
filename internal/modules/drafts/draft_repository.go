package drafts

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

// RepositoryInterface defines the contract for the single draft slot.
type RepositoryInterface interface {
	Save(ctx context.Context, draft models.OrderEntryDraft) error
	Load(ctx context.Context) (*models.OrderEntryDraft, error)
	Clear(ctx context.Context) error
}

// Repository keeps the manual-entry draft as a one-row JSONB document,
// independent of the live shift slot.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new draft slot repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, draft models.OrderEntryDraft) error {
	doc, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("repository.Save: %w", storage.WriteFailure(err))
	}
	query := `
		INSERT INTO order_entry_draft (slot, doc) VALUES (1, $1)
		ON CONFLICT (slot) DO UPDATE SET doc = EXCLUDED.doc`
	if _, err := r.db.Exec(ctx, query, doc); err != nil {
		return fmt.Errorf("repository.Save: %w", storage.WriteFailure(err))
	}
	return nil
}

// Load reads the draft. models.ErrNotFound means nothing was saved.
func (r *Repository) Load(ctx context.Context) (*models.OrderEntryDraft, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM order_entry_draft WHERE slot = 1`).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Load: %w", storage.ReadFailure(err))
	}
	var draft models.OrderEntryDraft
	if err := json.Unmarshal(doc, &draft); err != nil {
		return nil, fmt.Errorf("repository.Load: %w", storage.ReadFailure(err))
	}
	return &draft, nil
}

func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM order_entry_draft WHERE slot = 1`); err != nil {
		return fmt.Errorf("repository.Clear: %w", storage.WriteFailure(err))
	}
	return nil
}
