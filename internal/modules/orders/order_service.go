package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

// ServiceInterface defines the contract for the order record service.
type ServiceInterface interface {
	Add(ctx context.Context, order models.Order) (*models.StoredOrder, error)
	Get(ctx context.Context, id string) (*models.StoredOrder, error)
	List(ctx context.Context) ([]*models.StoredOrder, error)
	Update(ctx context.Context, id string, patch models.OrderPatch) (*models.StoredOrder, error)
	Remove(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// Service implements the order record logic.
type Service struct {
	repo RepositoryInterface
	now  func() time.Time
}

// NewService creates a new order service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo, now: time.Now}
}

// generateID builds a collision-resistant id from the current millisecond
// and a random suffix. Ids are never reused; sorting newest-first falls
// back on them as a same-instant tiebreak.
func (s *Service) generateID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), suffix)
}

// Add assigns an id and save timestamp, then persists the record. The
// caller's order is returned unchanged apart from those two fields.
func (s *Service) Add(ctx context.Context, order models.Order) (*models.StoredOrder, error) {
	stored := models.StoredOrder{
		Order:   order,
		ID:      s.generateID(),
		SavedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, stored); err != nil {
		return nil, fmt.Errorf("service.Add: %w", err)
	}
	return &stored, nil
}

// Get retrieves a single record; models.ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, id string) (*models.StoredOrder, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns the whole collection, newest first.
func (s *Service) List(ctx context.Context) ([]*models.StoredOrder, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.List: %w", err)
	}
	if records == nil {
		records = []*models.StoredOrder{}
	}
	return records, nil
}

// Update shallow-merges the patch into the stored record. An unknown id
// reports models.ErrNotFound rather than failing loudly.
func (s *Service) Update(ctx context.Context, id string, patch models.OrderPatch) (*models.StoredOrder, error) {
	return s.repo.Update(ctx, id, patch)
}

// Remove deletes a record; an unknown id is a silent no-op.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ClearAll empties the collection.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
