package drafts

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/metrics"
)

// OrderStore is the slice of the order service manual entry needs.
type OrderStore interface {
	Add(ctx context.Context, order models.Order) (*models.StoredOrder, error)
}

// ServiceInterface defines the manual-entry draft operations.
type ServiceInterface interface {
	Save(ctx context.Context, draft models.OrderEntryDraft) error
	Load(ctx context.Context) (*models.OrderEntryDraft, error)
	Clear(ctx context.Context) error
	SubmitEntry(ctx context.Context, req models.ManualEntryRequest) (*models.StoredOrder, error)
}

// Service implements the draft slot plus the submit pipeline that turns a
// completed entry form into a stored order.
type Service struct {
	repo        RepositoryInterface
	orders      OrderStore
	costPerMile float64
}

// NewService creates a new draft service.
func NewService(repo RepositoryInterface, orders OrderStore, costPerMile float64) *Service {
	if costPerMile <= 0 {
		costPerMile = metrics.DefaultCostPerMile
	}
	return &Service{repo: repo, orders: orders, costPerMile: costPerMile}
}

// Save stores the form snapshot as typed; no validation happens here.
func (s *Service) Save(ctx context.Context, draft models.OrderEntryDraft) error {
	return s.repo.Save(ctx, draft)
}

// Load returns the saved draft, or models.ErrNotFound. An unreadable draft
// is logged and reported absent rather than blocking the entry screen.
func (s *Service) Load(ctx context.Context) (*models.OrderEntryDraft, error) {
	draft, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, models.ErrStorageRead) {
			log.Printf("drafts: discarding unreadable draft: %v", err)
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return draft, nil
}

// Clear drops the draft; clearing an empty slot is a no-op.
func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

// SubmitEntry converts a validated manual entry into a stored order with
// derived hourly rates, then clears the draft. Segments stay zero: a manual
// entry carries a total duration but no per-phase timing.
func (s *Service) SubmitEntry(ctx context.Context, req models.ManualEntryRequest) (*models.StoredOrder, error) {
	durationMs, err := models.ParseClock(req.TotalDuration)
	if err != nil {
		return nil, fmt.Errorf("service.SubmitEntry: %w", err)
	}

	order := models.Order{
		Date:           req.Date,
		Service:        req.Service,
		Restaurant:     req.Restaurant,
		Pay:            req.Pay,
		Miles:          req.Miles,
		StartTime:      req.Time,
		TotalDuration:  req.TotalDuration,
		GrossHourlyPay: metrics.HourlyGross(req.Pay, durationMs),
		NetHourlyPay:   metrics.HourlyNet(req.Pay, req.Miles, s.costPerMile, durationMs),
	}

	stored, err := s.orders.Add(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("service.SubmitEntry: %w", err)
	}
	if err := s.repo.Clear(ctx); err != nil {
		// The order is saved; a stale draft is an annoyance, not data loss.
		log.Printf("drafts: failed to clear draft after submit: %v", err)
	}
	return stored, nil
}
