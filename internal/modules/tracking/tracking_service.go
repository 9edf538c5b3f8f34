package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/metrics"
)

// OrderStore is the slice of the order service the shift machine needs.
type OrderStore interface {
	Add(ctx context.Context, order models.Order) (*models.StoredOrder, error)
	Get(ctx context.Context, id string) (*models.StoredOrder, error)
	Update(ctx context.Context, id string, patch models.OrderPatch) (*models.StoredOrder, error)
}

// ServiceInterface defines the shift phase machine exposed to the
// presentation layer. Each transition persists the full snapshot before it
// returns, so a crash at any point resumes at the last committed phase.
type ServiceInterface interface {
	Resume(ctx context.Context) error
	Current() (models.ActiveShift, bool)
	Start(ctx context.Context, req models.StartShiftRequest) (*models.ActiveShift, error)
	ArriveAtRestaurant(ctx context.Context) (*models.ActiveShift, error)
	DepartRestaurant(ctx context.Context) (*models.ActiveShift, error)
	Deliver(ctx context.Context) (*models.ActiveShift, error)
	ReturnToHotspot(ctx context.Context) error
	NewOrder(ctx context.Context, req models.StartShiftRequest) (*models.ActiveShift, error)
	Watch(ctx context.Context) <-chan Snapshot
}

// Snapshot is one tick of the live display feed.
type Snapshot struct {
	Phase        models.Phase `json:"phase"`
	Elapsed      string       `json:"elapsed"`
	PhaseElapsed string       `json:"phaseElapsed"`
	HourlyGross  float64      `json:"hourlyGross"`
	HourlyNet    float64      `json:"hourlyNet"`
}

// service implements ServiceInterface. Transitions are serialized by the
// mutex; the in-memory snapshot only advances after the slot write succeeds.
type service struct {
	mu          sync.Mutex
	slots       RepositoryInterface
	orders      OrderStore
	costPerMile float64
	now         func() time.Time
	cur         *models.ActiveShift
}

// NewService creates the shift machine. It starts idle; call Resume at
// startup to pick up a persisted in-flight shift.
func NewService(slots RepositoryInterface, orders OrderStore, costPerMile float64) ServiceInterface {
	if costPerMile <= 0 {
		costPerMile = metrics.DefaultCostPerMile
	}
	return &service{
		slots:       slots,
		orders:      orders,
		costPerMile: costPerMile,
		now:         time.Now,
	}
}

// Resume loads the persisted snapshot, if any. An unreadable snapshot is
// logged and treated as absent so a corrupt slot can never wedge startup.
func (s *service) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.slots.Load(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		log.Printf("tracking: discarding unreadable shift snapshot: %v", err)
		return nil
	}
	s.cur = shift
	return nil
}

// Current returns a copy of the in-flight shift, if one exists.
func (s *service) Current() (models.ActiveShift, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return models.ActiveShift{}, false
	}
	return *s.cur, true
}

// Start begins a new shift cycle. Valid only when idle.
func (s *service) Start(ctx context.Context, req models.StartShiftRequest) (*models.ActiveShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		return nil, models.ErrInvalidTransition
	}
	return s.begin(ctx, req)
}

// NewOrder chains the next shift from the returnedToHotspot screen. It is
// semantically a Start: the previous record keeps whatever was patched up
// to delivery and its return leg is never written.
func (s *service) NewOrder(ctx context.Context, req models.StartShiftRequest) (*models.ActiveShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || s.cur.Phase != models.PhaseReturned {
		return nil, models.ErrInvalidTransition
	}
	return s.begin(ctx, req)
}

// begin creates the order record, persists the fresh snapshot, then commits
// it in memory. Callers hold the mutex.
func (s *service) begin(ctx context.Context, req models.StartShiftRequest) (*models.ActiveShift, error) {
	now := s.now()
	nowMs := now.UnixMilli()

	order := models.Order{
		Date:       now.Format("2006-01-02"),
		Service:    req.Service,
		Restaurant: req.Restaurant,
		Pay:        parseAmount(req.Pay),
		Miles:      parseAmount(req.Miles),
		StartTime:  models.FormatTimeOfDay(now),
	}
	stored, err := s.orders.Add(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("tracking.begin: %w", err)
	}

	shift := models.ActiveShift{
		StoredOrderID: stored.ID,
		Service:       req.Service,
		Restaurant:    req.Restaurant,
		Pay:           req.Pay,
		Miles:         req.Miles,
		Phase:         models.PhaseToRestaurant,
		StartMs:       nowMs,
		PhaseStartMs:  nowMs,
	}
	if err := s.slots.Save(ctx, shift); err != nil {
		return nil, fmt.Errorf("tracking.begin: %w", err)
	}
	s.cur = &shift
	out := shift
	return &out, nil
}

// ArriveAtRestaurant closes the toRestaurant leg, measured from shift start.
func (s *service) ArriveAtRestaurant(ctx context.Context) (*models.ActiveShift, error) {
	return s.advance(ctx, models.PhaseToRestaurant, models.PhaseWaiting,
		func(cur models.ActiveShift, nowMs int64, patch *models.OrderPatch, seg *models.Segments) {
			seg.ToRestaurant = clampSeconds(cur.StartMs, nowMs)
			t := models.FormatTimeOfDay(time.UnixMilli(nowMs))
			patch.RestArrivalTime = &t
		})
}

// DepartRestaurant closes the waiting leg.
func (s *service) DepartRestaurant(ctx context.Context) (*models.ActiveShift, error) {
	return s.advance(ctx, models.PhaseWaiting, models.PhaseToCustomer,
		func(cur models.ActiveShift, nowMs int64, patch *models.OrderPatch, seg *models.Segments) {
			seg.AtRestaurant = clampSeconds(cur.PhaseStartMs, nowMs)
			t := models.FormatTimeOfDay(time.UnixMilli(nowMs))
			patch.RestDepartureTime = &t
		})
}

// Deliver closes the toCustomer leg and records the hourly rates as of the
// delivery instant.
func (s *service) Deliver(ctx context.Context) (*models.ActiveShift, error) {
	return s.advance(ctx, models.PhaseToCustomer, models.PhaseReturned,
		func(cur models.ActiveShift, nowMs int64, patch *models.OrderPatch, seg *models.Segments) {
			seg.ToCustomer = clampSeconds(cur.PhaseStartMs, nowMs)
			t := models.FormatTimeOfDay(time.UnixMilli(nowMs))
			patch.DeliveryTime = &t

			gross, net := s.liveRates(cur, nowMs)
			patch.GrossHourlyPay = &gross
			patch.NetHourlyPay = &net
		})
}

// advance runs one forward step of the cycle: validate the phase, patch the
// order record, persist the new snapshot, commit in memory.
func (s *service) advance(ctx context.Context, from, to models.Phase,
	apply func(cur models.ActiveShift, nowMs int64, patch *models.OrderPatch, seg *models.Segments)) (*models.ActiveShift, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return nil, models.ErrNoActiveShift
	}
	if s.cur.Phase != from {
		return nil, models.ErrInvalidTransition
	}
	// A truncated restored snapshot without timestamps cannot measure
	// anything; refuse the transition instead of corrupting the record.
	if s.cur.StartMs == 0 || s.cur.PhaseStartMs == 0 {
		return nil, models.ErrNoActiveShift
	}

	nowMs := s.now().UnixMilli()
	patch := models.OrderPatch{}
	seg, err := s.currentSegments(ctx)
	if err != nil {
		return nil, err
	}
	apply(*s.cur, nowMs, &patch, &seg)
	patch.Segments = &seg

	if err := s.patchOrder(ctx, patch); err != nil {
		return nil, err
	}

	next := *s.cur
	next.Phase = to
	next.PhaseStartMs = nowMs
	if patch.GrossHourlyPay != nil {
		next.GrossHourlyPay = *patch.GrossHourlyPay
		next.NetHourlyPay = *patch.NetHourlyPay
	}
	if err := s.slots.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("tracking.advance: %w", err)
	}
	s.cur = &next
	out := next
	return &out, nil
}

// ReturnToHotspot completes the cycle. It is also the cancel path from any
// non-idle phase: it finalizes whatever partial data exists, clears the
// slot and returns the machine to idle.
func (s *service) ReturnToHotspot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return models.ErrNoActiveShift
	}
	if s.cur.PhaseStartMs == 0 {
		return models.ErrNoActiveShift
	}

	nowMs := s.now().UnixMilli()
	seg, err := s.currentSegments(ctx)
	if err != nil {
		return err
	}
	seg.ReturnToHotspot = clampSeconds(s.cur.PhaseStartMs, nowMs)

	patch := models.OrderPatch{Segments: &seg}
	if s.cur.StartMs > 0 {
		total := models.FormatClock(nowMs - s.cur.StartMs)
		patch.TotalDuration = &total
		gross, net := s.liveRates(*s.cur, nowMs)
		patch.GrossHourlyPay = &gross
		patch.NetHourlyPay = &net
	}
	if err := s.patchOrder(ctx, patch); err != nil {
		return err
	}

	if err := s.slots.Clear(ctx); err != nil {
		return fmt.Errorf("tracking.ReturnToHotspot: %w", err)
	}
	s.cur = nil
	return nil
}

// currentSegments fetches the stored segments so a patch never zeroes a leg
// that was already measured. A record deleted mid-shift reads as all zeroes.
func (s *service) currentSegments(ctx context.Context) (models.Segments, error) {
	existing, err := s.orders.Get(ctx, s.cur.StoredOrderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Segments{}, nil
		}
		return models.Segments{}, fmt.Errorf("tracking.currentSegments: %w", err)
	}
	return existing.Segments, nil
}

// patchOrder applies a patch to the shift's record. A missing record is
// tolerated; a storage failure aborts the transition.
func (s *service) patchOrder(ctx context.Context, patch models.OrderPatch) error {
	if _, err := s.orders.Update(ctx, s.cur.StoredOrderID, patch); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("tracking.patchOrder: %w", err)
	}
	return nil
}

// liveRates computes the instantaneous hourly rates against elapsed time
// since shift start.
func (s *service) liveRates(cur models.ActiveShift, nowMs int64) (gross, net float64) {
	elapsed := nowMs - cur.StartMs
	if cur.StartMs == 0 || elapsed < 0 {
		return 0, 0
	}
	pay := parseAmount(cur.Pay)
	miles := parseAmount(cur.Miles)
	return metrics.HourlyGross(pay, elapsed), metrics.HourlyNet(pay, miles, s.costPerMile, elapsed)
}

// Watch emits a display snapshot once per second until the context ends.
// It only reads committed state and never persists anything.
func (s *service) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- s.snapshot():
				default:
				}
			}
		}
	}()
	return ch
}

// snapshot builds one tick of the display feed.
func (s *service) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return Snapshot{Phase: models.PhaseIdle, Elapsed: "00:00:00", PhaseElapsed: "00:00:00"}
	}
	nowMs := s.now().UnixMilli()
	snap := Snapshot{
		Phase:        s.cur.Phase,
		Elapsed:      models.FormatClock(nowMs - s.cur.StartMs),
		PhaseElapsed: models.FormatClock(nowMs - s.cur.PhaseStartMs),
	}
	snap.HourlyGross, snap.HourlyNet = s.liveRates(*s.cur, nowMs)
	return snap
}

// clampSeconds rounds the distance between two instants to whole seconds.
// A backwards clock step clamps to zero instead of persisting a negative
// duration.
func clampSeconds(startMs, nowMs int64) int {
	d := nowMs - startMs
	if d < 0 {
		log.Printf("tracking: clock moved backward by %dms, clamping segment to zero", -d)
		return 0
	}
	return int(math.Round(float64(d) / 1000))
}

// parseAmount turns free-text pay/miles input into a non-negative number,
// defaulting to zero so a transition never fails on incomplete entry.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
