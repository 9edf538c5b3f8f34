package tracking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/metrics"
)

// fakeSlotRepo keeps the active-shift snapshot in memory and can be told to
// fail writes, to check that a failed persist never fakes a committed
// transition.
type fakeSlotRepo struct {
	doc        *models.ActiveShift
	saves      int
	failWrites bool
}

func (f *fakeSlotRepo) Save(ctx context.Context, shift models.ActiveShift) error {
	if f.failWrites {
		return models.ErrStorageWrite
	}
	cp := shift
	f.doc = &cp
	f.saves++
	return nil
}

func (f *fakeSlotRepo) Load(ctx context.Context) (*models.ActiveShift, error) {
	if f.doc == nil {
		return nil, models.ErrNotFound
	}
	cp := *f.doc
	return &cp, nil
}

func (f *fakeSlotRepo) Clear(ctx context.Context) error {
	if f.failWrites {
		return models.ErrStorageWrite
	}
	f.doc = nil
	return nil
}

// fakeOrderStore mimics the order service: generated ids, newest-first
// iteration, pointer-field patch semantics.
type fakeOrderStore struct {
	records map[string]*models.StoredOrder
	ids     []string
	seq     int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{records: map[string]*models.StoredOrder{}}
}

func (f *fakeOrderStore) Add(ctx context.Context, order models.Order) (*models.StoredOrder, error) {
	f.seq++
	stored := models.StoredOrder{Order: order, ID: fmt.Sprintf("order-%d", f.seq), SavedAt: time.Now()}
	f.records[stored.ID] = &stored
	f.ids = append([]string{stored.ID}, f.ids...)
	cp := stored
	return &cp, nil
}

func (f *fakeOrderStore) Get(ctx context.Context, id string) (*models.StoredOrder, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeOrderStore) Update(ctx context.Context, id string, patch models.OrderPatch) (*models.StoredOrder, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if patch.RestArrivalTime != nil {
		r.RestArrivalTime = *patch.RestArrivalTime
	}
	if patch.RestDepartureTime != nil {
		r.RestDepartureTime = *patch.RestDepartureTime
	}
	if patch.DeliveryTime != nil {
		r.DeliveryTime = *patch.DeliveryTime
	}
	if patch.Segments != nil {
		r.Segments = *patch.Segments
	}
	if patch.TotalDuration != nil {
		r.TotalDuration = *patch.TotalDuration
	}
	if patch.GrossHourlyPay != nil {
		r.GrossHourlyPay = *patch.GrossHourlyPay
	}
	if patch.NetHourlyPay != nil {
		r.NetHourlyPay = *patch.NetHourlyPay
	}
	cp := *r
	return &cp, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestService(fr *fakeSlotRepo, fo *fakeOrderStore, clk *fakeClock) ServiceInterface {
	svc := NewService(fr, fo, 0.67).(*service)
	svc.now = clk.Now
	return svc
}

func startReq() models.StartShiftRequest {
	return models.StartShiftRequest{
		Service:    models.ServiceDoorDash,
		Restaurant: "Thai Basil",
		Pay:        "20",
		Miles:      "10",
	}
}

func TestFullCycle(t *testing.T) {
	fr := &fakeSlotRepo{}
	fo := newFakeOrderStore()
	clk := &fakeClock{t: t0}
	svc := newTestService(fr, fo, clk)
	ctx := context.Background()

	shift, err := svc.Start(ctx, startReq())
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if shift.Phase != models.PhaseToRestaurant {
		t.Errorf("phase after Start = %s; want toRestaurant", shift.Phase)
	}
	if shift.StartMs != t0.UnixMilli() || shift.PhaseStartMs != t0.UnixMilli() {
		t.Errorf("Start timestamps = %d/%d; want both %d", shift.StartMs, shift.PhaseStartMs, t0.UnixMilli())
	}
	if fr.doc == nil {
		t.Fatal("Start did not persist the snapshot")
	}

	record, _ := fo.Get(ctx, shift.StoredOrderID)
	if record.StartTime != "09:00" || record.Date != "2025-03-14" {
		t.Errorf("record start = %s %s; want 2025-03-14 09:00", record.Date, record.StartTime)
	}
	if record.Pay != 20 || record.Miles != 10 {
		t.Errorf("record pay/miles = %v/%v; want 20/10", record.Pay, record.Miles)
	}

	clk.Advance(5 * time.Minute)
	shift, err = svc.ArriveAtRestaurant(ctx)
	if err != nil {
		t.Fatalf("ArriveAtRestaurant error: %v", err)
	}
	if shift.Phase != models.PhaseWaiting {
		t.Errorf("phase after Arrive = %s; want waiting", shift.Phase)
	}

	clk.Advance(3 * time.Minute)
	shift, err = svc.DepartRestaurant(ctx)
	if err != nil {
		t.Fatalf("DepartRestaurant error: %v", err)
	}
	if shift.Phase != models.PhaseToCustomer {
		t.Errorf("phase after Depart = %s; want toCustomer", shift.Phase)
	}

	clk.Advance(10 * time.Minute)
	shift, err = svc.Deliver(ctx)
	if err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	if shift.Phase != models.PhaseReturned {
		t.Errorf("phase after Deliver = %s; want returnedToHotspot", shift.Phase)
	}
	elapsedAtDelivery := int64(18 * time.Minute / time.Millisecond)
	if shift.GrossHourlyPay != metrics.HourlyGross(20, elapsedAtDelivery) {
		t.Errorf("GrossHourlyPay = %v; want %v", shift.GrossHourlyPay, metrics.HourlyGross(20, elapsedAtDelivery))
	}
	if shift.NetHourlyPay != metrics.HourlyNet(20, 10, 0.67, elapsedAtDelivery) {
		t.Errorf("NetHourlyPay = %v; want %v", shift.NetHourlyPay, metrics.HourlyNet(20, 10, 0.67, elapsedAtDelivery))
	}

	clk.Advance(2 * time.Minute)
	if err := svc.ReturnToHotspot(ctx); err != nil {
		t.Fatalf("ReturnToHotspot error: %v", err)
	}
	if _, ok := svc.Current(); ok {
		t.Error("machine still has a shift after ReturnToHotspot")
	}
	if fr.doc != nil {
		t.Error("slot not cleared after ReturnToHotspot")
	}

	record, _ = fo.Get(ctx, record.ID)
	want := models.Segments{ToRestaurant: 300, AtRestaurant: 180, ToCustomer: 600, ReturnToHotspot: 120}
	if record.Segments != want {
		t.Errorf("segments = %+v; want %+v", record.Segments, want)
	}
	if record.TotalDuration != "00:20:00" {
		t.Errorf("totalDuration = %q; want 00:20:00", record.TotalDuration)
	}
	if record.RestArrivalTime != "09:05" || record.RestDepartureTime != "09:08" || record.DeliveryTime != "09:18" {
		t.Errorf("time-of-day fields = %q %q %q", record.RestArrivalTime, record.RestDepartureTime, record.DeliveryTime)
	}
}

func TestInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	fr := &fakeSlotRepo{}
	fo := newFakeOrderStore()
	clk := &fakeClock{t: t0}
	svc := newTestService(fr, fo, clk)
	ctx := context.Background()

	// From idle, nothing but Start is allowed.
	if _, err := svc.ArriveAtRestaurant(ctx); !errors.Is(err, models.ErrNoActiveShift) {
		t.Errorf("Arrive from idle = %v; want ErrNoActiveShift", err)
	}
	if _, err := svc.Deliver(ctx); !errors.Is(err, models.ErrNoActiveShift) {
		t.Errorf("Deliver from idle = %v; want ErrNoActiveShift", err)
	}
	if err := svc.ReturnToHotspot(ctx); !errors.Is(err, models.ErrNoActiveShift) {
		t.Errorf("Return from idle = %v; want ErrNoActiveShift", err)
	}
	if _, err := svc.NewOrder(ctx, startReq()); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("NewOrder from idle = %v; want ErrInvalidTransition", err)
	}

	if _, err := svc.Start(ctx, startReq()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	before, _ := svc.Current()

	// From toRestaurant only Arrive advances. Each rejected call must leave
	// phase and timestamps untouched.
	if _, err := svc.Start(ctx, startReq()); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Start while tracking = %v; want ErrInvalidTransition", err)
	}
	if _, err := svc.DepartRestaurant(ctx); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Depart from toRestaurant = %v; want ErrInvalidTransition", err)
	}
	if _, err := svc.Deliver(ctx); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Deliver from toRestaurant = %v; want ErrInvalidTransition", err)
	}
	if _, err := svc.NewOrder(ctx, startReq()); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("NewOrder from toRestaurant = %v; want ErrInvalidTransition", err)
	}

	after, _ := svc.Current()
	if after != before {
		t.Errorf("rejected calls changed state: %+v -> %+v", before, after)
	}
	if fr.saves != 1 {
		t.Errorf("slot saves = %d; want 1 (only the Start)", fr.saves)
	}
}

// TestResumeAfterRestart simulates a kill after each transition: a fresh
// service over the same persisted state must finish the cycle with the same
// stored record as an uninterrupted run.
func TestResumeAfterRestart(t *testing.T) {
	type step struct {
		advance time.Duration
		run     func(ctx context.Context, svc ServiceInterface) error
	}
	steps := []step{
		{0, func(ctx context.Context, svc ServiceInterface) error {
			_, err := svc.Start(ctx, startReq())
			return err
		}},
		{5 * time.Minute, func(ctx context.Context, svc ServiceInterface) error {
			_, err := svc.ArriveAtRestaurant(ctx)
			return err
		}},
		{3 * time.Minute, func(ctx context.Context, svc ServiceInterface) error {
			_, err := svc.DepartRestaurant(ctx)
			return err
		}},
		{10 * time.Minute, func(ctx context.Context, svc ServiceInterface) error {
			_, err := svc.Deliver(ctx)
			return err
		}},
		{2 * time.Minute, func(ctx context.Context, svc ServiceInterface) error {
			return svc.ReturnToHotspot(ctx)
		}},
	}

	run := func(restartAfter int) models.StoredOrder {
		fr := &fakeSlotRepo{}
		fo := newFakeOrderStore()
		clk := &fakeClock{t: t0}
		svc := newTestService(fr, fo, clk)
		ctx := context.Background()

		for i, st := range steps {
			if restartAfter >= 0 && i == restartAfter+1 {
				svc = newTestService(fr, fo, clk)
				if err := svc.Resume(ctx); err != nil {
					t.Fatalf("Resume error: %v", err)
				}
				if _, ok := svc.Current(); !ok {
					t.Fatalf("restart after step %d: no shift resumed", restartAfter)
				}
			}
			clk.Advance(st.advance)
			if err := st.run(ctx, svc); err != nil {
				t.Fatalf("restart %d, step %d: %v", restartAfter, i, err)
			}
		}

		record, err := fo.Get(ctx, "order-1")
		if err != nil {
			t.Fatalf("final record missing: %v", err)
		}
		record.SavedAt = time.Time{} // wall-clock, not part of the comparison
		return *record
	}

	baseline := run(-1)
	for restartAfter := 0; restartAfter < len(steps)-1; restartAfter++ {
		got := run(restartAfter)
		if got != baseline {
			t.Errorf("restart after step %d diverged:\n got %+v\nwant %+v", restartAfter, got, baseline)
		}
	}
}

func TestBackwardClockClampsToZero(t *testing.T) {
	fr := &fakeSlotRepo{}
	fo := newFakeOrderStore()
	clk := &fakeClock{t: t0}
	svc := newTestService(fr, fo, clk)
	ctx := context.Background()

	shift, err := svc.Start(ctx, startReq())
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	clk.Advance(-30 * time.Second)
	if _, err := svc.ArriveAtRestaurant(ctx); err != nil {
		t.Fatalf("ArriveAtRestaurant error: %v", err)
	}

	record, _ := fo.Get(ctx, shift.StoredOrderID)
	if record.Segments.ToRestaurant != 0 {
		t.Errorf("segment after backward clock = %d; want 0", record.Segments.ToRestaurant)
	}
}

func TestStartDefaultsUnparsableAmounts(t *testing.T) {
	fr := &fakeSlotRepo{}
	fo := newFakeOrderStore()
	clk := &fakeClock{t: t0}
	svc := newTestService(fr, fo, clk)
	ctx := context.Background()

	req := startReq()
	req.Pay = "abc"
	req.Miles = ""
	shift, err := svc.Start(ctx, req)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	record, _ := fo.Get(ctx, shift.StoredOrderID)
	if record.Pay != 0 || record.Miles != 0 {
		t.Errorf("pay/miles = %v/%v; want 0/0", record.Pay, record.Miles)
	}
}

func TestSlotWriteFailureAbortsTransition(t *testing.T) {
	fr := &fakeSlotRepo{}
	fo := newFakeOrderStore()
	clk := &fakeClock{t: t0}
	svc := newTestService(fr, fo, clk)
	ctx := context.Background()

	if _, err := svc.Start(ctx, startReq()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	before, _ := svc.Current()

	fr.failWrites = true
	clk.Advance(time.Minute)
	if _, err := svc.ArriveAtRestaurant(ctx); !errors.Is(err, models.ErrStorageWrite) {
		t.Fatalf("ArriveAtRestaurant = %v; want ErrStorageWrite", err)
	}
	after, _ := svc.Current()
	if after != before {
		t.Errorf("failed persist changed in-memory state: %+v -> %+v", before, after)
	}
}

func TestNewOrderChainsNextShift(t *testing.T) {
	fr := &fakeSlotRepo{}
	fo := newFakeOrderStore()
	clk := &fakeClock{t: t0}
	svc := newTestService(fr, fo, clk)
	ctx := context.Background()

	first, _ := svc.Start(ctx, startReq())
	clk.Advance(time.Minute)
	if _, err := svc.ArriveAtRestaurant(ctx); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	if _, err := svc.DepartRestaurant(ctx); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Minute)
	if _, err := svc.Deliver(ctx); err != nil {
		t.Fatal(err)
	}

	clk.Advance(time.Minute)
	second, err := svc.NewOrder(ctx, startReq())
	if err != nil {
		t.Fatalf("NewOrder error: %v", err)
	}
	if second.StoredOrderID == first.StoredOrderID {
		t.Error("NewOrder reused the previous record")
	}
	if second.Phase != models.PhaseToRestaurant {
		t.Errorf("phase after NewOrder = %s; want toRestaurant", second.Phase)
	}

	// The abandoned record keeps its delivery data but never completes.
	prev, _ := fo.Get(ctx, first.StoredOrderID)
	if prev.DeliveryTime == "" {
		t.Error("previous record lost its delivery time")
	}
	if prev.TotalDuration != "" {
		t.Errorf("previous record totalDuration = %q; want empty", prev.TotalDuration)
	}
}

func TestSnapshotWhileIdle(t *testing.T) {
	svc := newTestService(&fakeSlotRepo{}, newFakeOrderStore(), &fakeClock{t: t0}).(*service)
	snap := svc.snapshot()
	if snap.Phase != models.PhaseIdle || snap.Elapsed != "00:00:00" || snap.HourlyGross != 0 {
		t.Errorf("idle snapshot = %+v", snap)
	}
}
