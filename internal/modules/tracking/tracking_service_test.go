package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecocollect/internal/models"

	"go.uber.org/zap"
)

type fakeTrackingRepo struct {
	mu      sync.Mutex
	workers map[string]*WorkerSnapshot
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{workers: make(map[string]*WorkerSnapshot)}
}

func (f *fakeTrackingRepo) UpdateLive(_ context.Context, workerID string, req models.LiveLocationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workers[workerID]
	if !ok {
		return models.ErrNotFound
	}
	if !w.IsOnDuty {
		return models.ErrWorkerOffDuty
	}
	sharing := true
	if req.IsSharing != nil {
		sharing = *req.IsSharing
	}
	now := time.Now()
	w.Live = models.LiveLocation{
		Lat: req.Lat, Lng: req.Lng, Heading: req.Heading,
		SpeedKmh: req.SpeedKmh, Accuracy: req.Accuracy,
		IsSharing: sharing, UpdatedAt: &now,
	}
	return nil
}

func (f *fakeTrackingRepo) SetDuty(_ context.Context, workerID string, onDuty bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workers[workerID]
	if !ok {
		return models.ErrNotFound
	}
	w.IsOnDuty = onDuty
	if !onDuty {
		w.Live = models.LiveLocation{}
	}
	return nil
}

func (f *fakeTrackingRepo) GetWorkerSnapshot(_ context.Context, workerID string) (*WorkerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workers[workerID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeTrackingRepo) ListSharing(_ context.Context) ([]*WorkerSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*WorkerSnapshot
	for _, w := range f.workers {
		if w.IsOnDuty && w.Live.IsSharing && w.Status == models.WorkerActive {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeOrderGetter struct {
	orders map[string]*models.Order
}

func (f *fakeOrderGetter) FindByID(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func worker(id string, onDuty, sharing bool) *WorkerSnapshot {
	now := time.Now()
	return &WorkerSnapshot{
		Info: models.WorkerPublicInfo{
			ID: id, Name: "Ravi", Phone: "+919700000000",
			EmployeeID: "EMP-" + id, Rating: 4.6,
		},
		Live: models.LiveLocation{
			Lat: 19.0760, Lng: 72.8777, SpeedKmh: 18,
			IsSharing: sharing, UpdatedAt: &now,
		},
		IsOnDuty: onDuty,
		Status:   models.WorkerActive,
		Role:     models.RoleWorker,
	}
}

func assignedOrder(id, ownerID, workerID string, status models.OrderStatus) *models.Order {
	o := &models.Order{
		ID:     id,
		UserID: ownerID,
		Status: status,
		Location: models.Location{
			// ~1.05 km east of the worker fixture
			Lat: 19.0760, Lng: 72.8877,
		},
	}
	if workerID != "" {
		o.AssignedWorker = &workerID
	}
	return o
}

func TestEtaMinutes(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{0, 0},
		{1.05, 3},
		{5, 12},
		{25, 60},
	}
	for _, tc := range cases {
		if got := EtaMinutes(tc.km); got != tc.want {
			t.Errorf("EtaMinutes(%v) = %d, want %d", tc.km, got, tc.want)
		}
	}
}

func TestReportRequiresOnDuty(t *testing.T) {
	repo := newFakeTrackingRepo()
	repo.workers["w1"] = worker("w1", false, false)
	svc := NewService(repo, &fakeOrderGetter{}, zap.NewNop().Sugar())

	err := svc.Report(context.Background(), "w1", models.LiveLocationRequest{Lat: 19, Lng: 72})
	if !errors.Is(err, models.ErrWorkerOffDuty) {
		t.Fatalf("off-duty report = %v, want ErrWorkerOffDuty", err)
	}
}

func TestReportOverwritesPosition(t *testing.T) {
	repo := newFakeTrackingRepo()
	repo.workers["w1"] = worker("w1", true, true)
	svc := NewService(repo, &fakeOrderGetter{}, zap.NewNop().Sugar())
	ctx := context.Background()

	if err := svc.Report(ctx, "w1", models.LiveLocationRequest{Lat: 19.10, Lng: 72.85, SpeedKmh: 30}); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if err := svc.Report(ctx, "w1", models.LiveLocationRequest{Lat: 19.11, Lng: 72.86, SpeedKmh: 22}); err != nil {
		t.Fatalf("second report: %v", err)
	}

	w, _ := repo.GetWorkerSnapshot(ctx, "w1")
	if w.Live.Lat != 19.11 || w.Live.Lng != 72.86 || w.Live.SpeedKmh != 22 {
		t.Errorf("position not overwritten by latest report: %+v", w.Live)
	}
}

func TestGoingOffDutyResetsPosition(t *testing.T) {
	repo := newFakeTrackingRepo()
	repo.workers["w1"] = worker("w1", true, true)
	svc := NewService(repo, &fakeOrderGetter{}, zap.NewNop().Sugar())
	ctx := context.Background()

	if err := svc.SetDuty(ctx, "w1", false); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	w, _ := repo.GetWorkerSnapshot(ctx, "w1")
	if w.Live.Lat != 0 || w.Live.Lng != 0 || w.Live.IsSharing {
		t.Errorf("live position not reset on off-duty: %+v", w.Live)
	}
}

func TestTrackWithLivePosition(t *testing.T) {
	repo := newFakeTrackingRepo()
	repo.workers["w1"] = worker("w1", true, true)
	orders := &fakeOrderGetter{orders: map[string]*models.Order{
		"o1": assignedOrder("o1", "u1", "w1", models.StatusInTransit),
	}}
	svc := NewService(repo, orders, zap.NewNop().Sugar())

	view, err := svc.Track(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if view.Worker == nil || view.Worker.ID != "w1" {
		t.Fatalf("worker info missing: %+v", view.Worker)
	}
	if view.Worker.Phone == "" {
		t.Errorf("worker phone missing from public info")
	}
	if view.Tracking == nil || !view.Tracking.Available {
		t.Fatalf("tracking not available: %+v", view.Tracking)
	}
	if view.Tracking.DistanceKm == nil || *view.Tracking.DistanceKm != 1.05 {
		t.Errorf("distance = %v, want 1.05", view.Tracking.DistanceKm)
	}
	if view.Tracking.EtaMinutes == nil || *view.Tracking.EtaMinutes != 3 {
		t.Errorf("eta = %v, want 3", view.Tracking.EtaMinutes)
	}
}

func TestTrackWhenNotSharing(t *testing.T) {
	repo := newFakeTrackingRepo()
	repo.workers["w1"] = worker("w1", true, false)
	orders := &fakeOrderGetter{orders: map[string]*models.Order{
		"o1": assignedOrder("o1", "u1", "w1", models.StatusInTransit),
	}}
	svc := NewService(repo, orders, zap.NewNop().Sugar())

	view, err := svc.Track(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if view.Tracking == nil || view.Tracking.Available {
		t.Errorf("tracking should be unavailable while not sharing")
	}
	if view.Worker == nil {
		t.Errorf("worker identity should still be visible")
	}
}

func TestTrackUnassignedAndForeignOrders(t *testing.T) {
	repo := newFakeTrackingRepo()
	orders := &fakeOrderGetter{orders: map[string]*models.Order{
		"o1": assignedOrder("o1", "u1", "", models.StatusPending),
	}}
	svc := NewService(repo, orders, zap.NewNop().Sugar())
	ctx := context.Background()

	view, err := svc.Track(ctx, "u1", "o1")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if view.Tracking == nil || view.Tracking.Available {
		t.Errorf("pending order should have no live tracking")
	}

	if _, err := svc.Track(ctx, "u2", "o1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign track = %v, want ErrNotFound", err)
	}
}

func TestNearbyWorkers(t *testing.T) {
	repo := newFakeTrackingRepo()
	near := worker("near", true, true)
	far := worker("far", true, true)
	far.Live.Lat, far.Live.Lng = 19.2000, 73.1000
	hidden := worker("hidden", true, false)
	repo.workers["near"] = near
	repo.workers["far"] = far
	repo.workers["hidden"] = hidden

	svc := NewService(repo, &fakeOrderGetter{}, zap.NewNop().Sugar())
	got, err := svc.NearbyWorkers(context.Background(), 19.0760, 72.8877, 5)
	if err != nil {
		t.Fatalf("NearbyWorkers: %v", err)
	}
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("got %+v, want just the near worker", got)
	}
	if got[0].DistanceKm != 1.05 {
		t.Errorf("distance = %v, want 1.05", got[0].DistanceKm)
	}
}
