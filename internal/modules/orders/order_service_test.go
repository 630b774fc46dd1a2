package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ecocollect/internal/models"
	"ecocollect/internal/modules/subscription"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*models.Order
	history map[string][]models.StatusEvent
	// side effects of Complete, for assertions
	workerJobs map[string]int
	ownerPts   map[string]int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:     make(map[string]*models.Order),
		history:    make(map[string][]models.StatusEvent),
		workerJobs: make(map[string]int),
		ownerPts:   make(map[string]int),
	}
}

func (f *fakeOrderRepo) appendHistory(orderID string, status models.OrderStatus, note, actor string) {
	f.history[orderID] = append(f.history[orderID], models.StatusEvent{
		ID:      int64(len(f.history[orderID]) + 1),
		OrderID: orderID,
		Status:  status,
		Note:    note,
		ActorID: &actor,
		At:      time.Now(),
	})
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.Status = models.StatusPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	f.orders[order.ID] = &cp
	f.appendHistory(order.ID, models.StatusPending, "Order placed", order.UserID)
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	cp.StatusHistory = append([]models.StatusEvent(nil), f.history[orderID]...)
	return &cp, nil
}

func (f *fakeOrderRepo) ListByUserID(_ context.Context, userID string, status *models.OrderStatus, _, _ int) ([]*models.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID != userID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context, _ AdminListFilter, _, _ int) ([]*models.Order, int, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) ListByWorker(_ context.Context, workerID string, activeOnly bool) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.AssignedWorker == nil || *o.AssignedWorker != workerID {
			continue
		}
		if activeOnly && o.Status.Terminal() {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeOrderRepo) ListHistory(_ context.Context, orderID string) ([]models.StatusEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StatusEvent(nil), f.history[orderID]...), nil
}

func (f *fakeOrderRepo) AdvanceStatus(_ context.Context, orderID string, from, to models.OrderStatus, note, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return models.ErrIllegalTransition
	}
	o.Status = to
	now := time.Now()
	switch to {
	case models.StatusInTransit:
		o.PickedUpAt = &now
	case models.StatusArrived:
		o.ArrivedAt = &now
	}
	f.appendHistory(orderID, to, note, actorID)
	return nil
}

func (f *fakeOrderRepo) Cancel(_ context.Context, orderID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return models.ErrNotFound
	}
	if o.Status != models.StatusPending && o.Status != models.StatusConfirmed {
		return models.ErrOrderNotCancellable
	}
	o.Status = models.StatusCancelled
	o.CancellationReason = &reason
	f.appendHistory(orderID, models.StatusCancelled, reason, userID)
	return nil
}

func (f *fakeOrderRepo) Complete(_ context.Context, upd CompletionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[upd.OrderID]
	if !ok || o.Status != models.StatusArrived || o.AssignedWorker == nil || *o.AssignedWorker != upd.WorkerID {
		return models.ErrIllegalTransition
	}
	o.Status = models.StatusCompleted
	if upd.ActualQuantityKg != nil {
		o.ActualQuantityKg = upd.ActualQuantityKg
	}
	if upd.ActualValue != nil {
		o.ActualValue = upd.ActualValue
	}
	if len(upd.Photos) > 0 {
		o.CompletionPhotos = upd.Photos
	}
	now := time.Now()
	o.CompletedAt = &now
	f.workerJobs[upd.WorkerID]++
	f.ownerPts[o.UserID] += o.EcoPointsEarned
	f.appendHistory(upd.OrderID, models.StatusCompleted, upd.Note, upd.ActorID)
	return nil
}

func (f *fakeOrderRepo) AddRating(_ context.Context, orderID string, score int, feedback string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if o.RatingScore != nil {
		return models.ErrAlreadyRated
	}
	o.RatingScore = &score
	o.RatingFeedback = &feedback
	return nil
}

func (f *fakeOrderRepo) StatsByUser(_ context.Context, userID string) (*models.OrderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.OrderStats{}
	for _, o := range f.orders {
		if o.UserID != userID {
			continue
		}
		stats.TotalOrders++
		if o.Status == models.StatusCompleted {
			stats.CompletedOrders++
			stats.TotalEcoPoints += o.EcoPointsEarned
			if o.ActualQuantityKg != nil {
				stats.TotalRecycledKg += *o.ActualQuantityKg
			}
		}
	}
	return stats, nil
}

type fakeScanService struct {
	snapshots map[string]models.ScanSnapshot
	converted []string
	bindErr   error
}

func (f *fakeScanService) Ingest(context.Context, *string, models.IngestScanRequest) (*models.ScanRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeScanService) ListMyScans(context.Context, string, int, int) ([]*models.ScanRecord, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeScanService) Bind(_ context.Context, scanID string) (*models.ScanSnapshot, error) {
	if f.bindErr != nil {
		return nil, f.bindErr
	}
	snap, ok := f.snapshots[scanID]
	if !ok {
		return nil, models.ErrScanNotFound
	}
	return &snap, nil
}

func (f *fakeScanService) MarkConverted(_ context.Context, scanID, _, _ string) error {
	f.converted = append(f.converted, scanID)
	return nil
}

type fakeGate struct {
	mu       sync.Mutex
	denyWith error
	consumed int
	released int
}

func (f *fakeGate) Consume(_ context.Context, userID string) (*subscription.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyWith != nil {
		return nil, f.denyWith
	}
	f.consumed++
	return &subscription.Decision{
		UserID:       userID,
		Plan:         models.PlanPremium,
		Period:       "2026-08",
		OrdersUsed:   f.consumed,
		MonthlyLimit: 20,
	}, nil
}

func (f *fakeGate) Release(_ context.Context, _ *subscription.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

type fakeRater struct {
	scores map[string][]int
}

func (f *fakeRater) ApplyRating(_ context.Context, workerID string, score int) error {
	if f.scores == nil {
		f.scores = make(map[string][]int)
	}
	f.scores[workerID] = append(f.scores[workerID], score)
	return nil
}

func newTestService(repo *fakeOrderRepo, scanSvc *fakeScanService, gate *fakeGate, rater *fakeRater) ServiceInterface {
	return NewService(repo, scanSvc, gate, rater, nil, zap.NewNop().Sugar())
}

func freshScanService() *fakeScanService {
	return &fakeScanService{snapshots: map[string]models.ScanSnapshot{
		"scan-1": {
			ScanID:            "scan-1",
			Category:          "mixed",
			Recyclable:        true,
			EstimatedWeightKg: 10,
			Confidence:        0.92,
			ScannedAt:         time.Now().Add(-time.Hour),
		},
	}}
}

func createReq() models.CreateOrderRequest {
	return models.CreateOrderRequest{
		WasteTypes:          []string{"mixed"},
		EstimatedQuantityKg: 10,
		ScheduledDate:       "2026-09-02",
		ScheduledTime:       "10:00-12:00",
		Location: models.LocationRequest{
			Area: "Andheri West", City: "Mumbai", Pincode: "400053",
			Lat: 19.1197, Lng: 72.8464,
		},
		ScanData: models.ScanReference{ScanID: "scan-1"},
	}
}

func TestEstimateValue(t *testing.T) {
	cases := []struct {
		types []models.WasteType
		kg    float64
		want  string
	}{
		{[]models.WasteType{models.WasteMixed}, 10, "50"},
		{[]models.WasteType{models.WastePlastic, models.WasteMetal}, 4, "60"},
		{[]models.WasteType{models.WasteEwaste}, 2.3, "115"},
		{[]models.WasteType{models.WastePaper, models.WasteGlass}, 3, "17"},
		{nil, 10, "0"},
	}
	for _, tc := range cases {
		got := EstimateValue(tc.types, tc.kg)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("EstimateValue(%v, %v) = %s, want %s", tc.types, tc.kg, got, tc.want)
		}
	}
}

func TestEcoPointsFor(t *testing.T) {
	if got := EcoPointsFor(10); got != 20 {
		t.Errorf("EcoPointsFor(10) = %d, want 20", got)
	}
	if got := EcoPointsFor(2.6); got != 5 {
		t.Errorf("EcoPointsFor(2.6) = %d, want 5", got)
	}
}

func TestCreateOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	scanSvc := freshScanService()
	gate := &fakeGate{}
	svc := newTestService(repo, scanSvc, gate, nil)

	order, err := svc.Create(context.Background(), "user-1", createReq())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if order.Status != models.StatusPending {
		t.Errorf("new order status = %s, want pending", order.Status)
	}
	if !strings.HasPrefix(order.Code, "ORD-") {
		t.Errorf("order code %q missing ORD- prefix", order.Code)
	}
	if !order.EstimatedValue.Equal(decimal.NewFromInt(50)) {
		t.Errorf("estimated value = %s, want 50", order.EstimatedValue)
	}
	if order.EcoPointsEarned != 20 {
		t.Errorf("eco points = %d, want 20", order.EcoPointsEarned)
	}
	if order.Scan.ScanID != "scan-1" || order.Scan.Category != "mixed" {
		t.Errorf("unexpected scan snapshot: %+v", order.Scan)
	}
	if len(scanSvc.converted) != 1 || scanSvc.converted[0] != "scan-1" {
		t.Errorf("scan not marked converted: %v", scanSvc.converted)
	}
	if gate.consumed != 1 || gate.released != 0 {
		t.Errorf("gate consumed=%d released=%d, want 1/0", gate.consumed, gate.released)
	}

	history, _ := repo.ListHistory(context.Background(), order.ID)
	if len(history) != 1 || history[0].Status != models.StatusPending {
		t.Errorf("unexpected initial history: %+v", history)
	}
}

func TestCreateOrderQuotaDenied(t *testing.T) {
	repo := newFakeOrderRepo()
	gate := &fakeGate{denyWith: models.ErrQuotaExceeded}
	svc := newTestService(repo, freshScanService(), gate, nil)

	_, err := svc.Create(context.Background(), "user-1", createReq())
	if !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if len(repo.orders) != 0 {
		t.Errorf("order persisted despite quota denial")
	}
}

func TestCreateOrderScanFailureReleasesQuota(t *testing.T) {
	repo := newFakeOrderRepo()
	gate := &fakeGate{}
	scanSvc := &fakeScanService{bindErr: models.ErrScanExpired}
	svc := newTestService(repo, scanSvc, gate, nil)

	_, err := svc.Create(context.Background(), "user-1", createReq())
	if !errors.Is(err, models.ErrScanExpired) {
		t.Fatalf("error = %v, want ErrScanExpired", err)
	}
	if gate.consumed != 1 || gate.released != 1 {
		t.Errorf("gate consumed=%d released=%d, want 1/1", gate.consumed, gate.released)
	}
	if len(repo.orders) != 0 {
		t.Errorf("order persisted despite scan failure")
	}
}

func TestCancelOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, freshScanService(), &fakeGate{}, nil)

	order, err := svc.Create(context.Background(), "user-1", createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Cancel(context.Background(), "user-2", order.ID, "changed my mind"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cancel by stranger = %v, want ErrNotFound", err)
	}

	if err := svc.Cancel(context.Background(), "user-1", order.ID, "changed my mind"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, _ := repo.FindByID(context.Background(), order.ID)
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	if err := svc.Cancel(context.Background(), "user-1", order.ID, "again"); !errors.Is(err, models.ErrOrderNotCancellable) {
		t.Errorf("second cancel = %v, want ErrOrderNotCancellable", err)
	}
}

func TestCancelAfterAssignmentRejected(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, freshScanService(), &fakeGate{}, nil)

	order, err := svc.Create(context.Background(), "user-1", createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	worker := "worker-1"
	repo.orders[order.ID].Status = models.StatusAssigned
	repo.orders[order.ID].AssignedWorker = &worker

	if err := svc.Cancel(context.Background(), "user-1", order.ID, ""); !errors.Is(err, models.ErrOrderNotCancellable) {
		t.Errorf("cancel after assignment = %v, want ErrOrderNotCancellable", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	repo := newFakeOrderRepo()
	rater := &fakeRater{}
	svc := newTestService(repo, freshScanService(), &fakeGate{}, rater)
	ctx := context.Background()

	order, err := svc.Create(ctx, "user-1", createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	worker := "worker-1"
	repo.orders[order.ID].Status = models.StatusAssigned
	repo.orders[order.ID].AssignedWorker = &worker
	repo.appendHistory(order.ID, models.StatusAssigned, "Self-assigned", worker)

	// Only the assigned worker may touch the order.
	_, err = svc.UpdateStatus(ctx, "worker-2", models.RoleWorker, order.ID, models.UpdateOrderStatusRequest{Status: "in_transit"})
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("stranger update = %v, want ErrForbidden", err)
	}

	// Skipping in_transit is not allowed.
	_, err = svc.UpdateStatus(ctx, worker, models.RoleWorker, order.ID, models.UpdateOrderStatusRequest{Status: "completed"})
	if !errors.Is(err, models.ErrIllegalTransition) {
		t.Fatalf("assigned->completed = %v, want ErrIllegalTransition", err)
	}

	got, err := svc.UpdateStatus(ctx, worker, models.RoleWorker, order.ID, models.UpdateOrderStatusRequest{Status: "in_transit"})
	if err != nil {
		t.Fatalf("to in_transit: %v", err)
	}
	if got.PickedUpAt == nil {
		t.Errorf("picked_up_at not stamped on in_transit")
	}

	got, err = svc.UpdateStatus(ctx, worker, models.RoleWorker, order.ID, models.UpdateOrderStatusRequest{Status: "arrived"})
	if err != nil {
		t.Fatalf("to arrived: %v", err)
	}
	if got.ArrivedAt == nil {
		t.Errorf("arrived_at not stamped on arrived")
	}

	actualKg := 9.0
	actualVal := 45.0
	got, err = svc.UpdateStatus(ctx, worker, models.RoleWorker, order.ID, models.UpdateOrderStatusRequest{
		Status:           "completed",
		ActualQuantityKg: &actualKg,
		ActualValue:      &actualVal,
		Photos:           []string{"https://cdn.example.com/p1.jpg"},
	})
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.ActualQuantityKg == nil || *got.ActualQuantityKg != 9 {
		t.Errorf("actual quantity = %v, want 9", got.ActualQuantityKg)
	}
	if got.ActualValue == nil || !got.ActualValue.Equal(decimal.NewFromInt(45)) {
		t.Errorf("actual value = %v, want 45", got.ActualValue)
	}
	if repo.workerJobs[worker] != 1 {
		t.Errorf("worker completed jobs = %d, want 1", repo.workerJobs[worker])
	}
	if repo.ownerPts["user-1"] != 20 {
		t.Errorf("owner eco points credited = %d, want 20", repo.ownerPts["user-1"])
	}
	// pending, assigned, in_transit, arrived, completed.
	if len(got.StatusHistory) != 5 {
		t.Errorf("history length = %d, want 5", len(got.StatusHistory))
	}

	// Terminal state rejects further updates.
	_, err = svc.UpdateStatus(ctx, worker, models.RoleWorker, order.ID, models.UpdateOrderStatusRequest{Status: "in_transit"})
	if !errors.Is(err, models.ErrIllegalTransition) {
		t.Errorf("update after completion = %v, want ErrIllegalTransition", err)
	}

	// Rating flows through to the worker once, and only once.
	if err := svc.Rate(ctx, "user-1", order.ID, models.RateOrderRequest{Score: 5, Feedback: "great"}); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if len(rater.scores[worker]) != 1 || rater.scores[worker][0] != 5 {
		t.Errorf("worker rating not applied: %v", rater.scores[worker])
	}
	if err := svc.Rate(ctx, "user-1", order.ID, models.RateOrderRequest{Score: 4}); !errors.Is(err, models.ErrAlreadyRated) {
		t.Errorf("second rating = %v, want ErrAlreadyRated", err)
	}
}

func TestAdminDrivesTransitions(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, freshScanService(), &fakeGate{}, &fakeRater{})
	ctx := context.Background()

	order, err := svc.Create(ctx, "user-1", createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	worker := "worker-1"
	repo.orders[order.ID].Status = models.StatusAssigned
	repo.orders[order.ID].AssignedWorker = &worker

	// An admin is not the assigned worker but may still advance the order.
	if _, err := svc.UpdateStatus(ctx, "admin-1", models.RoleAdmin, order.ID, models.UpdateOrderStatusRequest{Status: "in_transit"}); err != nil {
		t.Fatalf("admin to in_transit: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "admin-1", models.RoleAdmin, order.ID, models.UpdateOrderStatusRequest{Status: "arrived"}); err != nil {
		t.Fatalf("admin to arrived: %v", err)
	}

	actualKg := 7.0
	got, err := svc.UpdateStatus(ctx, "admin-1", models.RoleAdmin, order.ID, models.UpdateOrderStatusRequest{
		Status:           "completed",
		ActualQuantityKg: &actualKg,
	})
	if err != nil {
		t.Fatalf("admin completion: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	// The completion credit goes to the assigned worker, not the admin.
	if repo.workerJobs[worker] != 1 {
		t.Errorf("worker completed jobs = %d, want 1", repo.workerJobs[worker])
	}
	if repo.workerJobs["admin-1"] != 0 {
		t.Errorf("admin credited with a completed job")
	}

	// The transition table still binds admins.
	if _, err := svc.UpdateStatus(ctx, "admin-1", models.RoleAdmin, order.ID, models.UpdateOrderStatusRequest{Status: "in_transit"}); !errors.Is(err, models.ErrIllegalTransition) {
		t.Errorf("admin update after completion = %v, want ErrIllegalTransition", err)
	}
}

func TestRateRequiresCompletion(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, freshScanService(), &fakeGate{}, &fakeRater{})

	order, err := svc.Create(context.Background(), "user-1", createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = svc.Rate(context.Background(), "user-1", order.ID, models.RateOrderRequest{Score: 5})
	if !errors.Is(err, models.ErrOrderNotCompleted) {
		t.Errorf("rating pending order = %v, want ErrOrderNotCompleted", err)
	}
}

func TestGetOrderVisibility(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, freshScanService(), &fakeGate{}, nil)
	ctx := context.Background()

	order, err := svc.Create(ctx, "user-1", createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	worker := "worker-1"
	repo.orders[order.ID].AssignedWorker = &worker

	if _, err := svc.GetOrder(ctx, "user-1", models.RoleUser, order.ID); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := svc.GetOrder(ctx, worker, models.RoleWorker, order.ID); err != nil {
		t.Errorf("assigned worker read: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "admin-1", models.RoleAdmin, order.ID); err != nil {
		t.Errorf("admin read: %v", err)
	}
	if _, err := svc.GetOrder(ctx, "user-2", models.RoleUser, order.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("stranger read = %v, want ErrNotFound", err)
	}
}
