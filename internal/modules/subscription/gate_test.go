package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ecocollect/internal/models"

	"go.uber.org/zap"
)

// fakeRepo mimics the atomic counter semantics of the SQL implementation.
type fakeRepo struct {
	mu     sync.Mutex
	plan   models.Plan
	status models.SubscriptionStatus
	used   map[string]int
}

func newFakeRepo(plan models.Plan, status models.SubscriptionStatus) *fakeRepo {
	return &fakeRepo{plan: plan, status: status, used: make(map[string]int)}
}

func (f *fakeRepo) GetPlanState(_ context.Context, _ string) (models.Plan, models.SubscriptionStatus, error) {
	return f.plan, f.status, nil
}

func (f *fakeRepo) ConsumeQuota(_ context.Context, userID, period string, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + period
	if f.used[key] >= limit {
		return 0, models.ErrQuotaExceeded
	}
	f.used[key]++
	return f.used[key], nil
}

func (f *fakeRepo) ReleaseQuota(_ context.Context, userID, period string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + period
	if f.used[key] > 0 {
		f.used[key]--
	}
	return nil
}

func newTestGate(repo RepositoryInterface) *Gate {
	return NewGate(repo, zap.NewNop().Sugar())
}

func TestConsumeDeniesFreePlan(t *testing.T) {
	g := newTestGate(newFakeRepo(models.PlanFree, models.SubscriptionActive))
	_, err := g.Consume(context.Background(), "u1")
	if !errors.Is(err, models.ErrSubscriptionRequired) {
		t.Fatalf("err = %v, want ErrSubscriptionRequired", err)
	}
}

func TestConsumeDeniesInactiveSubscription(t *testing.T) {
	for _, status := range []models.SubscriptionStatus{
		models.SubscriptionInactive, models.SubscriptionExpired, models.SubscriptionCancelled,
	} {
		g := newTestGate(newFakeRepo(models.PlanPremium, status))
		_, err := g.Consume(context.Background(), "u1")
		if !errors.Is(err, models.ErrSubscriptionInactive) {
			t.Fatalf("status %s: err = %v, want ErrSubscriptionInactive", status, err)
		}
	}
}

func TestBasicQuotaBoundary(t *testing.T) {
	g := newTestGate(newFakeRepo(models.PlanBasic, models.SubscriptionActive))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := g.Consume(ctx, "u1")
		if err != nil {
			t.Fatalf("order %d: unexpected error %v", i, err)
		}
		if d.OrdersUsed != i {
			t.Fatalf("order %d: used = %d", i, d.OrdersUsed)
		}
	}
	if _, err := g.Consume(ctx, "u1"); !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("6th order: err = %v, want ErrQuotaExceeded", err)
	}
}

func TestPremiumQuotaBoundary(t *testing.T) {
	repo := newFakeRepo(models.PlanPremium, models.SubscriptionActive)
	g := newTestGate(repo)
	ctx := context.Background()

	for i := 1; i <= 19; i++ {
		if _, err := g.Consume(ctx, "u1"); err != nil {
			t.Fatalf("order %d: unexpected error %v", i, err)
		}
	}
	d, err := g.Consume(ctx, "u1")
	if err != nil {
		t.Fatalf("20th order: unexpected error %v", err)
	}
	if d.OrdersUsed != 20 {
		t.Fatalf("20th order: used = %d", d.OrdersUsed)
	}
	if _, err := g.Consume(ctx, "u1"); !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("21st order: err = %v, want ErrQuotaExceeded", err)
	}
}

func TestReleaseReturnsQuotaUnit(t *testing.T) {
	g := newTestGate(newFakeRepo(models.PlanBasic, models.SubscriptionActive))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := g.Consume(ctx, "u1"); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	d := &Decision{UserID: "u1", Period: QuotaPeriod(g.now()), Plan: models.PlanBasic, MonthlyLimit: 5}
	if err := g.Release(ctx, d); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := g.Consume(ctx, "u1"); err != nil {
		t.Fatalf("consume after release: %v", err)
	}
}

func TestConcurrentConsumeNeverOverruns(t *testing.T) {
	g := newTestGate(newFakeRepo(models.PlanBasic, models.SubscriptionActive))
	ctx := context.Background()

	const attempts = 50
	var wg sync.WaitGroup
	granted := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Consume(ctx, "u1"); err == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	if n := len(granted); n != 5 {
		t.Fatalf("granted %d concurrent consumptions, want exactly 5", n)
	}
}
