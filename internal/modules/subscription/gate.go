package subscription

import (
	"context"
	"fmt"
	"time"

	"ecocollect/internal/models"

	"go.uber.org/zap"
)

// Decision describes a granted quota consumption.
type Decision struct {
	UserID       string
	Plan         models.Plan
	Period       string
	OrdersUsed   int
	MonthlyLimit int
}

// GateInterface authorizes order creation against the user's plan and
// monthly quota.
type GateInterface interface {
	// Consume validates the subscription and atomically takes one unit of
	// the user's monthly order quota. Callers that subsequently fail to
	// create the order must call Release with the returned decision.
	Consume(ctx context.Context, userID string) (*Decision, error)
	// Release returns one quota unit taken by Consume.
	Release(ctx context.Context, d *Decision) error
}

// Gate implements GateInterface.
type Gate struct {
	repo   RepositoryInterface
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewGate creates a subscription gate.
func NewGate(repo RepositoryInterface, logger *zap.SugaredLogger) *Gate {
	return &Gate{repo: repo, logger: logger, now: time.Now}
}

// QuotaPeriod formats the calendar-month quota window for a point in time.
// The window follows the server's local clock, matching historical
// behavior; cross-timezone semantics are a documented limitation.
func QuotaPeriod(t time.Time) string {
	return t.Format("2006-01")
}

func (g *Gate) Consume(ctx context.Context, userID string) (*Decision, error) {
	plan, status, err := g.repo.GetPlanState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("gate.Consume: %w", err)
	}

	// Scanning is free; scheduling pickups requires a paid plan.
	if plan == models.PlanFree {
		return nil, models.ErrSubscriptionRequired
	}
	if status != models.SubscriptionActive {
		return nil, models.ErrSubscriptionInactive
	}

	period := QuotaPeriod(g.now())
	limit := plan.MonthlyOrderLimit()
	used, err := g.repo.ConsumeQuota(ctx, userID, period, limit)
	if err != nil {
		return nil, err
	}

	g.logger.Debugw("order quota consumed",
		"user_id", userID, "period", period, "used", used, "limit", limit)
	return &Decision{UserID: userID, Plan: plan, Period: period, OrdersUsed: used, MonthlyLimit: limit}, nil
}

func (g *Gate) Release(ctx context.Context, d *Decision) error {
	if d == nil {
		return nil
	}
	return g.repo.ReleaseQuota(ctx, d.UserID, d.Period)
}
