package subscription

import (
	"context"
	"errors"
	"fmt"

	"ecocollect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the storage operations the gate needs.
type RepositoryInterface interface {
	// GetPlanState returns the user's plan and subscription status.
	GetPlanState(ctx context.Context, userID string) (models.Plan, models.SubscriptionStatus, error)
	// ConsumeQuota atomically increments the (user, period) counter if and
	// only if the current value is below limit, returning the new value.
	// Returns models.ErrQuotaExceeded when the counter is already at limit.
	ConsumeQuota(ctx context.Context, userID, period string, limit int) (int, error)
	// ReleaseQuota undoes one consumption, used when a later step of order
	// creation fails.
	ReleaseQuota(ctx context.Context, userID, period string) error
}

// Repository is a PostgreSQL implementation of RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new subscription repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) GetPlanState(ctx context.Context, userID string) (models.Plan, models.SubscriptionStatus, error) {
	query := `SELECT plan, sub_status FROM users WHERE id = $1`
	var plan models.Plan
	var status models.SubscriptionStatus
	err := r.db.QueryRow(ctx, query, userID).Scan(&plan, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", models.ErrNotFound
		}
		return "", "", fmt.Errorf("repository.GetPlanState: %w", err)
	}
	return plan, status, nil
}

// ConsumeQuota relies on the upsert being a single atomic statement: two
// concurrent consumers for the same (user, period) serialize on the row,
// and the guard predicate keeps the counter from ever exceeding the limit.
func (r *Repository) ConsumeQuota(ctx context.Context, userID, period string, limit int) (int, error) {
	query := `
		INSERT INTO order_usage (user_id, period, used)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, period)
		DO UPDATE SET used = order_usage.used + 1
		WHERE order_usage.used < $3
		RETURNING used`

	var used int
	err := r.db.QueryRow(ctx, query, userID, period, limit).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrQuotaExceeded
		}
		return 0, fmt.Errorf("repository.ConsumeQuota: %w", err)
	}
	if used > limit {
		// The fresh-insert path bypasses the guard; a limit of zero means
		// the plan allows no orders at all.
		if rbErr := r.ReleaseQuota(ctx, userID, period); rbErr != nil {
			return 0, fmt.Errorf("repository.ConsumeQuota rollback: %w", rbErr)
		}
		return 0, models.ErrQuotaExceeded
	}
	return used, nil
}

func (r *Repository) ReleaseQuota(ctx context.Context, userID, period string) error {
	query := `
		UPDATE order_usage
		SET used = GREATEST(used - 1, 0)
		WHERE user_id = $1 AND period = $2`
	if _, err := r.db.Exec(ctx, query, userID, period); err != nil {
		return fmt.Errorf("repository.ReleaseQuota: %w", err)
	}
	return nil
}
