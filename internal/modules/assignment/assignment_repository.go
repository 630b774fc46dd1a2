package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecocollect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClaimableOrder is an unclaimed order row with the customer contact
// joined in for discovery.
type ClaimableOrder struct {
	ID                  string
	Code                string
	CustomerName        string
	CustomerPhone       string
	WasteTypes          []models.WasteType
	EstimatedQuantityKg float64
	ScheduledDate       time.Time
	ScheduledTime       string
	Location            models.Location
	ScanCategory        string
	Notes               string
	CreatedAt           time.Time
}

// WorkerGate is the worker's eligibility snapshot for claiming orders.
type WorkerGate struct {
	Role         models.Role
	WorkerStatus models.WorkerStatus
	IsOnDuty     bool
}

// RepositoryInterface defines the contract for assignment persistence.
type RepositoryInterface interface {
	// SelfAssign claims an order for a worker. The update's WHERE clause
	// carries the whole precondition, so two racing workers can never both
	// win: the loser's update matches zero rows.
	SelfAssign(ctx context.Context, orderID, workerID string) error
	// AdminAssign overrides any current assignment as long as the order is
	// not terminal.
	AdminAssign(ctx context.Context, orderID, workerID, adminID string) error
	ListPendingUnassigned(ctx context.Context, area string) ([]*ClaimableOrder, error)
	GetWorkerGate(ctx context.Context, workerID string) (*WorkerGate, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new assignment repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) SelfAssign(ctx context.Context, orderID, workerID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.SelfAssign.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET assigned_worker = $1, status = 'assigned', updated_at = NOW()
		WHERE id = $2 AND status = 'pending' AND assigned_worker IS NULL`
	cmdTag, err := tx.Exec(ctx, query, workerID, orderID)
	if err != nil {
		return fmt.Errorf("repository.SelfAssign: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Lost the race or the order never existed; probe to tell the two
		// apart.
		var status models.OrderStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("repository.SelfAssign.Probe: %w", err)
		}
		return models.ErrOrderUnavailable
	}

	historyQuery := `
		INSERT INTO order_status_history (order_id, status, note, actor_id)
		VALUES ($1, 'assigned', 'Claimed by worker', $2)`
	if _, err := tx.Exec(ctx, historyQuery, orderID, workerID); err != nil {
		return fmt.Errorf("repository.SelfAssign.History: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.SelfAssign.Commit: %w", err)
	}
	return nil
}

func (r *Repository) AdminAssign(ctx context.Context, orderID, workerID, adminID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.AdminAssign.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET assigned_worker = $1, status = 'assigned', updated_at = NOW()
		WHERE id = $2 AND status NOT IN ('completed', 'cancelled')`
	cmdTag, err := tx.Exec(ctx, query, workerID, orderID)
	if err != nil {
		return fmt.Errorf("repository.AdminAssign: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		var status models.OrderStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("repository.AdminAssign.Probe: %w", err)
		}
		return models.ErrOrderUnavailable
	}

	historyQuery := `
		INSERT INTO order_status_history (order_id, status, note, actor_id)
		VALUES ($1, 'assigned', 'Assigned by admin', $2)`
	if _, err := tx.Exec(ctx, historyQuery, orderID, adminID); err != nil {
		return fmt.Errorf("repository.AdminAssign.History: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.AdminAssign.Commit: %w", err)
	}
	return nil
}

// ListPendingUnassigned returns claimable orders, optionally narrowed to an
// area, with the customer contact joined in. The partial index on
// (status, assigned_worker) keeps this cheap.
func (r *Repository) ListPendingUnassigned(ctx context.Context, area string) ([]*ClaimableOrder, error) {
	query := `
		SELECT o.id, o.code, u.name, u.phone, o.waste_types, o.estimated_quantity_kg,
		       o.scheduled_date, o.scheduled_time,
		       o.loc_label, o.loc_street, o.loc_landmark, o.loc_area, o.loc_city,
		       o.loc_pincode, o.loc_lat, o.loc_lng,
		       o.scan_category, o.notes, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status = 'pending' AND o.assigned_worker IS NULL`
	args := []interface{}{}
	if area != "" {
		args = append(args, "%"+area+"%")
		query += " AND o.loc_area ILIKE $1"
	}
	query += " ORDER BY o.scheduled_date, o.scheduled_time, o.created_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.ListPendingUnassigned.Query: %w", err)
	}
	defer rows.Close()

	var result []*ClaimableOrder
	for rows.Next() {
		var (
			o          ClaimableOrder
			wasteTypes []string
		)
		err := rows.Scan(
			&o.ID, &o.Code, &o.CustomerName, &o.CustomerPhone, &wasteTypes, &o.EstimatedQuantityKg,
			&o.ScheduledDate, &o.ScheduledTime,
			&o.Location.Label, &o.Location.Street, &o.Location.Landmark,
			&o.Location.Area, &o.Location.City, &o.Location.Pincode,
			&o.Location.Lat, &o.Location.Lng,
			&o.ScanCategory, &o.Notes, &o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository.ListPendingUnassigned.Scan: %w", err)
		}
		o.WasteTypes = make([]models.WasteType, len(wasteTypes))
		for i, w := range wasteTypes {
			o.WasteTypes[i] = models.WasteType(w)
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListPendingUnassigned.Rows: %w", err)
	}
	return result, nil
}

func (r *Repository) GetWorkerGate(ctx context.Context, workerID string) (*WorkerGate, error) {
	query := `SELECT role, worker_status, is_on_duty FROM users WHERE id = $1 AND is_active = TRUE`
	var gate WorkerGate
	err := r.db.QueryRow(ctx, query, workerID).Scan(&gate.Role, &gate.WorkerStatus, &gate.IsOnDuty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.GetWorkerGate: %w", err)
	}
	return &gate, nil
}
