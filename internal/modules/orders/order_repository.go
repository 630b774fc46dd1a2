package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecocollect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, code, user_id, waste_types, estimated_quantity_kg, actual_quantity_kg,
	estimated_value, actual_value, eco_points_earned, scheduled_date, scheduled_time,
	loc_label, loc_street, loc_landmark, loc_area, loc_city, loc_pincode, loc_lat, loc_lng,
	notes, scan_id, scan_category, scan_recyclable, scan_estimated_weight, scan_confidence,
	scan_scanned_at, status, assigned_worker, cancellation_reason, picked_up_at, arrived_at,
	completed_at, cancelled_at, rating_score, rating_feedback, rated_at, completion_photos,
	created_at, updated_at`

// AdminListFilter narrows the admin order listing.
type AdminListFilter struct {
	Status *models.OrderStatus
	Area   string
	Date   *time.Time
}

// CompletionUpdate carries everything the completion transaction writes.
type CompletionUpdate struct {
	OrderID          string
	WorkerID         string
	ActorID          string
	Note             string
	ActualQuantityKg *float64
	ActualValue      *decimal.Decimal
	Photos           []string
}

// RepositoryInterface defines the contract for the order store.
type RepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByUserID(ctx context.Context, userID string, status *models.OrderStatus, page, limit int) ([]*models.Order, int, error)
	ListAll(ctx context.Context, filter AdminListFilter, page, limit int) ([]*models.Order, int, error)
	ListByWorker(ctx context.Context, workerID string, activeOnly bool) ([]*models.Order, error)
	ListHistory(ctx context.Context, orderID string) ([]models.StatusEvent, error)
	// AdvanceStatus applies from->to as one conditional update plus a
	// history append in a single transaction. A zero-row update means the
	// order moved concurrently and the caller's precondition no longer
	// holds.
	AdvanceStatus(ctx context.Context, orderID string, from, to models.OrderStatus, note, actorID string) error
	// Cancel moves an owner's order to cancelled iff it is still pending
	// or confirmed.
	Cancel(ctx context.Context, orderID, userID, reason string) error
	// Complete performs the full completion write set in one transaction:
	// order fields, worker counters, owner stats and the history entry.
	Complete(ctx context.Context, upd CompletionUpdate) error
	AddRating(ctx context.Context, orderID string, score int, feedback string) error
	StatsByUser(ctx context.Context, userID string) (*models.OrderStats, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// scanOrder is a helper to scan a row into an Order model.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o          models.Order
		wasteTypes []string
		actualVal  decimal.NullDecimal
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.UserID, &wasteTypes, &o.EstimatedQuantityKg, &o.ActualQuantityKg,
		&o.EstimatedValue, &actualVal, &o.EcoPointsEarned, &o.ScheduledDate, &o.ScheduledTime,
		&o.Location.Label, &o.Location.Street, &o.Location.Landmark, &o.Location.Area,
		&o.Location.City, &o.Location.Pincode, &o.Location.Lat, &o.Location.Lng,
		&o.Notes, &o.Scan.ScanID, &o.Scan.Category, &o.Scan.Recyclable,
		&o.Scan.EstimatedWeightKg, &o.Scan.Confidence, &o.Scan.ScannedAt,
		&o.Status, &o.AssignedWorker, &o.CancellationReason, &o.PickedUpAt, &o.ArrivedAt,
		&o.CompletedAt, &o.CancelledAt, &o.RatingScore, &o.RatingFeedback, &o.RatedAt,
		&o.CompletionPhotos, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	o.WasteTypes = make([]models.WasteType, len(wasteTypes))
	for i, w := range wasteTypes {
		o.WasteTypes[i] = models.WasteType(w)
	}
	if actualVal.Valid {
		o.ActualValue = &actualVal.Decimal
	}
	return &o, nil
}

func wasteTypeStrings(types []models.WasteType) []string {
	out := make([]string, len(types))
	for i, w := range types {
		out[i] = string(w)
	}
	return out
}

// Create inserts the order and its initial history entry together.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.CreateOrder.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (
			id, code, user_id, waste_types, estimated_quantity_kg, estimated_value,
			eco_points_earned, scheduled_date, scheduled_time,
			loc_label, loc_street, loc_landmark, loc_area, loc_city, loc_pincode, loc_lat, loc_lng,
			notes, scan_id, scan_category, scan_recyclable, scan_estimated_weight,
			scan_confidence, scan_scanned_at, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, 'pending')
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		order.ID, order.Code, order.UserID, wasteTypeStrings(order.WasteTypes),
		order.EstimatedQuantityKg, order.EstimatedValue, order.EcoPointsEarned,
		order.ScheduledDate, order.ScheduledTime,
		order.Location.Label, order.Location.Street, order.Location.Landmark,
		order.Location.Area, order.Location.City, order.Location.Pincode,
		order.Location.Lat, order.Location.Lng,
		order.Notes, order.Scan.ScanID, order.Scan.Category, order.Scan.Recyclable,
		order.Scan.EstimatedWeightKg, order.Scan.Confidence, order.Scan.ScannedAt,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateOrder: %w", err)
	}

	historyQuery := `
		INSERT INTO order_status_history (order_id, status, note, actor_id)
		VALUES ($1, 'pending', 'Order placed', $2)`
	if _, err := tx.Exec(ctx, historyQuery, order.ID, order.UserID); err != nil {
		return fmt.Errorf("repository.CreateOrder.History: %w", err)
	}

	statsQuery := `UPDATE users SET total_orders = total_orders + 1 WHERE id = $1`
	if _, err := tx.Exec(ctx, statsQuery, order.UserID); err != nil {
		return fmt.Errorf("repository.CreateOrder.UserStats: %w", err)
	}

	order.Status = models.StatusPending
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.CreateOrder.Commit: %w", err)
	}
	return nil
}

// FindByID retrieves a single order with its status history.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}

	history, err := r.ListHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.StatusHistory = history
	return order, nil
}

// ListByUserID retrieves a user's orders, newest first.
func (r *Repository) ListByUserID(ctx context.Context, userID string, status *models.OrderStatus, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	args := []interface{}{userID}
	where := "user_id = $1"
	if status != nil {
		args = append(args, *status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListByUserID.Query: %w", err)
	}
	defer rows.Close()

	var result []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListByUserID.Scan: %w", err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByUserID.Rows: %w", err)
	}

	countArgs := args[:len(args)-2]
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE "+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByUserID.Count: %w", err)
	}
	return result, total, nil
}

// ListAll retrieves orders for the admin view with optional filters, sorted
// by schedule.
func (r *Repository) ListAll(ctx context.Context, filter AdminListFilter, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit

	var clauses []string
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Area != "" {
		args = append(args, "%"+filter.Area+"%")
		clauses = append(clauses, fmt.Sprintf("loc_area ILIKE $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Format("2006-01-02"))
		clauses = append(clauses, fmt.Sprintf("scheduled_date = $%d", len(args)))
	}
	where := "TRUE"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM orders WHERE " + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListAll.Count: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY scheduled_date, scheduled_time LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListAll.Query: %w", err)
	}
	defer rows.Close()

	var result []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListAll.Scan: %w", err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListAll.Rows: %w", err)
	}
	return result, total, nil
}

// ListByWorker retrieves orders assigned to a worker; activeOnly excludes
// terminal states.
func (r *Repository) ListByWorker(ctx context.Context, workerID string, activeOnly bool) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE assigned_worker = $1`
	if activeOnly {
		query += ` AND status NOT IN ('completed', 'cancelled')`
	}
	query += ` ORDER BY scheduled_date, scheduled_time`

	rows, err := r.db.Query(ctx, query, workerID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByWorker.Query: %w", err)
	}
	defer rows.Close()

	var result []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByWorker.Scan: %w", err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListByWorker.Rows: %w", err)
	}
	return result, nil
}

// ListHistory returns the append-only status history, oldest first.
func (r *Repository) ListHistory(ctx context.Context, orderID string) ([]models.StatusEvent, error) {
	query := `
		SELECT id, order_id, status, note, actor_id, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListHistory.Query: %w", err)
	}
	defer rows.Close()

	var events []models.StatusEvent
	for rows.Next() {
		var ev models.StatusEvent
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.Status, &ev.Note, &ev.ActorID, &ev.At); err != nil {
			return nil, fmt.Errorf("repository.ListHistory.Scan: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListHistory.Rows: %w", err)
	}
	return events, nil
}

// AdvanceStatus performs the conditional status move and history append in
// one transaction. The WHERE status = from predicate makes the update a
// compare-and-swap: a concurrent transition leaves zero rows affected.
func (r *Repository) AdvanceStatus(ctx context.Context, orderID string, from, to models.OrderStatus, note, actorID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.AdvanceStatus.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = $3,
		    picked_up_at = CASE WHEN $3 = 'in_transit' THEN NOW() ELSE picked_up_at END,
		    arrived_at   = CASE WHEN $3 = 'arrived' THEN NOW() ELSE arrived_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2`
	cmdTag, err := tx.Exec(ctx, query, orderID, from, to)
	if err != nil {
		return fmt.Errorf("repository.AdvanceStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// The order either vanished or moved concurrently; the caller's
		// validated precondition no longer holds.
		return models.ErrIllegalTransition
	}

	historyQuery := `
		INSERT INTO order_status_history (order_id, status, note, actor_id)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, historyQuery, orderID, to, note, actorID); err != nil {
		return fmt.Errorf("repository.AdvanceStatus.History: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.AdvanceStatus.Commit: %w", err)
	}
	return nil
}

// Cancel cancels an owner's order while it is still pending or confirmed.
func (r *Repository) Cancel(ctx context.Context, orderID, userID, reason string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.Cancel.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = 'cancelled',
		    cancellation_reason = $3,
		    cancelled_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'confirmed')`
	cmdTag, err := tx.Exec(ctx, query, orderID, userID, reason)
	if err != nil {
		return fmt.Errorf("repository.Cancel: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Disambiguate: missing/foreign order vs an order past cancelling.
		var status models.OrderStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("repository.Cancel.Probe: %w", err)
		}
		return models.ErrOrderNotCancellable
	}

	historyQuery := `
		INSERT INTO order_status_history (order_id, status, note, actor_id)
		VALUES ($1, 'cancelled', $2, $3)`
	note := "Cancelled by user"
	if reason != "" {
		note = "Cancelled: " + reason
	}
	if _, err := tx.Exec(ctx, historyQuery, orderID, note, userID); err != nil {
		return fmt.Errorf("repository.Cancel.History: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.Cancel.Commit: %w", err)
	}
	return nil
}

// Complete applies the whole completion write set atomically so a crash can
// never leave the order completed but the aggregates uncredited.
func (r *Repository) Complete(ctx context.Context, upd CompletionUpdate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.Complete.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var actualVal decimal.NullDecimal
	if upd.ActualValue != nil {
		actualVal = decimal.NullDecimal{Decimal: *upd.ActualValue, Valid: true}
	}
	photos := upd.Photos
	if photos == nil {
		photos = []string{}
	}

	query := `
		UPDATE orders
		SET status = 'completed',
		    actual_quantity_kg = COALESCE($3, actual_quantity_kg),
		    actual_value = COALESCE($4, actual_value),
		    completion_photos = CASE WHEN cardinality($5::text[]) > 0 THEN $5 ELSE completion_photos END,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'arrived' AND assigned_worker = $2
		RETURNING user_id, eco_points_earned, COALESCE(actual_quantity_kg, estimated_quantity_kg)`

	var (
		ownerID    string
		ecoPoints  int
		recycledKg float64
	)
	err = tx.QueryRow(ctx, query, upd.OrderID, upd.WorkerID, upd.ActualQuantityKg, actualVal, photos).
		Scan(&ownerID, &ecoPoints, &recycledKg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrIllegalTransition
		}
		return fmt.Errorf("repository.Complete: %w", err)
	}

	workerQuery := `
		UPDATE users
		SET completed_jobs = completed_jobs + 1,
		    updated_at = NOW()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, workerQuery, upd.WorkerID); err != nil {
		return fmt.Errorf("repository.Complete.Worker: %w", err)
	}

	ownerQuery := `
		UPDATE users
		SET eco_points = eco_points + $2,
		    completed_orders = completed_orders + 1,
		    total_recycled_kg = total_recycled_kg + $3,
		    updated_at = NOW()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, ownerQuery, ownerID, ecoPoints, recycledKg); err != nil {
		return fmt.Errorf("repository.Complete.Owner: %w", err)
	}

	note := upd.Note
	if note == "" {
		note = "Pickup completed"
	}
	historyQuery := `
		INSERT INTO order_status_history (order_id, status, note, actor_id)
		VALUES ($1, 'completed', $2, $3)`
	if _, err := tx.Exec(ctx, historyQuery, upd.OrderID, note, upd.ActorID); err != nil {
		return fmt.Errorf("repository.Complete.History: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.Complete.Commit: %w", err)
	}
	return nil
}

// AddRating stores a one-time rating on a completed order.
func (r *Repository) AddRating(ctx context.Context, orderID string, score int, feedback string) error {
	query := `
		UPDATE orders
		SET rating_score = $2, rating_feedback = $3, rated_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND rating_score IS NULL`
	cmdTag, err := r.db.Exec(ctx, query, orderID, score, feedback)
	if err != nil {
		return fmt.Errorf("repository.AddRating: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrAlreadyRated
	}
	return nil
}

// StatsByUser aggregates a user's order history.
func (r *Repository) StatsByUser(ctx context.Context, userID string) (*models.OrderStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(SUM(actual_quantity_kg) FILTER (WHERE status = 'completed'), 0),
		       COALESCE(SUM(actual_value) FILTER (WHERE status = 'completed'), 0),
		       COALESCE(SUM(eco_points_earned) FILTER (WHERE status = 'completed'), 0)
		FROM orders
		WHERE user_id = $1`

	stats := &models.OrderStats{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.TotalOrders, &stats.CompletedOrders, &stats.TotalRecycledKg,
		&stats.TotalEarnings, &stats.TotalEcoPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("repository.StatsByUser: %w", err)
	}
	return stats, nil
}
