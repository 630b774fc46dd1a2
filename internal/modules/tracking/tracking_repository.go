package tracking

import (
	"context"
	"errors"
	"fmt"

	"ecocollect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkerSnapshot bundles the public identity and live position of a field
// worker as read in one query.
type WorkerSnapshot struct {
	Info     models.WorkerPublicInfo
	Live     models.LiveLocation
	IsOnDuty bool
	Status   models.WorkerStatus
	Role     models.Role
}

// RepositoryInterface defines the contract for live-location persistence.
type RepositoryInterface interface {
	// UpdateLive overwrites the worker's position. Reports are only
	// accepted while the worker is on duty.
	UpdateLive(ctx context.Context, workerID string, req models.LiveLocationRequest) error
	// SetDuty flips duty state; going off duty wipes the live position.
	SetDuty(ctx context.Context, workerID string, onDuty bool) error
	GetWorkerSnapshot(ctx context.Context, workerID string) (*WorkerSnapshot, error)
	// ListSharing returns all on-duty workers currently sharing a position.
	ListSharing(ctx context.Context) ([]*WorkerSnapshot, error)
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new tracking repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) UpdateLive(ctx context.Context, workerID string, req models.LiveLocationRequest) error {
	sharing := true
	if req.IsSharing != nil {
		sharing = *req.IsSharing
	}
	query := `
		UPDATE users
		SET live_lat = $2, live_lng = $3, live_heading = $4, live_speed = $5,
		    live_accuracy = $6, live_is_sharing = $7, live_updated_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND is_on_duty = TRUE`
	cmdTag, err := r.db.Exec(ctx, query, workerID,
		req.Lat, req.Lng, req.Heading, req.SpeedKmh, req.Accuracy, sharing)
	if err != nil {
		return fmt.Errorf("repository.UpdateLive: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT TRUE FROM users WHERE id = $1`, workerID).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("repository.UpdateLive.Probe: %w", err)
		}
		return models.ErrWorkerOffDuty
	}
	return nil
}

func (r *Repository) SetDuty(ctx context.Context, workerID string, onDuty bool) error {
	// Going off duty resets the position to the (0,0) sentinel so stale
	// coordinates can never leak into a tracking view.
	query := `
		UPDATE users
		SET is_on_duty = $2,
		    live_lat = CASE WHEN $2 THEN live_lat ELSE 0 END,
		    live_lng = CASE WHEN $2 THEN live_lng ELSE 0 END,
		    live_heading = CASE WHEN $2 THEN live_heading ELSE 0 END,
		    live_speed = CASE WHEN $2 THEN live_speed ELSE 0 END,
		    live_accuracy = CASE WHEN $2 THEN live_accuracy ELSE 0 END,
		    live_is_sharing = CASE WHEN $2 THEN live_is_sharing ELSE FALSE END,
		    live_updated_at = CASE WHEN $2 THEN live_updated_at ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, workerID, onDuty)
	if err != nil {
		return fmt.Errorf("repository.SetDuty: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const workerSnapshotColumns = `id, name, phone, COALESCE(employee_id, ''),
	COALESCE(vehicle_number, ''), COALESCE(vehicle_type, ''), worker_rating,
	live_lat, live_lng, live_heading, live_speed, live_accuracy,
	live_is_sharing, live_updated_at, is_on_duty, worker_status, role`

func scanWorkerSnapshot(row pgx.Row) (*WorkerSnapshot, error) {
	var w WorkerSnapshot
	err := row.Scan(
		&w.Info.ID, &w.Info.Name, &w.Info.Phone, &w.Info.EmployeeID,
		&w.Info.VehicleNumber, &w.Info.VehicleType, &w.Info.Rating,
		&w.Live.Lat, &w.Live.Lng, &w.Live.Heading, &w.Live.SpeedKmh,
		&w.Live.Accuracy, &w.Live.IsSharing, &w.Live.UpdatedAt,
		&w.IsOnDuty, &w.Status, &w.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan worker snapshot: %w", err)
	}
	return &w, nil
}

func (r *Repository) GetWorkerSnapshot(ctx context.Context, workerID string) (*WorkerSnapshot, error) {
	query := `SELECT ` + workerSnapshotColumns + ` FROM users WHERE id = $1`
	w, err := scanWorkerSnapshot(r.db.QueryRow(ctx, query, workerID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.GetWorkerSnapshot: %w", err)
	}
	return w, nil
}

func (r *Repository) ListSharing(ctx context.Context) ([]*WorkerSnapshot, error) {
	query := `
		SELECT ` + workerSnapshotColumns + `
		FROM users
		WHERE role IN ('WORKER', 'DRIVER')
		  AND is_on_duty = TRUE
		  AND live_is_sharing = TRUE
		  AND worker_status = 'active'`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListSharing.Query: %w", err)
	}
	defer rows.Close()

	var result []*WorkerSnapshot
	for rows.Next() {
		w, err := scanWorkerSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListSharing.Scan: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListSharing.Rows: %w", err)
	}
	return result, nil
}
