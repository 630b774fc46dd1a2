package users

import (
	"context"
	"errors"
	"fmt"

	"ecocollect/internal/models"
	"ecocollect/pkg/email"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, name, phone, role, auth_provider, is_active,
	plan, sub_status, sub_started_at, sub_expires_at,
	eco_points, total_orders, completed_orders, total_recycled_kg,
	COALESCE(employee_id, ''), COALESCE(vehicle_number, ''), COALESCE(vehicle_type, ''),
	COALESCE(assigned_area, ''), is_on_duty, worker_status, completed_jobs,
	worker_rating, total_ratings,
	live_lat, live_lng, live_heading, live_speed, live_accuracy, live_is_sharing, live_updated_at,
	created_at, updated_at`

// RepositoryInterface defines the contract for the user store.
type RepositoryInterface interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error)
	// Recipient implements the email notifier's address lookup.
	Recipient(ctx context.Context, userID string) (*email.Recipient, error)

	// Addresses
	ListAddresses(ctx context.Context, userID string) ([]models.Address, error)
	AddAddress(ctx context.Context, addr *models.Address) error
	UpdateAddress(ctx context.Context, userID, addressID string, req models.UpdateAddressRequest) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error

	// Workers
	CreateWorker(ctx context.Context, user *models.User) error
	ListWorkers(ctx context.Context, area string, page, limit int) ([]*models.User, int, error)
	SetWorkerStatus(ctx context.Context, workerID string, status models.WorkerStatus) error
	// ApplyRating folds one score into the worker's running average.
	ApplyRating(ctx context.Context, workerID string, score int) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new user repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// scanUser is a helper to scan a row into a User model.
func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u      models.User
		worker models.WorkerInfo
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.AuthProvider, &u.IsActive,
		&u.Subscription.Plan, &u.Subscription.Status, &u.Subscription.StartedAt, &u.Subscription.ExpiresAt,
		&u.Stats.EcoPoints, &u.Stats.TotalOrders, &u.Stats.CompletedOrders, &u.Stats.TotalRecycledKg,
		&worker.EmployeeID, &worker.VehicleNumber, &worker.VehicleType,
		&worker.AssignedArea, &worker.IsOnDuty, &worker.Status, &worker.CompletedJobs,
		&worker.Rating, &worker.TotalRatings,
		&worker.Live.Lat, &worker.Live.Lng, &worker.Live.Heading, &worker.Live.SpeedKmh,
		&worker.Live.Accuracy, &worker.Live.IsSharing, &worker.Live.UpdatedAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if u.Role.IsFieldRole() {
		u.Worker = &worker
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, phone, role, auth_provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Phone, user.Role, user.AuthProvider,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateUser: %w", err)
	}
	user.Subscription = models.Subscription{Plan: models.PlanFree, Status: models.SubscriptionInactive}
	user.IsActive = true
	return nil
}

func (r *Repository) FindByEmail(ctx context.Context, emailAddr string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, emailAddr))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *Repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return user, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    phone = COALESCE($3, phone),
		    updated_at = NOW()
		WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, userID, data.Name, data.Phone)
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateProfile: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}
	return r.FindByID(ctx, userID)
}

func (r *Repository) Recipient(ctx context.Context, userID string) (*email.Recipient, error) {
	var rcpt email.Recipient
	err := r.db.QueryRow(ctx, `SELECT email, name FROM users WHERE id = $1`, userID).
		Scan(&rcpt.Email, &rcpt.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Recipient: %w", err)
	}
	return &rcpt, nil
}

const addressColumns = `id, user_id, label, street, landmark, area, city, pincode, lat, lng, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*models.Address, error) {
	var a models.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.Landmark, &a.Area,
		&a.City, &a.Pincode, &a.Lat, &a.Lng, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan address: %w", err)
	}
	return &a, nil
}

func (r *Repository) ListAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListAddresses.Query: %w", err)
	}
	defer rows.Close()

	var result []models.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListAddresses.Scan: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListAddresses.Rows: %w", err)
	}
	return result, nil
}

// AddAddress inserts an address; marking it default demotes the previous
// default in the same transaction.
func (r *Repository) AddAddress(ctx context.Context, addr *models.Address) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.AddAddress.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if addr.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, addr.UserID); err != nil {
			return fmt.Errorf("repository.AddAddress.ClearDefault: %w", err)
		}
	}

	query := `
		INSERT INTO addresses (id, user_id, label, street, landmark, area, city, pincode, lat, lng, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		addr.ID, addr.UserID, addr.Label, addr.Street, addr.Landmark, addr.Area,
		addr.City, addr.Pincode, addr.Lat, addr.Lng, addr.IsDefault,
	).Scan(&addr.CreatedAt, &addr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.AddAddress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.AddAddress.Commit: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAddress(ctx context.Context, userID, addressID string, req models.UpdateAddressRequest) (*models.Address, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateAddress.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if req.IsDefault != nil && *req.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, userID); err != nil {
			return nil, fmt.Errorf("repository.UpdateAddress.ClearDefault: %w", err)
		}
	}

	query := `
		UPDATE addresses
		SET label = COALESCE(NULLIF($3, ''), label),
		    street = COALESCE(NULLIF($4, ''), street),
		    landmark = COALESCE(NULLIF($5, ''), landmark),
		    area = COALESCE(NULLIF($6, ''), area),
		    city = COALESCE(NULLIF($7, ''), city),
		    pincode = COALESCE(NULLIF($8, ''), pincode),
		    is_default = COALESCE($9, is_default),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2`
	cmdTag, err := tx.Exec(ctx, query, addressID, userID,
		req.Label, req.Street, req.Landmark, req.Area, req.City, req.Pincode, req.IsDefault)
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateAddress: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	addr, err := scanAddress(tx.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, addressID))
	if err != nil {
		return nil, fmt.Errorf("repository.UpdateAddress.Reload: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.UpdateAddress.Commit: %w", err)
	}
	return addr, nil
}

func (r *Repository) DeleteAddress(ctx context.Context, userID, addressID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("repository.DeleteAddress: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateWorker(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, phone, role, auth_provider,
		                   employee_id, vehicle_number, vehicle_type, assigned_area, worker_status)
		VALUES ($1, $2, $3, $4, $5, $6, 'local', $7, $8, $9, $10, 'active')
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Phone, user.Role,
		user.Worker.EmployeeID, user.Worker.VehicleNumber, user.Worker.VehicleType, user.Worker.AssignedArea,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateWorker: %w", err)
	}
	user.Worker.Status = models.WorkerActive
	user.Worker.Rating = 5.0
	user.IsActive = true
	return nil
}

func (r *Repository) ListWorkers(ctx context.Context, area string, page, limit int) ([]*models.User, int, error) {
	offset := (page - 1) * limit
	where := `role IN ('WORKER', 'DRIVER')`
	args := []interface{}{}
	if area != "" {
		args = append(args, "%"+area+"%")
		where += fmt.Sprintf(" AND assigned_area ILIKE $%d", len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListWorkers.Count: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListWorkers.Query: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListWorkers.Scan: %w", err)
		}
		user.PasswordHash = ""
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListWorkers.Rows: %w", err)
	}
	return result, total, nil
}

func (r *Repository) SetWorkerStatus(ctx context.Context, workerID string, status models.WorkerStatus) error {
	query := `
		UPDATE users
		SET worker_status = $2, updated_at = NOW()
		WHERE id = $1 AND role IN ('WORKER', 'DRIVER')`
	cmdTag, err := r.db.Exec(ctx, query, workerID, status)
	if err != nil {
		return fmt.Errorf("repository.SetWorkerStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplyRating recomputes the running average in one statement so concurrent
// ratings never lose an increment.
func (r *Repository) ApplyRating(ctx context.Context, workerID string, score int) error {
	query := `
		UPDATE users
		SET worker_rating = (worker_rating * total_ratings + $2) / (total_ratings + 1),
		    total_ratings = total_ratings + 1,
		    updated_at = NOW()
		WHERE id = $1 AND role IN ('WORKER', 'DRIVER')`
	cmdTag, err := r.db.Exec(ctx, query, workerID, float64(score))
	if err != nil {
		return fmt.Errorf("repository.ApplyRating: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
