package scans

import (
	"context"
	"errors"
	"fmt"

	"ecocollect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the scan store.
type RepositoryInterface interface {
	Create(ctx context.Context, scan *models.ScanRecord) error
	FindByID(ctx context.Context, scanID string) (*models.ScanRecord, error)
	ListByUserID(ctx context.Context, userID string, page, limit int) ([]*models.ScanRecord, int, error)
	// MarkConverted links a scan to the order created from it and, for
	// guest scans, attaches the ordering user.
	MarkConverted(ctx context.Context, scanID, orderID, userID string) error
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new scan repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, scan *models.ScanRecord) error {
	query := `
		INSERT INTO scans (id, user_id, category, recyclable, estimated_weight_kg, confidence, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		scan.ID, scan.UserID, scan.Category, scan.Recyclable,
		scan.EstimatedWeightKg, scan.Confidence, scan.ImageURL,
	).Scan(&scan.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateScan: %w", err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, scanID string) (*models.ScanRecord, error) {
	query := `
		SELECT id, user_id, category, recyclable, estimated_weight_kg, confidence,
		       image_url, converted_to_order, order_id, created_at, converted_at
		FROM scans
		WHERE id = $1`

	scan := &models.ScanRecord{}
	err := r.db.QueryRow(ctx, query, scanID).Scan(
		&scan.ID, &scan.UserID, &scan.Category, &scan.Recyclable,
		&scan.EstimatedWeightKg, &scan.Confidence, &scan.ImageURL,
		&scan.ConvertedToOrder, &scan.OrderID, &scan.CreatedAt, &scan.ConvertedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrScanNotFound
		}
		return nil, fmt.Errorf("repository.FindScanByID: %w", err)
	}
	return scan, nil
}

func (r *Repository) ListByUserID(ctx context.Context, userID string, page, limit int) ([]*models.ScanRecord, int, error) {
	offset := (page - 1) * limit
	query := `
		SELECT id, user_id, category, recyclable, estimated_weight_kg, confidence,
		       image_url, converted_to_order, order_id, created_at, converted_at
		FROM scans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListScans.Query: %w", err)
	}
	defer rows.Close()

	var scans []*models.ScanRecord
	for rows.Next() {
		scan := &models.ScanRecord{}
		if err := rows.Scan(
			&scan.ID, &scan.UserID, &scan.Category, &scan.Recyclable,
			&scan.EstimatedWeightKg, &scan.Confidence, &scan.ImageURL,
			&scan.ConvertedToOrder, &scan.OrderID, &scan.CreatedAt, &scan.ConvertedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("repository.ListScans.Scan: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListScans.Rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scans WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListScans.Count: %w", err)
	}
	return scans, total, nil
}

func (r *Repository) MarkConverted(ctx context.Context, scanID, orderID, userID string) error {
	query := `
		UPDATE scans
		SET converted_to_order = TRUE,
		    order_id = $2,
		    user_id = COALESCE(user_id, $3),
		    converted_at = NOW()
		WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, scanID, orderID, userID)
	if err != nil {
		return fmt.Errorf("repository.MarkConverted: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrScanNotFound
	}
	return nil
}
