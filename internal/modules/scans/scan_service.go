package scans

import (
	"context"
	"fmt"
	"time"

	"ecocollect/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxScanAge is how long a stored scan remains bindable to a new order.
const MaxScanAge = 24 * time.Hour

// ServiceInterface is the scan store plus the binding operation used at
// order creation.
type ServiceInterface interface {
	Ingest(ctx context.Context, userID *string, req models.IngestScanRequest) (*models.ScanRecord, error)
	ListMyScans(ctx context.Context, userID string, page, limit int) ([]*models.ScanRecord, int, error)
	// Bind validates the referenced scan and returns the immutable snapshot
	// to embed in an order. It does NOT mark the scan converted; that
	// happens after the order row exists.
	Bind(ctx context.Context, scanID string) (*models.ScanSnapshot, error)
	MarkConverted(ctx context.Context, scanID, orderID, userID string) error
}

// Service implements ServiceInterface.
type Service struct {
	repo   RepositoryInterface
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewService creates a scan service.
func NewService(repo RepositoryInterface, logger *zap.SugaredLogger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Ingest persists an analysis result produced by the external AI service.
func (s *Service) Ingest(ctx context.Context, userID *string, req models.IngestScanRequest) (*models.ScanRecord, error) {
	scan := &models.ScanRecord{
		ID:                uuid.New().String(),
		UserID:            userID,
		Category:          req.Category,
		Recyclable:        req.Recyclable,
		EstimatedWeightKg: req.EstimatedWeightKg,
		Confidence:        req.Confidence,
		ImageURL:          req.ImageURL,
	}
	if err := s.repo.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("service.IngestScan: %w", err)
	}
	return scan, nil
}

func (s *Service) ListMyScans(ctx context.Context, userID string, page, limit int) ([]*models.ScanRecord, int, error) {
	return s.repo.ListByUserID(ctx, userID, page, limit)
}

// Bind copies the scan's classification fields into a snapshot. The order
// keeps only this copy, so later edits or deletion of the scan record
// never change an existing order.
func (s *Service) Bind(ctx context.Context, scanID string) (*models.ScanSnapshot, error) {
	scan, err := s.repo.FindByID(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if s.now().Sub(scan.CreatedAt) > MaxScanAge {
		return nil, models.ErrScanExpired
	}
	return &models.ScanSnapshot{
		ScanID:            scan.ID,
		Category:          scan.Category,
		Recyclable:        scan.Recyclable,
		EstimatedWeightKg: scan.EstimatedWeightKg,
		Confidence:        scan.Confidence,
		ScannedAt:         scan.CreatedAt,
	}, nil
}

func (s *Service) MarkConverted(ctx context.Context, scanID, orderID, userID string) error {
	if err := s.repo.MarkConverted(ctx, scanID, orderID, userID); err != nil {
		// The order already exists; a missing link is worth a log line but
		// must not fail the creation.
		s.logger.Warnw("failed to link scan to order", "scan_id", scanID, "order_id", orderID, "err", err)
		return err
	}
	return nil
}
