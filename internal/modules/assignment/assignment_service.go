package assignment

import (
	"context"

	"ecocollect/internal/models"
	"ecocollect/pkg/geo"

	"go.uber.org/zap"
)

// DefaultDiscoveryRadiusKm bounds order discovery when the worker does not
// ask for a radius.
const DefaultDiscoveryRadiusKm = 10.0

// Notifier tells the order's owner a collector was assigned. Calls must
// never fail the assignment itself.
type Notifier interface {
	OrderAssignedByID(ctx context.Context, orderID, workerID string)
}

// ServiceInterface defines the contract for assignment business logic.
type ServiceInterface interface {
	// Discover lists claimable orders within radiusKm of the worker,
	// nearest first. area narrows results to a matching locality when
	// non-empty.
	Discover(ctx context.Context, workerID string, lat, lng, radiusKm float64, area string) ([]models.PendingOrderView, error)
	SelfAssign(ctx context.Context, workerID, orderID string) error
	AdminAssign(ctx context.Context, adminID, orderID, workerID string) error
}

// Service implements the ServiceInterface.
type Service struct {
	repo     RepositoryInterface
	notifier Notifier
	logger   *zap.SugaredLogger
}

// NewService creates a new assignment service. notifier may be nil.
func NewService(repo RepositoryInterface, notifier Notifier, logger *zap.SugaredLogger) ServiceInterface {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// checkWorker verifies the caller may take field work right now.
func (s *Service) checkWorker(ctx context.Context, workerID string, requireOnDuty bool) error {
	gate, err := s.repo.GetWorkerGate(ctx, workerID)
	if err != nil {
		return err
	}
	if !gate.Role.IsFieldRole() {
		return models.ErrForbidden
	}
	if gate.WorkerStatus != models.WorkerActive {
		return models.ErrWorkerInactive
	}
	if requireOnDuty && !gate.IsOnDuty {
		return models.ErrWorkerOffDuty
	}
	return nil
}

func (s *Service) Discover(ctx context.Context, workerID string, lat, lng, radiusKm float64, area string) ([]models.PendingOrderView, error) {
	if err := s.checkWorker(ctx, workerID, true); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = DefaultDiscoveryRadiusKm
	}

	pending, err := s.repo.ListPendingUnassigned(ctx, area)
	if err != nil {
		return nil, err
	}

	center := geo.Point{Lat: lat, Lng: lng}
	matches := geo.FindNearby(center, radiusKm, pending,
		func(o *ClaimableOrder) geo.Point {
			return geo.Point{Lat: o.Location.Lat, Lng: o.Location.Lng}
		},
		// Equidistant orders surface in schedule order.
		func(a, b *ClaimableOrder) bool {
			if !a.ScheduledDate.Equal(b.ScheduledDate) {
				return a.ScheduledDate.Before(b.ScheduledDate)
			}
			if a.ScheduledTime != b.ScheduledTime {
				return a.ScheduledTime < b.ScheduledTime
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})

	views := make([]models.PendingOrderView, 0, len(matches))
	for _, m := range matches {
		o := m.Item
		views = append(views, models.PendingOrderView{
			ID:                  o.ID,
			Code:                o.Code,
			CustomerName:        o.CustomerName,
			CustomerPhone:       o.CustomerPhone,
			WasteTypes:          o.WasteTypes,
			EstimatedQuantityKg: o.EstimatedQuantityKg,
			ScheduledDate:       o.ScheduledDate,
			ScheduledTime:       o.ScheduledTime,
			Location:            o.Location,
			ScanCategory:        o.ScanCategory,
			Notes:               o.Notes,
			DistanceKm:          geo.RoundKm(m.DistanceKm),
		})
	}
	return views, nil
}

func (s *Service) SelfAssign(ctx context.Context, workerID, orderID string) error {
	if err := s.checkWorker(ctx, workerID, true); err != nil {
		return err
	}
	if err := s.repo.SelfAssign(ctx, orderID, workerID); err != nil {
		return err
	}
	s.logger.Infow("order claimed", "orderId", orderID, "workerId", workerID)
	if s.notifier != nil {
		s.notifier.OrderAssignedByID(ctx, orderID, workerID)
	}
	return nil
}

// AdminAssign pushes an order to a worker. The target has to be an active
// field account currently on duty, same as a self-claim.
func (s *Service) AdminAssign(ctx context.Context, adminID, orderID, workerID string) error {
	if err := s.checkWorker(ctx, workerID, true); err != nil {
		return err
	}
	if err := s.repo.AdminAssign(ctx, orderID, workerID, adminID); err != nil {
		return err
	}
	s.logger.Infow("order assigned by admin", "orderId", orderID, "workerId", workerID, "adminId", adminID)
	if s.notifier != nil {
		s.notifier.OrderAssignedByID(ctx, orderID, workerID)
	}
	return nil
}
