package tracking

import (
	"context"
	"math"

	"ecocollect/internal/models"
	"ecocollect/pkg/geo"

	"go.uber.org/zap"
)

// AverageSpeedKmh is the flat travel speed the ETA estimate assumes.
const AverageSpeedKmh = 25.0

// DefaultNearbyRadiusKm bounds the public nearby-workers lookup.
const DefaultNearbyRadiusKm = 5.0

// OrderGetter is the slice of the order store the tracking service needs.
type OrderGetter interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
}

// ServiceInterface defines the contract for live tracking.
type ServiceInterface interface {
	Report(ctx context.Context, workerID string, req models.LiveLocationRequest) error
	SetDuty(ctx context.Context, workerID string, onDuty bool) error
	// Track answers "where is my pickup" for the order's owner.
	Track(ctx context.Context, userID, orderID string) (*models.TrackingView, error)
	NearbyWorkers(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyWorker, error)
}

// Service implements the ServiceInterface.
type Service struct {
	repo   RepositoryInterface
	orders OrderGetter
	logger *zap.SugaredLogger
}

// NewService creates a new tracking service.
func NewService(repo RepositoryInterface, orders OrderGetter, logger *zap.SugaredLogger) ServiceInterface {
	return &Service{repo: repo, orders: orders, logger: logger}
}

func (s *Service) Report(ctx context.Context, workerID string, req models.LiveLocationRequest) error {
	return s.repo.UpdateLive(ctx, workerID, req)
}

func (s *Service) SetDuty(ctx context.Context, workerID string, onDuty bool) error {
	if err := s.repo.SetDuty(ctx, workerID, onDuty); err != nil {
		return err
	}
	s.logger.Infow("duty status changed", "workerId", workerID, "onDuty", onDuty)
	return nil
}

// EtaMinutes estimates travel time for a distance at the flat average speed.
func EtaMinutes(distanceKm float64) int {
	return int(math.Round(distanceKm / AverageSpeedKmh * 60))
}

func (s *Service) Track(ctx context.Context, userID, orderID string) (*models.TrackingView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.ErrNotFound
	}

	view := &models.TrackingView{Order: order}
	if order.AssignedWorker == nil || order.Status.Terminal() {
		view.Tracking = &models.LiveTracking{Available: false, Message: "No worker en route for this order"}
		return view, nil
	}

	worker, err := s.repo.GetWorkerSnapshot(ctx, *order.AssignedWorker)
	if err != nil {
		return nil, err
	}
	view.Worker = &worker.Info

	if !worker.IsOnDuty || !worker.Live.IsSharing {
		view.Tracking = &models.LiveTracking{Available: false, Message: "Worker location is not being shared right now"}
		return view, nil
	}

	distance := geo.RoundKm(geo.Haversine(
		geo.Point{Lat: worker.Live.Lat, Lng: worker.Live.Lng},
		geo.Point{Lat: order.Location.Lat, Lng: order.Location.Lng},
	))
	eta := EtaMinutes(distance)
	view.Tracking = &models.LiveTracking{
		Available: true,
		Position: &models.LivePosition{
			Lat:       worker.Live.Lat,
			Lng:       worker.Live.Lng,
			Heading:   worker.Live.Heading,
			SpeedKmh:  worker.Live.SpeedKmh,
			UpdatedAt: worker.Live.UpdatedAt,
		},
		DistanceKm: &distance,
		EtaMinutes: &eta,
	}
	return view, nil
}

func (s *Service) NearbyWorkers(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyWorker, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	sharing, err := s.repo.ListSharing(ctx)
	if err != nil {
		return nil, err
	}

	center := geo.Point{Lat: lat, Lng: lng}
	matches := geo.FindNearby(center, radiusKm, sharing,
		func(w *WorkerSnapshot) geo.Point {
			return geo.Point{Lat: w.Live.Lat, Lng: w.Live.Lng}
		},
		func(a, b *WorkerSnapshot) bool { return a.Info.ID < b.Info.ID })

	out := make([]models.NearbyWorker, 0, len(matches))
	for _, m := range matches {
		w := m.Item
		out = append(out, models.NearbyWorker{
			ID:            w.Info.ID,
			Name:          w.Info.Name,
			Role:          w.Role,
			EmployeeID:    w.Info.EmployeeID,
			VehicleType:   w.Info.VehicleType,
			Rating:        w.Info.Rating,
			Lat:           w.Live.Lat,
			Lng:           w.Live.Lng,
			Heading:       w.Live.Heading,
			SpeedKmh:      w.Live.SpeedKmh,
			DistanceKm:    geo.RoundKm(m.DistanceKm),
			LastUpdatedAt: w.Live.UpdatedAt,
		})
	}
	return out, nil
}
