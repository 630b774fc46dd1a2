package orders

import (
	"context"
	"fmt"
	"math"
	"time"

	"ecocollect/internal/models"
	"ecocollect/internal/modules/scans"
	"ecocollect/internal/modules/subscription"
	"ecocollect/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Per-kilogram payout rates in rupees.
var wasteRatePerKg = map[models.WasteType]float64{
	models.WastePlastic: 5,
	models.WastePaper:   8,
	models.WasteGlass:   3,
	models.WasteMetal:   25,
	models.WasteEwaste:  50,
	models.WasteOrganic: 2,
	models.WasteMixed:   5,
}

const ecoPointsPerKg = 2

// WorkerRater folds an order rating into the worker's running average.
type WorkerRater interface {
	ApplyRating(ctx context.Context, workerID string, score int) error
}

// Notifier sends lifecycle emails. Implementations must be safe to call
// concurrently; failures are logged, never surfaced to the caller.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderCompleted(ctx context.Context, order *models.Order)
}

// ServiceInterface defines the contract for order business logic.
type ServiceInterface interface {
	Create(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, userID string, role models.Role, orderID string) (*models.Order, error)
	ListMyOrders(ctx context.Context, userID string, status *models.OrderStatus, page, limit int) ([]*models.Order, int, error)
	ListAllOrders(ctx context.Context, filter AdminListFilter, page, limit int) ([]*models.Order, int, error)
	ListWorkerOrders(ctx context.Context, workerID string, activeOnly bool) ([]*models.Order, error)
	Cancel(ctx context.Context, userID, orderID, reason string) error
	Rate(ctx context.Context, userID, orderID string, req models.RateOrderRequest) error
	UpdateStatus(ctx context.Context, actorID string, actorRole models.Role, orderID string, req models.UpdateOrderStatusRequest) (*models.Order, error)
	Stats(ctx context.Context, userID string) (*models.OrderStats, error)
}

// Service implements the ServiceInterface.
type Service struct {
	repo     RepositoryInterface
	scans    scans.ServiceInterface
	gate     subscription.GateInterface
	rater    WorkerRater
	notifier Notifier
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewService creates a new order service. notifier may be nil.
func NewService(repo RepositoryInterface, scanSvc scans.ServiceInterface, gate subscription.GateInterface, rater WorkerRater, notifier Notifier, logger *zap.SugaredLogger) ServiceInterface {
	return &Service{
		repo:     repo,
		scans:    scanSvc,
		gate:     gate,
		rater:    rater,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// EstimateValue prices a pickup as the average rate of the requested waste
// types times the estimated weight, rounded to the rupee.
func EstimateValue(types []models.WasteType, quantityKg float64) decimal.Decimal {
	if len(types) == 0 {
		return decimal.Zero
	}
	var sum float64
	for _, w := range types {
		sum += wasteRatePerKg[w]
	}
	avg := sum / float64(len(types))
	return decimal.NewFromFloat(avg * quantityKg).Round(0)
}

// EcoPointsFor returns the points earned for a pickup of the given weight.
func EcoPointsFor(quantityKg float64) int {
	return int(math.Round(quantityKg * ecoPointsPerKg))
}

// Create places a pickup order. The quota unit is consumed first and
// released again if anything after it fails, so a rejected order never
// burns quota.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	decision, err := s.gate.Consume(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.scans.Bind(ctx, req.ScanData.ScanID)
	if err != nil {
		s.release(ctx, decision)
		return nil, err
	}

	// Format already enforced by request validation.
	scheduledDate, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		s.release(ctx, decision)
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	wasteTypes := make([]models.WasteType, len(req.WasteTypes))
	for i, w := range req.WasteTypes {
		wasteTypes[i] = models.WasteType(w)
	}

	code, err := utils.GenerateOrderCode(s.now())
	if err != nil {
		s.release(ctx, decision)
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	order := &models.Order{
		ID:                  uuid.NewString(),
		Code:                code,
		UserID:              userID,
		WasteTypes:          wasteTypes,
		EstimatedQuantityKg: req.EstimatedQuantityKg,
		EstimatedValue:      EstimateValue(wasteTypes, req.EstimatedQuantityKg),
		EcoPointsEarned:     EcoPointsFor(req.EstimatedQuantityKg),
		ScheduledDate:       scheduledDate,
		ScheduledTime:       req.ScheduledTime,
		Location: models.Location{
			Label:    req.Location.Label,
			Street:   req.Location.Street,
			Landmark: req.Location.Landmark,
			Area:     req.Location.Area,
			City:     req.Location.City,
			Pincode:  req.Location.Pincode,
			Lat:      req.Location.Lat,
			Lng:      req.Location.Lng,
		},
		Notes: req.Notes,
		Scan:  *snapshot,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.release(ctx, decision)
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	// Best effort: the order exists either way.
	s.scans.MarkConverted(ctx, snapshot.ScanID, order.ID, userID)

	s.logger.Infow("order placed",
		"orderId", order.ID, "code", order.Code, "userId", userID,
		"quotaUsed", decision.OrdersUsed, "quotaLimit", decision.MonthlyLimit)

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, order)
	}
	return order, nil
}

func (s *Service) release(ctx context.Context, d *subscription.Decision) {
	if err := s.gate.Release(ctx, d); err != nil {
		s.logger.Warnw("failed to release quota unit", "userId", d.UserID, "period", d.Period, "error", err)
	}
}

// GetOrder fetches one order. Admins see everything; otherwise only the
// owner and the assigned worker may read it.
func (s *Service) GetOrder(ctx context.Context, userID string, role models.Role, orderID string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin || order.UserID == userID {
		return order, nil
	}
	if order.AssignedWorker != nil && *order.AssignedWorker == userID {
		return order, nil
	}
	return nil, models.ErrNotFound
}

func (s *Service) ListMyOrders(ctx context.Context, userID string, status *models.OrderStatus, page, limit int) ([]*models.Order, int, error) {
	return s.repo.ListByUserID(ctx, userID, status, page, limit)
}

func (s *Service) ListAllOrders(ctx context.Context, filter AdminListFilter, page, limit int) ([]*models.Order, int, error) {
	return s.repo.ListAll(ctx, filter, page, limit)
}

func (s *Service) ListWorkerOrders(ctx context.Context, workerID string, activeOnly bool) ([]*models.Order, error) {
	return s.repo.ListByWorker(ctx, workerID, activeOnly)
}

// Cancel lets the owner cancel a pickup that no worker has taken yet.
// Cancelling does not refund the quota unit; the monthly limit counts
// orders placed, not orders fulfilled.
func (s *Service) Cancel(ctx context.Context, userID, orderID, reason string) error {
	if err := s.repo.Cancel(ctx, orderID, userID, reason); err != nil {
		return err
	}
	s.logger.Infow("order cancelled", "orderId", orderID, "userId", userID)
	return nil
}

// Rate records the owner's one-time rating of a completed pickup and folds
// it into the worker's average.
func (s *Service) Rate(ctx context.Context, userID, orderID string, req models.RateOrderRequest) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return models.ErrNotFound
	}
	if order.Status != models.StatusCompleted {
		return models.ErrOrderNotCompleted
	}
	if order.RatingScore != nil {
		return models.ErrAlreadyRated
	}

	if err := s.repo.AddRating(ctx, orderID, req.Score, req.Feedback); err != nil {
		return err
	}

	if order.AssignedWorker != nil && s.rater != nil {
		if err := s.rater.ApplyRating(ctx, *order.AssignedWorker, req.Score); err != nil {
			s.logger.Warnw("failed to update worker rating", "workerId", *order.AssignedWorker, "error", err)
		}
	}
	return nil
}

// UpdateStatus advances an order along its lifecycle. The actor is the
// assigned worker or an admin. Completion carries the actuals, credits the
// assigned worker, and runs as a single transaction in the repository.
func (s *Service) UpdateStatus(ctx context.Context, actorID string, actorRole models.Role, orderID string, req models.UpdateOrderStatusRequest) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Admins may drive any order; workers only the one assigned to them.
	if actorRole != models.RoleAdmin {
		if order.AssignedWorker == nil || *order.AssignedWorker != actorID {
			return nil, models.ErrForbidden
		}
	}

	target := models.OrderStatus(req.Status)
	if err := ValidateTransition(order.Status, target); err != nil {
		return nil, err
	}

	if target == models.StatusCompleted {
		if order.AssignedWorker == nil {
			return nil, models.ErrIllegalTransition
		}
		upd := CompletionUpdate{
			OrderID:          orderID,
			WorkerID:         *order.AssignedWorker,
			ActorID:          actorID,
			Note:             req.Note,
			ActualQuantityKg: req.ActualQuantityKg,
			Photos:           req.Photos,
		}
		if req.ActualValue != nil {
			v := decimal.NewFromFloat(*req.ActualValue).Round(2)
			upd.ActualValue = &v
		}
		if err := s.repo.Complete(ctx, upd); err != nil {
			return nil, err
		}
	} else {
		note := req.Note
		if note == "" {
			note = statusNote(target)
		}
		if err := s.repo.AdvanceStatus(ctx, orderID, order.Status, target, note, actorID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("order status updated",
		"orderId", orderID, "actorId", actorID, "from", order.Status, "to", target)

	if target == models.StatusCompleted && s.notifier != nil {
		s.notifier.OrderCompleted(ctx, updated)
	}
	return updated, nil
}

func statusNote(status models.OrderStatus) string {
	switch status {
	case models.StatusInTransit:
		return "Worker is on the way"
	case models.StatusArrived:
		return "Worker arrived at pickup location"
	default:
		return "Status updated"
	}
}

func (s *Service) Stats(ctx context.Context, userID string) (*models.OrderStats, error) {
	return s.repo.StatsByUser(ctx, userID)
}
