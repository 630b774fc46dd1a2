package email

import (
	"context"
	"strconv"

	"ecocollect/internal/models"

	"go.uber.org/zap"
)

// Recipient is a minimal address-book entry for a notification.
type Recipient struct {
	Email string
	Name  string
}

// RecipientLookup resolves a user ID to an email recipient.
type RecipientLookup interface {
	Recipient(ctx context.Context, userID string) (*Recipient, error)
}

// OrderSource resolves an order ID when the caller only has the ID.
type OrderSource interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
}

// Notifier sends order lifecycle emails. Every method is fire-and-forget:
// failures are logged and swallowed so a mail outage never blocks an order.
type Notifier struct {
	sender    ServiceInterface
	templates *TemplateManager
	users     RecipientLookup
	orders    OrderSource
	logger    *zap.SugaredLogger
}

// NewNotifier creates a notifier. sender may be nil in environments without
// SES credentials; every send becomes a no-op.
func NewNotifier(sender ServiceInterface, templates *TemplateManager, users RecipientLookup, orders OrderSource, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{sender: sender, templates: templates, users: users, orders: orders, logger: logger}
}

func (n *Notifier) send(ctx context.Context, userID, subject, text, html string) {
	if n.sender == nil {
		return
	}
	rcpt, err := n.users.Recipient(ctx, userID)
	if err != nil {
		n.logger.Warnw("notification recipient lookup failed", "userId", userID, "error", err)
		return
	}
	if err := n.sender.SendEmail(ctx, rcpt.Email, subject, text, html); err != nil {
		n.logger.Warnw("failed to send notification email", "to", rcpt.Email, "subject", subject, "error", err)
	}
}

func (n *Notifier) orderData(ctx context.Context, order *models.Order) (OrderTemplateData, bool) {
	rcpt, err := n.users.Recipient(ctx, order.UserID)
	if err != nil {
		n.logger.Warnw("notification recipient lookup failed", "userId", order.UserID, "error", err)
		return OrderTemplateData{}, false
	}
	return OrderTemplateData{
		Name:          rcpt.Name,
		OrderCode:     order.Code,
		ScheduledDate: order.ScheduledDate.Format("Mon, 02 Jan 2006"),
		ScheduledTime: order.ScheduledTime,
		EcoPoints:     order.EcoPointsEarned,
	}, true
}

// OrderPlaced emails the owner that their pickup is scheduled.
func (n *Notifier) OrderPlaced(ctx context.Context, order *models.Order) {
	if n.sender == nil {
		return
	}
	data, ok := n.orderData(ctx, order)
	if !ok {
		return
	}
	html, err := n.templates.GenerateOrderPlacedEmailHTML(data)
	if err != nil {
		n.logger.Warnw("failed to render order placed email", "orderId", order.ID, "error", err)
		return
	}
	n.send(ctx, order.UserID, "Your pickup is scheduled: "+order.Code, OrderPlacedText(data), html)
}

// OrderAssigned emails the owner that a collector has taken the order.
func (n *Notifier) OrderAssigned(ctx context.Context, order *models.Order, workerName string) {
	if n.sender == nil {
		return
	}
	data, ok := n.orderData(ctx, order)
	if !ok {
		return
	}
	data.WorkerName = workerName
	html, err := n.templates.GenerateWorkerAssignedEmailHTML(data)
	if err != nil {
		n.logger.Warnw("failed to render worker assigned email", "orderId", order.ID, "error", err)
		return
	}
	n.send(ctx, order.UserID, "A collector is assigned to "+order.Code, WorkerAssignedText(data), html)
}

// OrderAssignedByID is the ID-only variant used right after an assignment,
// where the caller holds nothing but the two IDs.
func (n *Notifier) OrderAssignedByID(ctx context.Context, orderID, workerID string) {
	if n.sender == nil || n.orders == nil {
		return
	}
	order, err := n.orders.FindByID(ctx, orderID)
	if err != nil {
		n.logger.Warnw("notification order lookup failed", "orderId", orderID, "error", err)
		return
	}
	workerName := "Your collector"
	if rcpt, err := n.users.Recipient(ctx, workerID); err == nil && rcpt.Name != "" {
		workerName = rcpt.Name
	}
	n.OrderAssigned(ctx, order, workerName)
}

// OrderCompleted emails the owner the completion summary.
func (n *Notifier) OrderCompleted(ctx context.Context, order *models.Order) {
	if n.sender == nil {
		return
	}
	data, ok := n.orderData(ctx, order)
	if !ok {
		return
	}
	if order.ActualQuantityKg != nil {
		data.RecycledKg = trimFloat(*order.ActualQuantityKg)
	} else {
		data.RecycledKg = trimFloat(order.EstimatedQuantityKg)
	}
	html, err := n.templates.GeneratePickupCompletedEmailHTML(data)
	if err != nil {
		n.logger.Warnw("failed to render completion email", "orderId", order.ID, "error", err)
		return
	}
	n.send(ctx, order.UserID, "Pickup completed: "+order.Code, PickupCompletedText(data), html)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
