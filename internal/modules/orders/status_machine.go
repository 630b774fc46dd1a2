package orders

import "ecocollect/internal/models"

// transitions is the complete order lifecycle. Cancellation is only
// reachable while no worker has committed to the pickup; once assigned,
// the order can only move forward (an admin can still reassign it).
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusAssigned, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusAssigned, models.StatusCancelled},
	models.StatusAssigned:  {models.StatusInTransit},
	models.StatusInTransit: {models.StatusArrived},
	models.StatusArrived:   {models.StatusCompleted},
	models.StatusCompleted: nil,
	models.StatusCancelled: nil,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns models.ErrIllegalTransition for a move the
// lifecycle does not allow. Unknown statuses are always illegal.
func ValidateTransition(from, to models.OrderStatus) error {
	if _, known := transitions[from]; !known {
		return models.ErrIllegalTransition
	}
	if _, known := transitions[to]; !known {
		return models.ErrIllegalTransition
	}
	if !CanTransition(from, to) {
		return models.ErrIllegalTransition
	}
	return nil
}
