package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the caller is authenticated but not
	// allowed to perform the operation (not the owner, not the assigned
	// worker, wrong role).
	ErrForbidden = errors.New("operation not permitted")

	// ErrConflict is returned when a unique constraint would be violated,
	// e.g. signing up with an email that is already registered.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned when an OAuth exchange or token lookup fails.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrSubscriptionRequired is returned when a FREE-plan user tries to
	// place an order. Scanning is free, order scheduling is not.
	ErrSubscriptionRequired = errors.New("an active subscription is required to place orders")

	// ErrSubscriptionInactive is returned when the user's subscription
	// exists but is expired or cancelled.
	ErrSubscriptionInactive = errors.New("subscription is not active")

	// ErrQuotaExceeded is returned when the user has already placed the
	// monthly number of orders their plan allows.
	ErrQuotaExceeded = errors.New("monthly order limit reached")

	// ErrScanNotFound is returned when the scan referenced at order
	// creation does not exist.
	ErrScanNotFound = errors.New("scan record not found")

	// ErrScanExpired is returned when the referenced scan is older than
	// the binding window (24 hours).
	ErrScanExpired = errors.New("scan has expired, please scan the waste again")

	// ErrOrderUnavailable is returned when a self-assign attempt loses the
	// race: the order exists but is no longer pending and unassigned.
	// Deliberately distinct from ErrNotFound so the worker can re-discover.
	ErrOrderUnavailable = errors.New("order is no longer available")

	// ErrIllegalTransition is returned when a status change is not allowed
	// by the order lifecycle.
	ErrIllegalTransition = errors.New("illegal order status transition")

	// ErrOrderNotCancellable is returned when cancelling an order that has
	// progressed past the cancellable states.
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")

	// ErrOrderNotCompleted is returned when rating an order that is not
	// completed yet.
	ErrOrderNotCompleted = errors.New("only completed orders can be rated")

	// ErrAlreadyRated is returned when an order already carries a rating.
	ErrAlreadyRated = errors.New("order has already been rated")

	// ErrWorkerOffDuty is returned when an off-duty worker tries to
	// discover or claim work.
	ErrWorkerOffDuty = errors.New("worker is not on duty")

	// ErrWorkerInactive is returned when the worker's operational status
	// is not active (inactive or suspended).
	ErrWorkerInactive = errors.New("worker account is not active")
)

// ErrorResponse is the generic JSON error body returned to clients.
type ErrorResponse struct {
	Message string `json:"message"`
}
