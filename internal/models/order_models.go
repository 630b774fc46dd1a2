package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusAssigned  OrderStatus = "assigned"
	StatusInTransit OrderStatus = "in_transit"
	StatusArrived   OrderStatus = "arrived"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions leave this status.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// WasteType tags the kind of material to be collected.
type WasteType string

const (
	WastePlastic WasteType = "plastic"
	WastePaper   WasteType = "paper"
	WasteGlass   WasteType = "glass"
	WasteMetal   WasteType = "metal"
	WasteEwaste  WasteType = "ewaste"
	WasteOrganic WasteType = "organic"
	WasteMixed   WasteType = "mixed"
)

// Location is a pickup destination: free-text address fields plus coordinates.
type Location struct {
	Label    string  `json:"label,omitempty" db:"loc_label"`
	Street   string  `json:"street,omitempty" db:"loc_street"`
	Landmark string  `json:"landmark,omitempty" db:"loc_landmark"`
	Area     string  `json:"area,omitempty" db:"loc_area"`
	City     string  `json:"city,omitempty" db:"loc_city"`
	Pincode  string  `json:"pincode,omitempty" db:"loc_pincode"`
	Lat      float64 `json:"lat" db:"loc_lat"`
	Lng      float64 `json:"lng" db:"loc_lng"`
}

// ScanSnapshot is the immutable copy of AI-scan classification data embedded
// in an order at creation time. The live scan record is never consulted
// again once the snapshot is taken.
type ScanSnapshot struct {
	ScanID            string    `json:"scan_id" db:"scan_id"`
	Category          string    `json:"category" db:"scan_category"`
	Recyclable        bool      `json:"recyclable" db:"scan_recyclable"`
	EstimatedWeightKg float64   `json:"estimated_weight_kg" db:"scan_estimated_weight"`
	Confidence        float64   `json:"confidence" db:"scan_confidence"`
	ScannedAt         time.Time `json:"scanned_at" db:"scan_scanned_at"`
}

// StatusEvent is one entry of an order's append-only status history.
type StatusEvent struct {
	ID      int64       `json:"-" db:"id"`
	OrderID string      `json:"-" db:"order_id"`
	Status  OrderStatus `json:"status" db:"status"`
	Note    string      `json:"note,omitempty" db:"note"`
	ActorID *string     `json:"actor_id,omitempty" db:"actor_id"`
	At      time.Time   `json:"at" db:"created_at"`
}

// Order is a pickup request. At most one worker is assigned at any time;
// AssignedWorker is non-nil only in assigned, in_transit, arrived or
// completed states.
type Order struct {
	ID     string `json:"id" db:"id"`
	Code   string `json:"code" db:"code"`
	UserID string `json:"user_id" db:"user_id"`

	WasteTypes          []WasteType      `json:"waste_types" db:"waste_types"`
	EstimatedQuantityKg float64          `json:"estimated_quantity_kg" db:"estimated_quantity_kg"`
	ActualQuantityKg    *float64         `json:"actual_quantity_kg,omitempty" db:"actual_quantity_kg"`
	EstimatedValue      decimal.Decimal  `json:"estimated_value" db:"estimated_value"`
	ActualValue         *decimal.Decimal `json:"actual_value,omitempty" db:"actual_value"`
	EcoPointsEarned     int              `json:"eco_points_earned" db:"eco_points_earned"`

	ScheduledDate time.Time `json:"scheduled_date" db:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time" db:"scheduled_time"`
	Location      Location  `json:"location"`
	Notes         string    `json:"notes,omitempty" db:"notes"`

	Scan ScanSnapshot `json:"scan_data"`

	Status         OrderStatus `json:"status" db:"status"`
	AssignedWorker *string     `json:"assigned_worker,omitempty" db:"assigned_worker"`

	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	PickedUpAt         *time.Time `json:"picked_up_at,omitempty" db:"picked_up_at"`
	ArrivedAt          *time.Time `json:"arrived_at,omitempty" db:"arrived_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`

	RatingScore    *int       `json:"rating_score,omitempty" db:"rating_score"`
	RatingFeedback *string    `json:"rating_feedback,omitempty" db:"rating_feedback"`
	RatedAt        *time.Time `json:"rated_at,omitempty" db:"rated_at"`

	CompletionPhotos []string `json:"completion_photos,omitempty" db:"completion_photos"`

	StatusHistory []StatusEvent `json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest is the body for placing a pickup order. A fresh scan
// reference is mandatory.
type CreateOrderRequest struct {
	WasteTypes          []string        `json:"waste_types" validate:"required,min=1,dive,oneof=plastic paper glass metal ewaste organic mixed"`
	EstimatedQuantityKg float64         `json:"estimated_quantity_kg" validate:"required,gt=0"`
	ScheduledDate       string          `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime       string          `json:"scheduled_time" validate:"required"`
	Location            LocationRequest `json:"location" validate:"required"`
	ScanData            ScanReference   `json:"scan_data" validate:"required"`
	Notes               string          `json:"notes,omitempty"`
}

// LocationRequest mirrors Location for request binding with validation.
type LocationRequest struct {
	Label    string  `json:"label,omitempty"`
	Street   string  `json:"street,omitempty"`
	Landmark string  `json:"landmark,omitempty"`
	Area     string  `json:"area,omitempty"`
	City     string  `json:"city,omitempty"`
	Pincode  string  `json:"pincode,omitempty"`
	Lat      float64 `json:"lat" validate:"required,latitude"`
	Lng      float64 `json:"lng" validate:"required,longitude"`
}

// ScanReference names the scan record an order is created from.
type ScanReference struct {
	ScanID string `json:"scan_id" validate:"required,uuid4"`
}

// CancelOrderRequest carries the optional cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// RateOrderRequest is the owner's rating after completion.
type RateOrderRequest struct {
	Score    int    `json:"score" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"omitempty,max=1000"`
}

// UpdateOrderStatusRequest is posted by the assigned worker (or an admin)
// to advance an order through its lifecycle. Completion details are only
// honored on the transition to completed.
type UpdateOrderStatusRequest struct {
	Status           string   `json:"status" validate:"required,oneof=confirmed assigned in_transit arrived completed cancelled"`
	Note             string   `json:"note,omitempty" validate:"omitempty,max=500"`
	ActualQuantityKg *float64 `json:"actual_quantity_kg,omitempty" validate:"omitempty,gt=0"`
	ActualValue      *float64 `json:"actual_value,omitempty" validate:"omitempty,gte=0"`
	Photos           []string `json:"photos,omitempty"`
}

// AssignOrderRequest is the admin payload for pushing an order to a worker.
type AssignOrderRequest struct {
	WorkerID string `json:"worker_id" validate:"required,uuid4"`
}

// OrderStats aggregates a user's order history.
type OrderStats struct {
	TotalOrders     int             `json:"total_orders"`
	CompletedOrders int             `json:"completed_orders"`
	TotalRecycledKg float64         `json:"total_recycled_kg"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalEcoPoints  int             `json:"total_eco_points"`
}
