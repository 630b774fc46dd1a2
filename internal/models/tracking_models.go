package models

import "time"

// WorkerPublicInfo is the subset of a worker's identity exposed to the
// customer who is tracking their order.
type WorkerPublicInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	EmployeeID    string  `json:"employee_id"`
	VehicleNumber string  `json:"vehicle_number,omitempty"`
	VehicleType   string  `json:"vehicle_type,omitempty"`
	Rating        float64 `json:"rating"`
}

// LivePosition is the worker position included in a tracking view when the
// worker is sharing their location.
type LivePosition struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Heading   float64    `json:"heading"`
	SpeedKmh  float64    `json:"speed"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// LiveTracking reports availability of a live position plus the derived
// distance and ETA. ETA assumes a flat average travel speed, not a route.
type LiveTracking struct {
	Available  bool          `json:"available"`
	Message    string        `json:"message,omitempty"`
	Position   *LivePosition `json:"position,omitempty"`
	DistanceKm *float64      `json:"distance_km,omitempty"`
	EtaMinutes *int          `json:"eta_minutes,omitempty"`
}

// TrackingView is the customer-facing answer to "where is my pickup".
type TrackingView struct {
	Order    *Order            `json:"order"`
	Worker   *WorkerPublicInfo `json:"worker,omitempty"`
	Tracking *LiveTracking     `json:"live_tracking,omitempty"`
}

// NearbyWorker is a worker returned by the public nearby lookup.
type NearbyWorker struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Role          Role       `json:"role"`
	EmployeeID    string     `json:"employee_id"`
	VehicleType   string     `json:"vehicle_type,omitempty"`
	Rating        float64    `json:"rating"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	Heading       float64    `json:"heading"`
	SpeedKmh      float64    `json:"speed"`
	DistanceKm    float64    `json:"distance_km"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

// PendingOrderView is an unclaimed order offered to a worker during
// discovery, with its distance from the worker's position.
type PendingOrderView struct {
	ID                  string      `json:"id"`
	Code                string      `json:"code"`
	CustomerName        string      `json:"customer_name"`
	CustomerPhone       string      `json:"customer_phone"`
	WasteTypes          []WasteType `json:"waste_types"`
	EstimatedQuantityKg float64     `json:"estimated_quantity_kg"`
	ScheduledDate       time.Time   `json:"scheduled_date"`
	ScheduledTime       string      `json:"scheduled_time"`
	Location            Location    `json:"location"`
	ScanCategory        string      `json:"scan_category,omitempty"`
	Notes               string      `json:"notes,omitempty"`
	DistanceKm          float64     `json:"distance_km"`
}
