package models

import "time"

// Role identifies what a user is allowed to do. Workers and drivers are the
// field roles that collect pickups; admins manage the fleet and orders.
type Role string

const (
	RoleUser   Role = "USER"
	RoleWorker Role = "WORKER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// IsFieldRole reports whether the role collects pickups in the field.
func (r Role) IsFieldRole() bool {
	return r == RoleWorker || r == RoleDriver
}

// WorkerStatus is a worker's operational status set by an admin.
type WorkerStatus string

const (
	WorkerActive    WorkerStatus = "active"
	WorkerInactive  WorkerStatus = "inactive"
	WorkerSuspended WorkerStatus = "suspended"
)

// Plan is a subscription tier. FREE users may scan but not place orders.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanBasic      Plan = "BASIC"
	PlanPremium    Plan = "PREMIUM"
	PlanEnterprise Plan = "ENTERPRISE"
)

// MonthlyOrderLimit returns the number of orders the plan allows per
// calendar month.
func (p Plan) MonthlyOrderLimit() int {
	switch p {
	case PlanBasic:
		return 5
	case PlanPremium:
		return 20
	case PlanEnterprise:
		return 999
	default:
		return 0
	}
}

// SubscriptionStatus tracks whether a paid plan is currently usable.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// User represents any account on the platform: customers, workers, drivers
// and admins share one table, distinguished by Role.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name,omitempty" db:"name"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Role         Role      `json:"role" db:"role"`
	AuthProvider string    `json:"auth_provider" db:"auth_provider"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Subscription Subscription `json:"subscription"`
	Stats        UserStats    `json:"stats"`

	// Worker is populated only for field roles.
	Worker *WorkerInfo `json:"worker,omitempty"`
}

// Subscription is the user's current plan state.
type Subscription struct {
	Plan      Plan               `json:"plan" db:"plan"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	StartedAt *time.Time         `json:"started_at,omitempty" db:"started_at"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty" db:"expires_at"`
}

// UserStats are running aggregates credited when orders complete.
type UserStats struct {
	EcoPoints       int     `json:"eco_points" db:"eco_points"`
	TotalOrders     int     `json:"total_orders" db:"total_orders"`
	CompletedOrders int     `json:"completed_orders" db:"completed_orders"`
	TotalRecycledKg float64 `json:"total_recycled_kg" db:"total_recycled_kg"`
}

// WorkerInfo carries the employment and duty state of a worker or driver.
type WorkerInfo struct {
	EmployeeID    string       `json:"employee_id" db:"employee_id"`
	VehicleNumber string       `json:"vehicle_number,omitempty" db:"vehicle_number"`
	VehicleType   string       `json:"vehicle_type,omitempty" db:"vehicle_type"`
	AssignedArea  string       `json:"assigned_area,omitempty" db:"assigned_area"`
	IsOnDuty      bool         `json:"is_on_duty" db:"is_on_duty"`
	Status        WorkerStatus `json:"status" db:"status"`
	CompletedJobs int          `json:"completed_jobs" db:"completed_jobs"`
	Rating        float64      `json:"rating" db:"rating"`
	TotalRatings  int          `json:"total_ratings" db:"total_ratings"`

	Live LiveLocation `json:"live_location"`
}

// LiveLocation is a worker's single current self-reported position.
// Overwritten on every report; no history is kept.
type LiveLocation struct {
	Lat       float64    `json:"lat" db:"live_lat"`
	Lng       float64    `json:"lng" db:"live_lng"`
	Heading   float64    `json:"heading" db:"live_heading"`
	SpeedKmh  float64    `json:"speed" db:"live_speed"`
	Accuracy  float64    `json:"accuracy" db:"live_accuracy"`
	IsSharing bool       `json:"is_sharing" db:"live_is_sharing"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"live_updated_at"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// UserUpdateData defines fields that can be updated on a profile.
type UserUpdateData struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
}

// RegisterWorkerRequest is the admin payload for onboarding a worker or driver.
type RegisterWorkerRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,min=7,max=20"`
	Password      string `json:"password" validate:"required,min=8"`
	Role          string `json:"role" validate:"required,oneof=WORKER DRIVER"`
	EmployeeID    string `json:"employee_id" validate:"required"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
	VehicleType   string `json:"vehicle_type,omitempty" validate:"omitempty,oneof=bike auto van truck"`
	AssignedArea  string `json:"assigned_area,omitempty"`
}

// SetWorkerStatusRequest updates a worker's operational status.
type SetWorkerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended"`
}

// RateWorkerRequest is a customer rating for a worker.
type RateWorkerRequest struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}

// LiveLocationRequest is the body a worker's device posts on each position fix.
type LiveLocationRequest struct {
	Lat       float64 `json:"lat" validate:"required,latitude"`
	Lng       float64 `json:"lng" validate:"required,longitude"`
	Heading   float64 `json:"heading" validate:"gte=0,lte=360"`
	SpeedKmh  float64 `json:"speed" validate:"gte=0"`
	Accuracy  float64 `json:"accuracy" validate:"gte=0"`
	IsSharing *bool   `json:"is_sharing,omitempty"`
}

// DutyStatusRequest toggles a worker on or off duty.
type DutyStatusRequest struct {
	IsOnDuty bool `json:"is_on_duty"`
}
