package models

import "time"

// Address is a user's saved pickup address.
type Address struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Label     string    `json:"label" db:"label"`
	Street    string    `json:"street" db:"street"`
	Landmark  string    `json:"landmark,omitempty" db:"landmark"`
	Area      string    `json:"area,omitempty" db:"area"`
	City      string    `json:"city,omitempty" db:"city"`
	Pincode   string    `json:"pincode,omitempty" db:"pincode"`
	Lat       float64   `json:"lat" db:"lat"`
	Lng       float64   `json:"lng" db:"lng"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AddAddressRequest defines the body for creating a saved address.
type AddAddressRequest struct {
	Label    string  `json:"label" validate:"required,min=2"`
	Street   string  `json:"street" validate:"required,min=5"`
	Landmark string  `json:"landmark,omitempty"`
	Area     string  `json:"area,omitempty"`
	City     string  `json:"city,omitempty"`
	Pincode  string  `json:"pincode,omitempty"`
	Lat      float64 `json:"lat" validate:"required,latitude"`
	Lng      float64 `json:"lng" validate:"required,longitude"`
	IsDefault bool   `json:"is_default"`
}

// UpdateAddressRequest defines the body for updating a saved address.
type UpdateAddressRequest struct {
	Label     string `json:"label,omitempty"`
	Street    string `json:"street,omitempty"`
	Landmark  string `json:"landmark,omitempty"`
	Area      string `json:"area,omitempty"`
	City      string `json:"city,omitempty"`
	Pincode   string `json:"pincode,omitempty"`
	IsDefault *bool  `json:"is_default,omitempty"` // Pointer to handle 'false' as a valid update
}
