package models

import "time"

// ScanRecord is a persisted AI waste-scan analysis. The analysis itself is
// produced by the external AI collaborator; this service only stores the
// result and later snapshots it onto orders.
type ScanRecord struct {
	ID                string     `json:"id" db:"id"`
	UserID            *string    `json:"user_id,omitempty" db:"user_id"`
	Category          string     `json:"category" db:"category"`
	Recyclable        bool       `json:"recyclable" db:"recyclable"`
	EstimatedWeightKg float64    `json:"estimated_weight_kg" db:"estimated_weight_kg"`
	Confidence        float64    `json:"confidence" db:"confidence"`
	ImageURL          string     `json:"image_url,omitempty" db:"image_url"`
	ConvertedToOrder  bool       `json:"converted_to_order" db:"converted_to_order"`
	OrderID           *string    `json:"order_id,omitempty" db:"order_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	ConvertedAt       *time.Time `json:"converted_at,omitempty" db:"converted_at"`
}

// IngestScanRequest persists an analysis result handed over by the AI
// collaborator.
type IngestScanRequest struct {
	Category          string  `json:"category" validate:"required"`
	Recyclable        bool    `json:"recyclable"`
	EstimatedWeightKg float64 `json:"estimated_weight_kg" validate:"gte=0"`
	Confidence        float64 `json:"confidence" validate:"gte=0,lte=1"`
	ImageURL          string  `json:"image_url,omitempty" validate:"omitempty,url"`
}
