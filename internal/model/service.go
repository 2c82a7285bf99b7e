package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ServiceDurations is the fixed set of bookable durations, in minutes.
var ServiceDurations = []int{30, 45, 60, 120}

// ValidDuration reports whether minutes is one of the allowed durations.
func ValidDuration(minutes int) bool {
	for _, d := range ServiceDurations {
		if minutes == d {
			return true
		}
	}
	return false
}

// Service is a bookable offering owned by a provider. Services are never
// deleted, only deactivated, so past bookings stay resolvable.
type Service struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	ProviderID      uuid.UUID      `db:"provider_id" json:"provider_id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	Category        string         `db:"category" json:"category,omitempty"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Price           float64        `db:"price" json:"price"`
	Images          pq.StringArray `db:"images" json:"images"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Duration returns the captured duration as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type CreateServiceRequest struct {
	Name            string   `json:"name" binding:"required,max=100"`
	Description     string   `json:"description" binding:"max=2000"`
	Category        string   `json:"category" binding:"max=100"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,bookable_duration"`
	Price           float64  `json:"price" binding:"gte=0"`
	Images          []string `json:"images" binding:"max=10,dive,url"`
}

type UpdateServiceRequest struct {
	Name            *string   `json:"name" binding:"omitempty,max=100"`
	Description     *string   `json:"description" binding:"omitempty,max=2000"`
	Category        *string   `json:"category" binding:"omitempty,max=100"`
	DurationMinutes *int      `json:"duration_minutes" binding:"omitempty,bookable_duration"`
	Price           *float64  `json:"price" binding:"omitempty,gte=0"`
	Images          *[]string `json:"images" binding:"omitempty,max=10,dive,url"`
	IsActive        *bool     `json:"is_active"`
}

type ServiceFilters struct {
	Search     string
	Category   string
	ProviderID uuid.UUID
	IsActive   *bool
	SortField  string
	SortDesc   bool
	Pagination
}
