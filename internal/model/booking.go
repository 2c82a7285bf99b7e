package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Active reports whether the booking occupies provider time. Rejected and
// cancelled bookings are inert and free their slot.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the status state machine permits from -> to.
// A booking never re-enters pending once left.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingStatusPending:
		return to == BookingStatusAccepted || to == BookingStatusRejected
	case BookingStatusAccepted:
		return to == BookingStatusCancelled
	default:
		return false
	}
}

// Booking is a client's claim on a provider's time. The duration is captured
// from the service at creation time and never re-derived, so later edits to
// the service cannot corrupt existing bookings.
type Booking struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	ServiceID       uuid.UUID     `db:"service_id" json:"service_id"`
	ProviderID      uuid.UUID     `db:"provider_id" json:"provider_id"`
	ClientID        uuid.UUID     `db:"client_id" json:"client_id"`
	StartTime       time.Time     `db:"start_time" json:"start_time"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Status          BookingStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// EndTime returns the exclusive end of the booked interval.
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Overlaps tests the half-open interval [b.StartTime, b.EndTime) against
// [start, end): two intervals overlap iff a1 < b2 && b1 < a2. Adjacent
// intervals do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime())
}

// IsParty reports whether userID is the booking's provider or client.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return userID == b.ProviderID || userID == b.ClientID
}

// Commitment is the calendar-facing view of an active booking.
type Commitment struct {
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status BookingStatus `json:"status"`
}

// BookingRole selects which side of a booking a user query refers to.
type BookingRole string

const (
	BookingRoleClient   BookingRole = "client"
	BookingRoleProvider BookingRole = "provider"
)

type CreateBookingRequest struct {
	ServiceID string    `json:"service_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

type TransitionBookingRequest struct {
	Status BookingStatus `json:"status" binding:"required,oneof=accepted rejected cancelled"`
}

type BookingFilters struct {
	Role   BookingRole
	Status BookingStatus
	Pagination
}
