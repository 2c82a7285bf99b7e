package model

import (
	"github.com/google/uuid"
)

// NotificationKind identifies what happened to a booking.
type NotificationKind string

const (
	NotificationBookingRequested NotificationKind = "booking_requested"
	NotificationBookingAccepted  NotificationKind = "booking_accepted"
	NotificationBookingRejected  NotificationKind = "booking_rejected"
	NotificationBookingCancelled NotificationKind = "booking_cancelled"
)

// Notification is the fire-and-forget event handed to the notification
// sink. Delivery is best-effort: failure never propagates to the booking
// operation that produced it.
type Notification struct {
	RecipientID uuid.UUID        `json:"recipient_id"`
	BookingID   uuid.UUID        `json:"booking_id"`
	Kind        NotificationKind `json:"kind"`
}
