package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openslot/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// ServiceRepository owns the service catalog rows.
	ServiceRepository interface {
		Create(ctx context.Context, svc *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, svc *model.Service) error
		List(ctx context.Context, filters *model.ServiceFilters) ([]*model.Service, int, error)
		ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error)
	}

	// BookingRepository owns the booking ledger rows. Bookings are never
	// deleted; status transitions are the only mutation after insert.
	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		// UpdateStatus performs a guarded status change: the row is updated
		// only if its current status equals from. It returns the updated
		// booking, or sql.ErrNoRows if the guard did not match.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error)
		// ListActiveInWindow returns pending/accepted bookings for the
		// provider intersecting [windowStart, windowEnd), ordered by start.
		ListActiveInWindow(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]*model.Booking, error)
		// HasActiveOverlap reports whether any pending/accepted booking for
		// the provider overlaps the half-open interval [start, end).
		HasActiveOverlap(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error)
		ListForUser(ctx context.Context, userID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, int, error)
	}

	// OutboxRepository stages notification events alongside booking writes.
	OutboxRepository interface {
		CreateEvent(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}

	// ContactRepository resolves a user id to a deliverable email address.
	// The contacts table is a read model provisioned by the identity
	// system; this service never writes it.
	ContactRepository interface {
		GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
	}
)
