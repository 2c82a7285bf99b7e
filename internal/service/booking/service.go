package booking

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
	"github.com/openslot/booking-api/pkg/errors"
	"github.com/openslot/booking-api/pkg/logger"
	"github.com/openslot/booking-api/pkg/metrics"
)

// Catalog is the minimal service-catalog contract the ledger consumes. It
// never mutates catalog state.
type Catalog interface {
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
}

// Emitter hands a notification event to the sink. Delivery is best-effort;
// the ledger logs and swallows emission failures.
type Emitter interface {
	Emit(ctx context.Context, n *model.Notification) error
}

// Service is the booking ledger. It owns booking rows and guarantees that
// no two active bookings for the same provider ever overlap, under
// concurrent creation attempts.
type Service struct {
	repo    repository.BookingRepository
	catalog Catalog
	emitter Emitter
	locks   *providerLocker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.BookingRepository, catalog Catalog, emitter Emitter, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		emitter: emitter,
		locks:   newProviderLocker(),
		logger:  logger,
		metrics: m,
	}
}

// CreateBooking admits a booking request against a service. The overlap
// check and the insert run as one atomic unit per provider; the only
// successful outcome is a new pending booking holding [start, start+duration).
func (s *Service) CreateBooking(ctx context.Context, clientID, serviceID uuid.UUID, requestedStart time.Time) (*model.Booking, error) {
	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if !svc.IsActive {
		return nil, errors.ServiceInactive("service is not accepting new bookings")
	}

	if clientID == svc.ProviderID {
		return nil, errors.SelfBooking("cannot book your own service")
	}

	start := requestedStart.UTC()
	end := start.Add(svc.Duration())

	booking := &model.Booking{
		ServiceID:       svc.ID,
		ProviderID:      svc.ProviderID,
		ClientID:        clientID,
		StartTime:       start,
		DurationMinutes: svc.DurationMinutes,
		Status:          model.BookingStatusPending,
	}

	mu := s.locks.lock(svc.ProviderID)
	mu.Lock()
	timer := prometheus.NewTimer(s.metrics.ConflictCheckTime)

	overlap, err := s.repo.HasActiveOverlap(ctx, svc.ProviderID, start, end)
	if err != nil {
		timer.ObserveDuration()
		mu.Unlock()
		return nil, errors.Unavailable(err)
	}
	if overlap {
		timer.ObserveDuration()
		mu.Unlock()
		s.metrics.SlotConflicts.Inc()
		return nil, errors.SlotConflict("requested time overlaps an existing booking")
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		timer.ObserveDuration()
		mu.Unlock()
		return nil, errors.Unavailable(err)
	}
	timer.ObserveDuration()
	mu.Unlock()

	s.metrics.BookingsCreated.Inc()
	s.logger.Info("booking created",
		"booking_id", booking.ID.String(),
		"provider_id", booking.ProviderID.String(),
		"client_id", clientID.String(),
	)

	s.notify(ctx, booking.ProviderID, booking.ID, model.NotificationBookingRequested)

	return booking, nil
}

// GetBooking returns a single booking. Only its provider or client may see it.
func (s *Service) GetBooking(ctx context.Context, actorID, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(actorID) {
		return nil, errors.Forbidden("you do not have access to this booking")
	}
	return booking, nil
}

// ListCommitments returns all active bookings for the provider intersecting
// [windowStart, windowEnd), ordered by start time. Pure read.
func (s *Service) ListCommitments(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]model.Commitment, error) {
	bookings, err := s.repo.ListActiveInWindow(ctx, providerID, windowStart.UTC(), windowEnd.UTC())
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	commitments := make([]model.Commitment, 0, len(bookings))
	for _, b := range bookings {
		commitments = append(commitments, model.Commitment{
			Start:  b.StartTime,
			End:    b.EndTime(),
			Status: b.Status,
		})
	}
	return commitments, nil
}

// ListBookings returns the user's bookings in the given role.
func (s *Service) ListBookings(ctx context.Context, userID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, int, error) {
	if filters.Role != model.BookingRoleClient {
		filters.Role = model.BookingRoleProvider
	}
	filters.Normalize()

	bookings, total, err := s.repo.ListForUser(ctx, userID, filters)
	if err != nil {
		return nil, 0, errors.Unavailable(err)
	}
	return bookings, total, nil
}

// TransitionStatus moves a booking along its state machine. The provider
// accepts or rejects a pending booking; either party cancels an accepted
// one. Rejected and cancelled are terminal. Accepting deliberately does not
// re-run the conflict check: overlapping pending bookings can coexist, and
// accepting one does not auto-reject the others.
func (s *Service) TransitionStatus(ctx context.Context, actorID, bookingID uuid.UUID, target model.BookingStatus) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.IsParty(actorID) {
		return nil, errors.Forbidden("you do not have access to this booking")
	}

	if !model.CanTransition(booking.Status, target) {
		return nil, errors.InvalidTransition("cannot transition booking from " + string(booking.Status) + " to " + string(target))
	}

	switch target {
	case model.BookingStatusAccepted, model.BookingStatusRejected:
		if actorID != booking.ProviderID {
			return nil, errors.Forbidden("only the provider may accept or reject a booking")
		}
	case model.BookingStatusCancelled:
		// either party
	default:
		return nil, errors.InvalidTransition("unknown target status " + string(target))
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, booking.Status, target)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			// Lost a race with a concurrent transition on the same row.
			return nil, errors.InvalidTransition("booking status changed concurrently")
		}
		return nil, errors.Unavailable(err)
	}

	s.metrics.StatusTransitions.WithLabelValues(string(target)).Inc()
	s.logger.Info("booking status changed",
		"booking_id", bookingID.String(),
		"from", string(booking.Status),
		"to", string(target),
	)

	s.notify(ctx, s.counterparty(updated, actorID), updated.ID, transitionNotification(target))

	return updated, nil
}

func (s *Service) getBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("booking", err)
		}
		return nil, errors.Unavailable(err)
	}
	return booking, nil
}

// counterparty picks the recipient of a transition notification: the party
// who did not act.
func (s *Service) counterparty(b *model.Booking, actorID uuid.UUID) uuid.UUID {
	if actorID == b.ProviderID {
		return b.ClientID
	}
	return b.ProviderID
}

func (s *Service) notify(ctx context.Context, recipientID, bookingID uuid.UUID, kind model.NotificationKind) {
	err := s.emitter.Emit(ctx, &model.Notification{
		RecipientID: recipientID,
		BookingID:   bookingID,
		Kind:        kind,
	})
	if err != nil {
		// Best-effort: never propagated to the caller.
		s.logger.Error(err, "failed to emit notification",
			"booking_id", bookingID.String(),
			"kind", string(kind),
		)
		return
	}
	s.metrics.NotificationsEmitted.Inc()
}

func transitionNotification(target model.BookingStatus) model.NotificationKind {
	switch target {
	case model.BookingStatusAccepted:
		return model.NotificationBookingAccepted
	case model.BookingStatusRejected:
		return model.NotificationBookingRejected
	default:
		return model.NotificationBookingCancelled
	}
}
