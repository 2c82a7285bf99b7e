package booking

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/pkg/errors"
	"github.com/openslot/booking-api/pkg/logger"
	"github.com/openslot/booking-api/pkg/metrics"
)

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*model.Booking
	failWith error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*model.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	clone := *b
	r.bookings[b.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return nil, sql.ErrNoRows
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) ListActiveInWindow(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.Status.Active() && b.Overlaps(windowStart, windowEnd) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) HasActiveOverlap(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return false, r.failWith
	}
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.Status.Active() && b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) ListForUser(ctx context.Context, userID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		var match bool
		if filters.Role == model.BookingRoleClient {
			match = b.ClientID == userID
		} else {
			match = b.ProviderID == userID
		}
		if match && (filters.Status == "" || b.Status == filters.Status) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, len(out), nil
}

type fakeCatalog struct {
	services map[uuid.UUID]*model.Service
}

func (c *fakeCatalog) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := c.services[id]
	if !ok {
		return nil, errors.NotFound("service", sql.ErrNoRows)
	}
	return svc, nil
}

type fakeEmitter struct {
	mu      sync.Mutex
	emitted []*model.Notification
	failAll bool
}

func (e *fakeEmitter) Emit(ctx context.Context, n *model.Notification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAll {
		return assert.AnError
	}
	e.emitted = append(e.emitted, n)
	return nil
}

func (e *fakeEmitter) last() *model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.emitted) == 0 {
		return nil
	}
	return e.emitted[len(e.emitted)-1]
}

type fixture struct {
	svc      *Service
	repo     *fakeBookingRepo
	catalog  *fakeCatalog
	emitter  *fakeEmitter
	provider uuid.UUID
	client   uuid.UUID
	service  *model.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := uuid.New()
	service := &model.Service{
		ID:              uuid.New(),
		ProviderID:      provider,
		Name:            "Haircut",
		DurationMinutes: 60,
		Price:           40,
		IsActive:        true,
	}

	repo := newFakeBookingRepo()
	catalog := &fakeCatalog{services: map[uuid.UUID]*model.Service{service.ID: service}}
	emitter := &fakeEmitter{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")

	return &fixture{
		svc:      NewService(repo, catalog, emitter, log, m),
		repo:     repo,
		catalog:  catalog,
		emitter:  emitter,
		provider: provider,
		client:   uuid.New(),
		service:  service,
	}
}

func slot(offsetHours int) time.Time {
	return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(offsetHours) * time.Hour)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, f.provider, b.ProviderID)
	assert.Equal(t, f.client, b.ClientID)
	assert.Equal(t, 60, b.DurationMinutes)
	assert.Equal(t, slot(0), b.StartTime)

	n := f.emitter.last()
	require.NotNil(t, n)
	assert.Equal(t, model.NotificationBookingRequested, n.Kind)
	assert.Equal(t, f.provider, n.RecipientID)
	assert.Equal(t, b.ID, n.BookingID)
}

func TestCreateBookingUnknownService(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.client, uuid.New(), slot(0))
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestCreateBookingInactiveService(t *testing.T) {
	f := newFixture(t)
	f.service.IsActive = false

	_, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	assert.Equal(t, errors.KindServiceInactive, errors.KindOf(err))
}

func TestCreateBookingSelfBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.provider, f.service.ID, slot(0))
	assert.Equal(t, errors.KindSelfBooking, errors.KindOf(err))
}

func TestCreateBookingSlotConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	// Another client asks for a time that straddles the booked hour.
	_, err = f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(0).Add(30*time.Minute))
	assert.Equal(t, errors.KindSlotConflict, errors.KindOf(err))
	assert.True(t, errors.Retryable(err))
}

func TestCreateBookingAdjacentSlots(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	// Back-to-back is fine: intervals are half-open.
	_, err = f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(1))
	assert.NoError(t, err)
}

func TestCreateBookingRejectedSlotIsFree(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusRejected)
	require.NoError(t, err)

	// The rejected booking no longer occupies the slot.
	_, err = f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(0))
	assert.NoError(t, err)
}

func TestCreateBookingConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(0))
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.KindOf(err) == errors.KindSlotConflict:
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one concurrent request may win the slot")
	assert.Equal(t, n-1, conflicted)
}

func TestCreateBookingRepoFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failWith = sql.ErrConnDone

	_, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	assert.Equal(t, errors.KindUnavailable, errors.KindOf(err))
	assert.True(t, errors.Retryable(err))
}

func TestCreateBookingEmitterFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.emitter.failAll = true

	_, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	assert.NoError(t, err)
}

func TestGetBookingAccess(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), f.client, b.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), f.provider, b.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), uuid.New(), b.ID)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))

	_, err = f.svc.GetBooking(context.Background(), f.client, uuid.New())
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestTransitionAcceptThenCancel(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	accepted, err := f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusAccepted, accepted.Status)

	n := f.emitter.last()
	require.NotNil(t, n)
	assert.Equal(t, model.NotificationBookingAccepted, n.Kind)
	assert.Equal(t, f.client, n.RecipientID)

	// The client cancels; the provider is notified.
	cancelled, err := f.svc.TransitionStatus(context.Background(), f.client, b.ID, model.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	n = f.emitter.last()
	assert.Equal(t, model.NotificationBookingCancelled, n.Kind)
	assert.Equal(t, f.provider, n.RecipientID)
}

func TestTransitionRejectAfterAcceptFails(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusAccepted)
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusRejected)
	assert.Equal(t, errors.KindInvalidTransition, errors.KindOf(err))
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusAccepted)
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(context.Background(), f.client, b.ID, model.BookingStatusCancelled)
	require.NoError(t, err)

	// The cancelled interval no longer blocks new requests.
	_, err = f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(0))
	assert.NoError(t, err)
}

func TestTransitionClientCannotAcceptOrReject(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.client, b.ID, model.BookingStatusAccepted)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))

	_, err = f.svc.TransitionStatus(context.Background(), f.client, b.ID, model.BookingStatusRejected)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestTransitionNonPartyForbidden(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), uuid.New(), b.ID, model.BookingStatusAccepted)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
}

func TestTransitionTerminalStates(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusRejected)
	require.NoError(t, err)

	for _, target := range []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusAccepted,
		model.BookingStatusRejected,
		model.BookingStatusCancelled,
	} {
		_, err := f.svc.TransitionStatus(context.Background(), f.provider, b.ID, target)
		assert.Equal(t, errors.KindInvalidTransition, errors.KindOf(err), "target %s", target)
	}
}

func TestTransitionPendingCannotBeCancelled(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.client, b.ID, model.BookingStatusCancelled)
	assert.Equal(t, errors.KindInvalidTransition, errors.KindOf(err))
}

func TestTransitionLostRace(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	// Another transition landed between the read and the guarded update.
	f.repo.mu.Lock()
	f.repo.bookings[b.ID].Status = model.BookingStatusRejected
	f.repo.mu.Unlock()

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b.ID, model.BookingStatusAccepted)
	assert.Equal(t, errors.KindInvalidTransition, errors.KindOf(err))
}

func TestAcceptLeavesOtherPendingsUntouched(t *testing.T) {
	// Accepting a booking never touches the provider's other pending
	// requests.
	f := newFixture(t)

	b1, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)
	b2, err := f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(2))
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), f.provider, b1.ID, model.BookingStatusAccepted)
	require.NoError(t, err)

	got, err := f.svc.GetBooking(context.Background(), f.provider, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, got.Status)
}

func TestListCommitments(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	rejected, err := f.svc.CreateBooking(context.Background(), uuid.New(), f.service.ID, slot(2))
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(context.Background(), f.provider, rejected.ID, model.BookingStatusRejected)
	require.NoError(t, err)

	commitments, err := f.svc.ListCommitments(context.Background(), f.provider, slot(-1), slot(5))
	require.NoError(t, err)

	// Only active bookings surface, and without any party identifiers.
	require.Len(t, commitments, 1)
	assert.True(t, commitments[0].Start.Equal(b.StartTime))
	assert.True(t, commitments[0].End.Equal(b.EndTime()))
	assert.Equal(t, model.BookingStatusPending, commitments[0].Status)

	// Reads never mutate: a second identical call returns the same view.
	again, err := f.svc.ListCommitments(context.Background(), f.provider, slot(-1), slot(5))
	require.NoError(t, err)
	assert.Equal(t, commitments, again)
}

func TestListCommitmentsWindowExcludesOutside(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	commitments, err := f.svc.ListCommitments(context.Background(), f.provider, slot(3), slot(6))
	require.NoError(t, err)
	assert.Empty(t, commitments)
}

func TestListBookingsByRole(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.client, f.service.ID, slot(0))
	require.NoError(t, err)

	asClient, total, err := f.svc.ListBookings(context.Background(), f.client, &model.BookingFilters{Role: model.BookingRoleClient})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, asClient, 1)
	assert.Equal(t, b.ID, asClient[0].ID)

	asProvider, total, err := f.svc.ListBookings(context.Background(), f.provider, &model.BookingFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, asProvider, 1)

	// The client has no provider-side bookings.
	_, total, err = f.svc.ListBookings(context.Background(), f.client, &model.BookingFilters{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
