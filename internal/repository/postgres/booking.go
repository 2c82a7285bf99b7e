package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(db BaseRepository) repository.BookingRepository {
	return &bookingRepository{db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, service_id, provider_id, client_id,
			start_time, duration_minutes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.ServiceID,
		booking.ProviderID,
		booking.ClientID,
		booking.StartTime,
		booking.DurationMinutes,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, service_id, provider_id, client_id,
			   start_time, duration_minutes, status,
			   created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// UpdateStatus is guarded on the current status so a concurrent transition
// on the same row cannot be silently overwritten.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING id, service_id, provider_id, client_id,
				  start_time, duration_minutes, status,
				  created_at, updated_at
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, to, time.Now().UTC(), id, from)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) ListActiveInWindow(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]*model.Booking, error) {
	query := `
		SELECT id, service_id, provider_id, client_id,
			   start_time, duration_minutes, status,
			   created_at, updated_at
		FROM bookings
		WHERE provider_id = $1
		AND status IN ('pending', 'accepted')
		AND start_time < $3
		AND start_time + (duration_minutes * interval '1 minute') > $2
		ORDER BY start_time ASC
	`
	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, providerID, windowStart, windowEnd); err != nil {
		return nil, fmt.Errorf("failed to list provider commitments: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) HasActiveOverlap(ctx context.Context, providerID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE provider_id = $1
			AND status IN ('pending', 'accepted')
			AND start_time < $3
			AND start_time + (duration_minutes * interval '1 minute') > $2
		)
	`
	var hasOverlap bool
	if err := r.db.GetContext(ctx, &hasOverlap, query, providerID, start, end); err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return hasOverlap, nil
}

func (r *bookingRepository) ListForUser(ctx context.Context, userID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, int, error) {
	roleColumn := "provider_id"
	if filters.Role == model.BookingRoleClient {
		roleColumn = "client_id"
	}

	where := fmt.Sprintf(" WHERE %s = $1", roleColumn)
	args := []interface{}{userID}
	argCount := 2

	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bookings"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := `
		SELECT id, service_id, provider_id, client_id,
			   start_time, duration_minutes, status,
			   created_at, updated_at
		FROM bookings` + where +
		fmt.Sprintf(" ORDER BY start_time ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.PerPage, filters.Offset())

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}
