package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusPending, BookingStatusAccepted, true},
		{BookingStatusPending, BookingStatusRejected, true},
		{BookingStatusPending, BookingStatusCancelled, false},
		{BookingStatusPending, BookingStatusPending, false},
		{BookingStatusAccepted, BookingStatusCancelled, true},
		{BookingStatusAccepted, BookingStatusRejected, false},
		{BookingStatusAccepted, BookingStatusPending, false},
		{BookingStatusAccepted, BookingStatusAccepted, false},
		{BookingStatusRejected, BookingStatusAccepted, false},
		{BookingStatusRejected, BookingStatusCancelled, false},
		{BookingStatusCancelled, BookingStatusAccepted, false},
		{BookingStatusCancelled, BookingStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestBookingStatusActive(t *testing.T) {
	assert.True(t, BookingStatusPending.Active())
	assert.True(t, BookingStatusAccepted.Active())
	assert.False(t, BookingStatusRejected.Active())
	assert.False(t, BookingStatusCancelled.Active())
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.Terminal())
	assert.False(t, BookingStatusAccepted.Terminal())
	assert.True(t, BookingStatusRejected.Terminal())
	assert.True(t, BookingStatusCancelled.Terminal())
}

func TestBookingEndTime(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: start, DurationMinutes: 45}
	assert.Equal(t, start.Add(45*time.Minute), b.EndTime())
}

func TestBookingOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: base, DurationMinutes: 60} // [14:00, 15:00)

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", base, base.Add(time.Hour), true},
		{"contained", base.Add(15 * time.Minute), base.Add(30 * time.Minute), true},
		{"straddles start", base.Add(-30 * time.Minute), base.Add(30 * time.Minute), true},
		{"straddles end", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"covers", base.Add(-time.Hour), base.Add(2 * time.Hour), true},
		{"adjacent before", base.Add(-time.Hour), base, false},
		{"adjacent after", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"well before", base.Add(-3 * time.Hour), base.Add(-2 * time.Hour), false},
		{"well after", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(tt.start, tt.end))
		})
	}
}

func TestBookingIsParty(t *testing.T) {
	provider := uuid.New()
	client := uuid.New()
	b := &Booking{ProviderID: provider, ClientID: client}

	assert.True(t, b.IsParty(provider))
	assert.True(t, b.IsParty(client))
	assert.False(t, b.IsParty(uuid.New()))
}

func TestValidDuration(t *testing.T) {
	for _, d := range ServiceDurations {
		assert.True(t, ValidDuration(d), "duration %d should be allowed", d)
	}
	for _, d := range []int{0, 15, 90, 240, -30} {
		assert.False(t, ValidDuration(d), "duration %d should be rejected", d)
	}
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	p = Pagination{Page: 3, PerPage: 500}
	p.Normalize()
	assert.Equal(t, MaxPerPage, p.PerPage)
	assert.Equal(t, 2*MaxPerPage, p.Offset())
}
