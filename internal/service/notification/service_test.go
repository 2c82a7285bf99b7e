package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/booking-api/internal/model"
)

type stubOutbox struct {
	events []*model.OutboxEvent
	err    error
}

func (o *stubOutbox) CreateEvent(ctx context.Context, event *model.OutboxEvent) error {
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, event)
	return nil
}

func (o *stubOutbox) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (o *stubOutbox) MarkProcessed(ctx context.Context, id uuid.UUID) error       { return nil }
func (o *stubOutbox) MarkFailed(ctx context.Context, id uuid.UUID, m string) error { return nil }

func TestEmitStagesOutboxEvent(t *testing.T) {
	outbox := &stubOutbox{}
	svc := NewService(outbox)

	n := &model.Notification{
		RecipientID: uuid.New(),
		BookingID:   uuid.New(),
		Kind:        model.NotificationBookingRequested,
	}
	require.NoError(t, svc.Emit(context.Background(), n))

	require.Len(t, outbox.events, 1)
	event := outbox.events[0]
	assert.Equal(t, EventType, event.EventType)

	var decoded model.Notification
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, n.RecipientID, decoded.RecipientID)
	assert.Equal(t, n.BookingID, decoded.BookingID)
	assert.Equal(t, model.NotificationBookingRequested, decoded.Kind)
}

func TestEmitPropagatesOutboxFailure(t *testing.T) {
	svc := NewService(&stubOutbox{err: assert.AnError})

	err := svc.Emit(context.Background(), &model.Notification{
		RecipientID: uuid.New(),
		BookingID:   uuid.New(),
		Kind:        model.NotificationBookingCancelled,
	})
	assert.Error(t, err)
}
