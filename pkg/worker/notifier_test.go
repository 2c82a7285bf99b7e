package worker

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/booking-api/internal/email"
	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
	"github.com/openslot/booking-api/pkg/logger"
	"github.com/openslot/booking-api/pkg/messaging"
	"github.com/openslot/booking-api/pkg/metrics"
)

type memOutbox struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    []uuid.UUID
}

func (o *memOutbox) CreateEvent(ctx context.Context, event *model.OutboxEvent) error {
	o.pending = append(o.pending, event)
	return nil
}

func (o *memOutbox) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(o.pending) > limit {
		return o.pending[:limit], nil
	}
	return o.pending, nil
}

func (o *memOutbox) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	o.processed = append(o.processed, id)
	return nil
}

func (o *memOutbox) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	o.failed = append(o.failed, id)
	return nil
}

type memBroker struct {
	published []messaging.Message
	err       error
}

func (b *memBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message.(messaging.Message))
	return nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *memBroker) Close() error { return nil }

type memContacts struct {
	emails map[uuid.UUID]string
}

func (c *memContacts) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	addr, ok := c.emails[userID]
	if !ok {
		return "", assert.AnError
	}
	return addr, nil
}

type memSender struct {
	sent []string
	err  error
}

func (s *memSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func event(t *testing.T, n *model.Notification) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(n)
	require.NoError(t, err)
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: "booking_notification",
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
}

func newDispatcher(outbox *memOutbox, broker *memBroker, contacts *memContacts, sender *memSender) *NotificationDispatcher {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")

	var contactRepo repository.ContactRepository
	if contacts != nil {
		contactRepo = contacts
	}
	var mailer email.Sender
	if sender != nil {
		mailer = sender
	}
	return NewNotificationDispatcher(outbox, contactRepo, broker, mailer, NotificationDispatcherConfig{BatchSize: 10}, log, m)
}

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	recipient := uuid.New()
	outbox := &memOutbox{}
	outbox.pending = append(outbox.pending, event(t, &model.Notification{
		RecipientID: recipient,
		BookingID:   uuid.New(),
		Kind:        model.NotificationBookingRequested,
	}))

	broker := &memBroker{}
	contacts := &memContacts{emails: map[uuid.UUID]string{recipient: "provider@example.com"}}
	sender := &memSender{}

	d := newDispatcher(outbox, broker, contacts, sender)
	require.NoError(t, d.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, "booking_notification", broker.published[0].Type)
	assert.Len(t, outbox.processed, 1)
	assert.Empty(t, outbox.failed)
	assert.Equal(t, []string{"provider@example.com"}, sender.sent)
}

func TestProcessEventsBrokerFailureMarksFailed(t *testing.T) {
	outbox := &memOutbox{}
	outbox.pending = append(outbox.pending, event(t, &model.Notification{
		RecipientID: uuid.New(),
		BookingID:   uuid.New(),
		Kind:        model.NotificationBookingAccepted,
	}))

	d := newDispatcher(outbox, &memBroker{err: assert.AnError}, nil, nil)
	require.NoError(t, d.processEvents(context.Background()))

	assert.Empty(t, outbox.processed)
	assert.Len(t, outbox.failed, 1)
}

func TestProcessEventsMalformedPayload(t *testing.T) {
	outbox := &memOutbox{}
	outbox.pending = append(outbox.pending, &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: "booking_notification",
		Payload:   json.RawMessage(`{`),
		Status:    model.OutboxStatusPending,
	})

	broker := &memBroker{}
	d := newDispatcher(outbox, broker, nil, nil)
	require.NoError(t, d.processEvents(context.Background()))

	assert.Empty(t, broker.published)
	assert.Len(t, outbox.failed, 1)
}

func TestProcessEventsMissingContactStillProcessed(t *testing.T) {
	outbox := &memOutbox{}
	outbox.pending = append(outbox.pending, event(t, &model.Notification{
		RecipientID: uuid.New(),
		BookingID:   uuid.New(),
		Kind:        model.NotificationBookingCancelled,
	}))

	sender := &memSender{}
	d := newDispatcher(outbox, &memBroker{}, &memContacts{emails: map[uuid.UUID]string{}}, sender)
	require.NoError(t, d.processEvents(context.Background()))

	assert.Len(t, outbox.processed, 1)
	assert.Empty(t, sender.sent)
}
