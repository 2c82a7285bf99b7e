package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openslot/booking-api/internal/email"
	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
	"github.com/openslot/booking-api/pkg/logger"
	"github.com/openslot/booking-api/pkg/messaging"
	"github.com/openslot/booking-api/pkg/metrics"
)

// NotificationChannel is the broker channel notification events go out on.
const NotificationChannel = "notifications"

type NotificationDispatcherConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// NotificationDispatcher drains the outbox and delivers booking
// notifications: every event is published on the broker, and emailed when
// the recipient has a known address. Delivery is at-most-once best-effort.
type NotificationDispatcher struct {
	outbox   repository.OutboxRepository
	contacts repository.ContactRepository
	broker   messaging.Broker
	mailer   email.Sender
	config   NotificationDispatcherConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewNotificationDispatcher(
	outbox repository.OutboxRepository,
	contacts repository.ContactRepository,
	broker messaging.Broker,
	mailer email.Sender,
	config NotificationDispatcherConfig,
	logger *logger.Logger,
	m *metrics.Metrics,
) *NotificationDispatcher {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}

	return &NotificationDispatcher{
		outbox:   outbox,
		contacts: contacts,
		broker:   broker,
		mailer:   mailer,
		config:   config,
		logger:   logger,
		metrics:  m,
	}
}

func (d *NotificationDispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.logger.Info("starting notification dispatcher")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down notification dispatcher")
			return
		case <-ticker.C:
			if err := d.processEvents(ctx); err != nil {
				d.logger.Error(err, "failed to process notification events")
			}
		}
	}
}

func (d *NotificationDispatcher) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(d.metrics.DispatchLatency)
	defer timer.ObserveDuration()

	events, err := d.outbox.GetPendingEventsWithLock(ctx, d.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := d.dispatch(ctx, event); err != nil {
			d.metrics.NotificationsFailed.Inc()
			d.logger.Error(err, "failed to dispatch notification", "event_id", event.ID.String())
			if markErr := d.outbox.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				d.logger.Error(markErr, "failed to mark event failed", "event_id", event.ID.String())
			}
			continue
		}

		d.metrics.NotificationsDispatched.Inc()
		if err := d.outbox.MarkProcessed(ctx, event.ID); err != nil {
			d.logger.Error(err, "failed to mark event processed", "event_id", event.ID.String())
		}
	}

	return nil
}

func (d *NotificationDispatcher) dispatch(ctx context.Context, event *model.OutboxEvent) error {
	var n model.Notification
	if err := json.Unmarshal(event.Payload, &n); err != nil {
		return fmt.Errorf("malformed notification payload: %w", err)
	}

	if err := d.broker.Publish(ctx, NotificationChannel, messaging.Message{
		Type:    event.EventType,
		Payload: n,
	}); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	// Email is an optional extra channel. A missing contact or SMTP
	// failure does not fail the event once it reached the broker.
	d.sendEmail(ctx, &n)

	return nil
}

func (d *NotificationDispatcher) sendEmail(ctx context.Context, n *model.Notification) {
	if d.mailer == nil || d.contacts == nil {
		return
	}

	addr, err := d.contacts.GetEmail(ctx, n.RecipientID)
	if err != nil {
		d.logger.Debug("no contact address for recipient", "recipient_id", n.RecipientID.String())
		return
	}

	subject, body := renderEmail(n)
	if err := d.mailer.Send(addr, subject, body); err != nil {
		d.logger.Error(err, "failed to send notification email", "recipient_id", n.RecipientID.String())
	}
}

func renderEmail(n *model.Notification) (subject, body string) {
	switch n.Kind {
	case model.NotificationBookingRequested:
		subject = "New booking request"
		body = fmt.Sprintf("You have a new booking request (%s). Review it on your dashboard.", n.BookingID)
	case model.NotificationBookingAccepted:
		subject = "Your booking was accepted"
		body = fmt.Sprintf("Your booking request (%s) was accepted by the provider.", n.BookingID)
	case model.NotificationBookingRejected:
		subject = "Your booking was rejected"
		body = fmt.Sprintf("Your booking request (%s) was rejected by the provider.", n.BookingID)
	case model.NotificationBookingCancelled:
		subject = "A booking was cancelled"
		body = fmt.Sprintf("Booking %s has been cancelled.", n.BookingID)
	default:
		subject = "Booking update"
		body = fmt.Sprintf("Booking %s was updated.", n.BookingID)
	}
	return subject, body
}
