package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
)

// EventType is the outbox event type carrying booking notifications.
const EventType = "booking_notification"

// Service stages notification events in the outbox. The dispatch worker
// picks them up asynchronously, so the booking write path never waits on a
// broker or SMTP round trip.
type Service struct {
	outbox repository.OutboxRepository
}

func NewService(outbox repository.OutboxRepository) *Service {
	return &Service{outbox: outbox}
}

func (s *Service) Emit(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: EventType,
		Payload:   payload,
	}

	if err := s.outbox.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to stage notification: %w", err)
	}
	return nil
}
