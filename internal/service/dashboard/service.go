package dashboard

import (
	"context"

	"github.com/google/uuid"

	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
	"github.com/openslot/booking-api/pkg/errors"
)

// Dashboard is the per-user view: services offered, bookings made as a
// client, bookings received as a provider.
type Dashboard struct {
	Offered    []*model.Service `json:"offered"`
	AsClient   []*model.Booking `json:"as_client"`
	AsProvider []*model.Booking `json:"as_provider"`
}

// Service projects catalog and ledger reads into the dashboard view. It
// holds no state of its own; staleness equals the caller's refresh interval.
type Service struct {
	services repository.ServiceRepository
	bookings repository.BookingRepository
}

func NewService(services repository.ServiceRepository, bookings repository.BookingRepository) *Service {
	return &Service{
		services: services,
		bookings: bookings,
	}
}

func (s *Service) GetDashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	offered, err := s.services.ListByProvider(ctx, userID)
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	asClient, _, err := s.bookings.ListForUser(ctx, userID, dashboardFilters(model.BookingRoleClient))
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	asProvider, _, err := s.bookings.ListForUser(ctx, userID, dashboardFilters(model.BookingRoleProvider))
	if err != nil {
		return nil, errors.Unavailable(err)
	}

	return &Dashboard{
		Offered:    offered,
		AsClient:   asClient,
		AsProvider: asProvider,
	}, nil
}

func dashboardFilters(role model.BookingRole) *model.BookingFilters {
	f := &model.BookingFilters{
		Role: role,
		Pagination: model.Pagination{
			Page:    1,
			PerPage: model.MaxPerPage,
		},
	}
	return f
}
