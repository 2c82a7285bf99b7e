package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/openslot/booking-api/internal/model"
	"github.com/openslot/booking-api/internal/repository"
	"github.com/openslot/booking-api/pkg/errors"
	"github.com/openslot/booking-api/pkg/logger"
)

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
)

// Service is the service catalog: provider-authored offerings. The booking
// ledger resolves services through it on every create, so lookups go
// through a short-TTL cache.
type Service struct {
	repo   repository.ServiceRepository
	cache  *gocache.Cache
	logger *logger.Logger
}

func NewService(repo repository.ServiceRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  gocache.New(cacheTTL, cacheCleanup),
		logger: logger,
	}
}

func (s *Service) CreateService(ctx context.Context, providerID uuid.UUID, req *model.CreateServiceRequest) (*model.Service, error) {
	if !model.ValidDuration(req.DurationMinutes) {
		return nil, errors.Validation(fmt.Sprintf("duration must be one of %v minutes", model.ServiceDurations), nil)
	}
	if req.Price < 0 {
		return nil, errors.Validation("price must be non-negative", nil)
	}

	svc := &model.Service{
		ProviderID:      providerID,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Images:          req.Images,
		IsActive:        true,
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, errors.Unavailable(err)
	}

	s.logger.Info("service created", "service_id", svc.ID.String(), "provider_id", providerID.String())
	return svc, nil
}

// GetService resolves a service by id. Inactive services still resolve;
// the ledger decides whether they are bookable.
func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		// Copy so callers never mutate the cached entry.
		svc := *cached.(*model.Service)
		return &svc, nil
	}

	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("service", err)
		}
		return nil, errors.Unavailable(err)
	}

	clone := *svc
	s.cache.Set(id.String(), &clone, cacheTTL)
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	if svc.ProviderID != actorID {
		return nil, errors.Forbidden("only the provider may modify this service")
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Category != nil {
		svc.Category = *req.Category
	}
	if req.DurationMinutes != nil {
		if !model.ValidDuration(*req.DurationMinutes) {
			return nil, errors.Validation(fmt.Sprintf("duration must be one of %v minutes", model.ServiceDurations), nil)
		}
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, errors.Validation("price must be non-negative", nil)
		}
		svc.Price = *req.Price
	}
	if req.Images != nil {
		svc.Images = *req.Images
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("service", err)
		}
		return nil, errors.Unavailable(err)
	}

	s.cache.Delete(id.String())
	return svc, nil
}

// DeactivateService soft-disables a service. Existing bookings stay
// resolvable; new booking attempts fail with ServiceInactive.
func (s *Service) DeactivateService(ctx context.Context, actorID, id uuid.UUID) (*model.Service, error) {
	inactive := false
	return s.UpdateService(ctx, actorID, id, &model.UpdateServiceRequest{IsActive: &inactive})
}

func (s *Service) ListServices(ctx context.Context, filters *model.ServiceFilters) ([]*model.Service, int, error) {
	filters.Normalize()
	services, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.Unavailable(err)
	}
	return services, total, nil
}

func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error) {
	services, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	return services, nil
}
