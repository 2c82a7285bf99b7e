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

type serviceRepository struct {
	BaseRepository
}

func NewServiceRepository(db BaseRepository) repository.ServiceRepository {
	return &serviceRepository{db}
}

func (r *serviceRepository) Create(ctx context.Context, svc *model.Service) error {
	query := `
		INSERT INTO services (
			id, provider_id, name, description, category,
			duration_minutes, price, images, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	svc.ID = uuid.New()
	svc.CreatedAt = time.Now().UTC()
	svc.UpdatedAt = svc.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		svc.ID,
		svc.ProviderID,
		svc.Name,
		svc.Description,
		svc.Category,
		svc.DurationMinutes,
		svc.Price,
		svc.Images,
		svc.IsActive,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, provider_id, name, description, category,
			   duration_minutes, price, images, is_active,
			   created_at, updated_at
		FROM services
		WHERE id = $1
	`
	var svc model.Service
	err := r.db.GetContext(ctx, &svc, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &svc, nil
}

func (r *serviceRepository) Update(ctx context.Context, svc *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, category = $3,
			duration_minutes = $4, price = $5, images = $6,
			is_active = $7, updated_at = $8
		WHERE id = $9
	`
	svc.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		svc.Name,
		svc.Description,
		svc.Category,
		svc.DurationMinutes,
		svc.Price,
		svc.Images,
		svc.IsActive,
		svc.UpdatedAt,
		svc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

var serviceSortFields = map[string]string{
	"created_at":       "created_at",
	"price":            "price",
	"name":             "name",
	"duration_minutes": "duration_minutes",
}

func (r *serviceRepository) List(ctx context.Context, filters *model.ServiceFilters) ([]*model.Service, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argCount)
		args = append(args, *filters.IsActive)
		argCount++
	}

	if filters.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argCount)
		args = append(args, filters.Category)
		argCount++
	}

	if filters.ProviderID != uuid.Nil {
		where += fmt.Sprintf(" AND provider_id = $%d", argCount)
		args = append(args, filters.ProviderID)
		argCount++
	}

	if filters.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM services"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count services: %w", err)
	}

	// Sort column is resolved through a fixed allowlist, never interpolated
	// from caller input.
	sortCol, ok := serviceSortFields[filters.SortField]
	if !ok {
		sortCol = "created_at"
		filters.SortDesc = true
	}
	dir := "ASC"
	if filters.SortDesc {
		dir = "DESC"
	}

	query := `
		SELECT id, provider_id, name, description, category,
			   duration_minutes, price, images, is_active,
			   created_at, updated_at
		FROM services` + where +
		fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", sortCol, dir, argCount, argCount+1)
	args = append(args, filters.PerPage, filters.Offset())

	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list services: %w", err)
	}
	return services, total, nil
}

func (r *serviceRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error) {
	query := `
		SELECT id, provider_id, name, description, category,
			   duration_minutes, price, images, is_active,
			   created_at, updated_at
		FROM services
		WHERE provider_id = $1
		ORDER BY created_at DESC
	`
	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list provider services: %w", err)
	}
	return services, nil
}
