package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openslot/booking-api/internal/repository"
)

type contactRepository struct {
	BaseRepository
}

// NewContactRepository reads the user_contacts table, a read model
// provisioned by the identity system.
func NewContactRepository(db BaseRepository) repository.ContactRepository {
	return &contactRepository{db}
}

func (r *contactRepository) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := r.db.GetContext(ctx, &email, "SELECT email FROM user_contacts WHERE user_id = $1", userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve contact email: %w", err)
	}
	return email, nil
}
