package repository

import (
	"context"

	"jobboard-billing/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// SetVerified marks a recruiter account verified. Idempotent.
	SetVerified(ctx context.Context, tx Tx, userID string) error
}
