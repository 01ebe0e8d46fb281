package repository

import (
	"context"

	"jobboard-billing/internal/domain/model"
)

type JobRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	// UpdateHiringTier sets the job's tier fields and links the paying
	// transaction.
	UpdateHiringTier(ctx context.Context, tx Tx, jobID, tier string, featured, promoted bool, transactionID string) error
}
