package repository

import (
	"context"

	"jobboard-billing/internal/domain/model"
)

type PricingPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.PricingPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PricingPlan, error)
	// FindBySlug returns the plan regardless of its active flag; callers
	// decide whether an inactive plan is acceptable.
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.PricingPlan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.PricingPlan, error)
}
