package repository

import (
	"context"

	"jobboard-billing/internal/domain/model"
)

type PromoCodeRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.PromoCode, error)

	// ValidateAtomic performs the full eligibility check (active flag, date
	// window, usage cap, per-user redemption history, plan applicability,
	// minimum amount) while holding a row lock on the code so the usage-cap
	// check is not racy against concurrent validations. An ineligible code
	// comes back as Valid=false with a Reason, not as an error.
	ValidateAtomic(ctx context.Context, tx Tx, code, planSlug, userID string, amount int64) (*model.PromoValidation, error)

	// IncrementUsage bumps current_uses by one.
	IncrementUsage(ctx context.Context, tx Tx, promoCodeID string) error

	// SaveRedemption inserts the (promo, transaction) redemption row. A
	// replayed insert for the same pair is a no-op.
	SaveRedemption(ctx context.Context, tx Tx, r *model.PromoCodeRedemption) error
}
