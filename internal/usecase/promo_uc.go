// File: internal/usecase/promo_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PromoUseCase = (*promoUC)(nil)

type PromoUseCase interface {
	// Validate checks a code's eligibility for the given plan, user and base
	// amount. An ineligible code is a normal outcome (Valid=false + Reason),
	// not an error; errors are reserved for persistence faults.
	Validate(ctx context.Context, tx repository.Tx, code, planSlug, userID string, amount int64) (*model.PromoValidation, error)
}

type promoUC struct {
	promos repository.PromoCodeRepository
	log    *zerolog.Logger
}

func NewPromoUseCase(promos repository.PromoCodeRepository, logger *zerolog.Logger) *promoUC {
	return &promoUC{promos: promos, log: logger}
}

func (u *promoUC) Validate(ctx context.Context, tx repository.Tx, code, planSlug, userID string, amount int64) (*model.PromoValidation, error) {
	v, err := u.promos.ValidateAtomic(ctx, tx, code, planSlug, userID, amount)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		u.log.Debug().Str("code", code).Str("reason", v.Reason).Msg("promo code rejected")
	}
	return v, nil
}
