package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
)

var _ repository.PromoCodeRepository = (*promoRepo)(nil)

type promoRepo struct{ pool *pgxpool.Pool }

func NewPromoRepo(pool *pgxpool.Pool) *promoRepo {
	return &promoRepo{pool: pool}
}

const promoColumns = `id, code, discount_type, discount_value, max_uses, current_uses, min_amount, max_discount, applicable_plan_slugs, starts_at, expires_at, is_active`

func (r *promoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PromoCode, error) {
	const q = `SELECT ` + promoColumns + ` FROM promo_codes WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPromo(row)
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	p := &model.PromoCode{}
	if err := row.Scan(&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.MaxUses, &p.CurrentUses,
		&p.MinAmount, &p.MaxDiscount, &p.ApplicablePlanSlugs, &p.StartsAt, &p.ExpiresAt, &p.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

// ValidateAtomic locks the promo row and evaluates every eligibility rule
// while the lock is held, so the usage-cap check cannot race a concurrent
// validation. An ineligible code is a normal Valid=false outcome.
func (r *promoRepo) ValidateAtomic(ctx context.Context, tx repository.Tx, code, planSlug, userID string, amount int64) (*model.PromoValidation, error) {
	q := `SELECT ` + promoColumns + ` FROM promo_codes WHERE UPPER(code)=UPPER($1)`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	p, err := scanPromo(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &model.PromoValidation{Valid: false, Reason: "unknown code"}, nil
		}
		return nil, err
	}

	if reason := ineligibleReason(p, planSlug, amount, time.Now()); reason != "" {
		return &model.PromoValidation{Valid: false, PromoCodeID: p.ID, Reason: reason}, nil
	}

	// Per-user redemption history: one successful redemption per user.
	const redeemedQ = `SELECT COUNT(1) FROM promo_code_redemptions WHERE promo_code_id=$1 AND user_id=$2;`
	redRow, err := pickRow(ctx, r.pool, tx, redeemedQ, p.ID, userID)
	if err != nil {
		return nil, err
	}
	var redeemed int
	if err := redRow.Scan(&redeemed); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if redeemed > 0 {
		return &model.PromoValidation{Valid: false, PromoCodeID: p.ID, Reason: "already redeemed by this user"}, nil
	}

	return &model.PromoValidation{
		Valid:         true,
		PromoCodeID:   p.ID,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		MaxDiscount:   p.MaxDiscount,
	}, nil
}

func ineligibleReason(p *model.PromoCode, planSlug string, amount int64, now time.Time) string {
	if !p.IsActive {
		return "code inactive"
	}
	if now.Before(p.StartsAt) {
		return "code not yet active"
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return "code expired"
	}
	if p.MaxUses != nil && p.CurrentUses >= *p.MaxUses {
		return "usage limit reached"
	}
	if p.MinAmount != nil && amount < *p.MinAmount {
		return "amount below minimum"
	}
	if len(p.ApplicablePlanSlugs) > 0 {
		found := false
		for _, s := range p.ApplicablePlanSlugs {
			if s == planSlug {
				found = true
				break
			}
		}
		if !found {
			return "not applicable to this plan"
		}
	}
	return ""
}

// IncrementUsage bumps current_uses, re-checking the cap so a concurrent
// completion cannot push the counter past max_uses.
func (r *promoRepo) IncrementUsage(ctx context.Context, tx repository.Tx, promoCodeID string) error {
	const q = `
UPDATE promo_codes
   SET current_uses = current_uses + 1
 WHERE id = $1
   AND (max_uses IS NULL OR current_uses < max_uses);`
	_, err := execSQL(ctx, r.pool, tx, q, promoCodeID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// SaveRedemption inserts the redemption row; a webhook replay hitting the
// same (promo, transaction) pair is a silent no-op.
func (r *promoRepo) SaveRedemption(ctx context.Context, tx repository.Tx, red *model.PromoCodeRedemption) error {
	const q = `
INSERT INTO promo_code_redemptions (id, promo_code_id, user_id, transaction_id, discount_applied, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (promo_code_id, transaction_id) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, red.ID, red.PromoCodeID, red.UserID, red.TransactionID, red.DiscountApplied, red.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
