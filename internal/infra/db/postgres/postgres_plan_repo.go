package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PricingPlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, slug, name, role, plan_type, amount_minor, duration_days, is_active, created_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.PricingPlan) error {
	const q = `
INSERT INTO pricing_plans (id, slug, name, role, plan_type, amount_minor, duration_days, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  slug=$2, name=$3, role=$4, plan_type=$5, amount_minor=$6, duration_days=$7, is_active=$8;`
	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Slug, plan.Name, plan.Role, plan.PlanType, plan.AmountMinor, plan.DurationDays, plan.IsActive, plan.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PricingPlan, error) {
	const q = `SELECT ` + planColumns + ` FROM pricing_plans WHERE id=$1;`
	return r.findOne(ctx, tx, q, id)
}

func (r *planRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.PricingPlan, error) {
	const q = `SELECT ` + planColumns + ` FROM pricing_plans WHERE slug=$1;`
	return r.findOne(ctx, tx, q, slug)
}

func (r *planRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.PricingPlan, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	p := &model.PricingPlan{}
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Role, &p.PlanType, &p.AmountMinor, &p.DurationDays, &p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *planRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PricingPlan, error) {
	const q = `SELECT ` + planColumns + ` FROM pricing_plans WHERE is_active=true ORDER BY amount_minor ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PricingPlan
	for rows.Next() {
		p := new(model.PricingPlan)
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Role, &p.PlanType, &p.AmountMinor, &p.DurationDays, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
