package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
	"jobboard-billing/internal/infra/metrics"
	red "jobboard-billing/internal/infra/redis"
)

var _ repository.PricingPlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Plans change rarely
// and every initiation reads one, so the hit rate is high.
type planRepoCacheDecorator struct {
	inner repository.PricingPlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PricingPlanRepository, cache red.RedisClient, ttl time.Duration) repository.PricingPlanRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PricingPlan, error) {
	return d.cached(ctx, tx, fmt.Sprintf("plan:id:%s", id), func() (*model.PricingPlan, error) {
		return d.inner.FindByID(ctx, tx, id)
	})
}

func (d *planRepoCacheDecorator) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.PricingPlan, error) {
	return d.cached(ctx, tx, fmt.Sprintf("plan:slug:%s", slug), func() (*model.PricingPlan, error) {
		return d.inner.FindBySlug(ctx, tx, slug)
	})
}

func (d *planRepoCacheDecorator) cached(ctx context.Context, tx repository.Tx, key string, load func() (*model.PricingPlan, error)) (*model.PricingPlan, error) {
	// Reads inside a DB transaction bypass the cache so promo and
	// entitlement logic always see committed plan state.
	if tx != nil {
		return load()
	}
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plan model.PricingPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}
	metrics.IncCacheRequest("plan", "miss")
	plan, err := load()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return plan, nil
}

// Writes invalidate both lookup keys and the active list.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.PricingPlan) error {
	_ = d.cache.Del(ctx,
		fmt.Sprintf("plan:id:%s", plan.ID),
		fmt.Sprintf("plan:slug:%s", plan.Slug),
		"plans:active",
	)
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PricingPlan, error) {
	const key = "plans:active"
	if tx == nil {
		if val, err := d.cache.Get(ctx, key); err == nil {
			var plans []*model.PricingPlan
			if json.Unmarshal([]byte(val), &plans) == nil {
				metrics.IncCacheRequest("plan_list", "hit")
				return plans, nil
			}
		}
		metrics.IncCacheRequest("plan_list", "miss")
	}
	plans, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if tx == nil && len(plans) > 0 {
		if b, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return plans, nil
}
