package model

import (
	"time"

	"jobboard-billing/internal/domain"
)

type PlanType string

const (
	PlanTypeSubscription PlanType = "subscription"
	PlanTypeOneTime      PlanType = "one_time"
	PlanTypePerJob       PlanType = "per_job"
)

type PlanRole string

const (
	PlanRoleJobSeeker PlanRole = "job_seeker"
	PlanRoleRecruiter PlanRole = "recruiter"
)

// PricingPlan represents a purchasable offering: a recurring subscription,
// a one-time recruiter verification grant, or a per-job posting upgrade.
// Amounts are stored in minor currency units.
type PricingPlan struct {
	ID           string
	Slug         string
	Name         string
	Role         PlanRole
	PlanType     PlanType
	AmountMinor  int64
	DurationDays *int // subscriptions only
	IsActive     bool
	CreatedAt    time.Time
}

func (p *PricingPlan) IsZero() bool { return p == nil || p.ID == "" }

// Duration returns the subscription length. Zero for plans without one.
func (p *PricingPlan) Duration() time.Duration {
	if p.DurationDays == nil {
		return 0
	}
	return time.Duration(*p.DurationDays) * 24 * time.Hour
}

// NewPricingPlan validates and constructs a plan.
func NewPricingPlan(id, slug, name string, role PlanRole, planType PlanType, amountMinor int64, durationDays *int) (*PricingPlan, error) {
	if id == "" || slug == "" || name == "" || amountMinor <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if planType == PlanTypeSubscription && (durationDays == nil || *durationDays <= 0) {
		return nil, domain.ErrInvalidArgument
	}
	return &PricingPlan{
		ID:           id,
		Slug:         slug,
		Name:         name,
		Role:         role,
		PlanType:     planType,
		AmountMinor:  amountMinor,
		DurationDays: durationDays,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}, nil
}
