// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementApplier = (*entitlementApplier)(nil)

// EntitlementApplier applies the business effect of a completed transaction:
// a subscription period, a recruiter verification, or a job hiring tier.
// It is invoked exactly once per transaction, inside the same storage
// transaction that flipped the row to completed.
type EntitlementApplier interface {
	Apply(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error
}

type entitlementApplier struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
	jobs  repository.JobRepository
	log   *zerolog.Logger
	now   func() time.Time
}

func NewEntitlementApplier(subs repository.SubscriptionRepository, users repository.UserRepository, jobs repository.JobRepository, logger *zerolog.Logger) *entitlementApplier {
	return &entitlementApplier{subs: subs, users: users, jobs: jobs, log: logger, now: time.Now}
}

func (a *entitlementApplier) Apply(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error {
	if txn == nil || plan.IsZero() {
		return domain.ErrInvalidArgument
	}
	switch plan.PlanType {
	case model.PlanTypeSubscription:
		if err := a.applySubscription(ctx, tx, txn, plan); err != nil {
			return err
		}
		if plan.Role == model.PlanRoleRecruiter {
			return a.users.SetVerified(ctx, tx, txn.UserID)
		}
		return nil
	case model.PlanTypeOneTime:
		return a.applyVerification(ctx, tx, txn, plan)
	case model.PlanTypePerJob:
		return a.applyJobTier(ctx, tx, txn, plan)
	default:
		return domain.ErrInvalidArgument
	}
}

// applySubscription extends the user's current subscription when it still
// runs, otherwise starts a fresh one. The decision lives in
// decideSubscription so both outcomes share one tested branch point.
func (a *entitlementApplier) applySubscription(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error {
	existing, err := a.subs.FindLatestActiveByUser(ctx, tx, txn.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	sub, err := decideSubscription(existing, plan, txn, a.now())
	if err != nil {
		return err
	}
	if err := a.subs.Save(ctx, tx, sub); err != nil {
		return err
	}
	a.log.Info().Str("user_id", txn.UserID).Str("subscription_id", sub.ID).Time("end", derefTime(sub.EndDate)).Msg("subscription granted")
	return nil
}

// decideSubscription is the single extend-vs-create decision point. An
// existing subscription whose end date is still in the future is extended in
// place; anything else yields a new row starting now.
func decideSubscription(existing *model.Subscription, plan *model.PricingPlan, txn *model.Transaction, now time.Time) (*model.Subscription, error) {
	if existing != nil && existing.EndDate != nil && existing.EndDate.After(now) {
		end := existing.EndDate.Add(plan.Duration())
		existing.EndDate = &end
		existing.Type = plan.Slug
		existing.PlanID = plan.ID
		existing.TransactionID = txn.ID
		existing.Status = model.SubscriptionStatusActive
		return existing, nil
	}
	return model.NewSubscription(uuid.NewString(), txn.UserID, plan, txn.ID, now)
}

// applyVerification marks the recruiter verified and keeps a non-expiring
// subscription row purely as payment history.
func (a *entitlementApplier) applyVerification(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error {
	if err := a.users.SetVerified(ctx, tx, txn.UserID); err != nil {
		return err
	}
	audit, err := model.NewSubscription(uuid.NewString(), txn.UserID, plan, txn.ID, a.now())
	if err != nil {
		return err
	}
	audit.EndDate = nil
	return a.subs.Save(ctx, tx, audit)
}

func (a *entitlementApplier) applyJobTier(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error {
	if txn.JobID == nil {
		return domain.ErrInvalidArgument
	}
	tier, featured, promoted := computeHiringTier(plan.Slug, txn.Metadata.AddOnSlugs)
	if err := a.jobs.UpdateHiringTier(ctx, tx, *txn.JobID, tier, featured, promoted, txn.ID); err != nil {
		return err
	}
	a.log.Info().Str("job_id", *txn.JobID).Str("tier", tier).Bool("featured", featured).Bool("promoted", promoted).Msg("job tier updated")
	return nil
}

// computeHiringTier derives the hiring tier from the paid plan slug and the
// add-on slugs recorded at initiation time.
func computeHiringTier(planSlug string, addOnSlugs []string) (tier string, featured, promoted bool) {
	switch {
	case strings.Contains(planSlug, "premium"):
		tier = model.HiringTierPremium
	case strings.Contains(planSlug, "standard"):
		tier = model.HiringTierStandard
	default:
		tier = model.HiringTierBasic
	}
	for _, s := range addOnSlugs {
		switch {
		case strings.Contains(s, "featured"):
			featured = true
		case strings.Contains(s, "social"):
			promoted = true
		}
	}
	return tier, featured, promoted
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
