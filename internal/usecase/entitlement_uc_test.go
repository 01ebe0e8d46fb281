//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/usecase"
)

type entitlementTestDeps struct {
	subs  *MockSubscriptionRepo
	users *MockUserRepo
	jobs  *MockJobRepo
}

func newEntitlementDeps() *entitlementTestDeps {
	return &entitlementTestDeps{
		subs:  NewMockSubscriptionRepo(),
		users: NewMockUserRepo(),
		jobs:  NewMockJobRepo(),
	}
}

func (d *entitlementTestDeps) applier() usecase.EntitlementApplier {
	return usecase.NewEntitlementApplier(d.subs, d.users, d.jobs, newTestLogger())
}

func completedTxn(planID string) *model.Transaction {
	now := time.Now()
	return &model.Transaction{
		ID: "01TXN", UserID: "user-1", Amount: 5000, OriginalAmount: 5000, Currency: "XAF",
		Status: model.TransactionStatusCompleted, Provider: usecase.GatewayMTN,
		PlanID: &planID, CreatedAt: now, UpdatedAt: now,
	}
}

func TestEntitlementApplier_Subscription(t *testing.T) {
	ctx := context.Background()

	t.Run("should start a fresh subscription when none is running", func(t *testing.T) {
		deps := newEntitlementDeps()
		plan := seekerPlan()

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		subs := deps.subs.All()
		if len(subs) != 1 {
			t.Fatalf("expected one subscription, got %d", len(subs))
		}
		s := subs[0]
		if s.EndDate == nil {
			t.Fatal("expected an end date")
		}
		want := time.Now().Add(30 * 24 * time.Hour)
		if diff := s.EndDate.Sub(want); diff < -time.Minute || diff > time.Minute {
			t.Errorf("expected end ~now+30d, got %v", s.EndDate)
		}
		if s.TransactionID != "01TXN" || s.Type != "seeker-monthly" {
			t.Errorf("unexpected linkage: %+v", s)
		}
	})

	t.Run("should extend a running subscription from its current end date", func(t *testing.T) {
		deps := newEntitlementDeps()
		plan := seekerPlan()
		end := time.Now().Add(10 * 24 * time.Hour)
		_ = deps.subs.Save(ctx, nil, &model.Subscription{
			ID: "sub-1", UserID: "user-1", Type: "seeker-monthly", Status: model.SubscriptionStatusActive,
			StartDate: time.Now().Add(-20 * 24 * time.Hour), EndDate: &end, PlanID: plan.ID,
		})

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		subs := deps.subs.All()
		if len(subs) != 1 {
			t.Fatalf("expected the existing row to be extended, got %d rows", len(subs))
		}
		got := subs[0]
		want := end.Add(30 * 24 * time.Hour)
		if got.EndDate == nil || !got.EndDate.Equal(want) {
			t.Errorf("expected end %v, got %v", want, got.EndDate)
		}
		if got.TransactionID != "01TXN" {
			t.Error("expected the paying transaction to be linked")
		}
	})

	t.Run("should extend a running subscription even when a verification audit row exists", func(t *testing.T) {
		deps := newEntitlementDeps()
		plan := seekerPlan()
		end := time.Now().Add(10 * 24 * time.Hour)
		_ = deps.subs.Save(ctx, nil, &model.Subscription{
			ID: "sub-1", UserID: "user-1", Type: "seeker-monthly", Status: model.SubscriptionStatusActive,
			StartDate: time.Now().Add(-20 * 24 * time.Hour), EndDate: &end, PlanID: plan.ID,
		})
		// Non-expiring verification history must not shadow the dated row.
		_ = deps.subs.Save(ctx, nil, &model.Subscription{
			ID: "sub-audit", UserID: "user-1", Type: "recruiter-verification", Status: model.SubscriptionStatusActive,
			StartDate: time.Now().Add(-60 * 24 * time.Hour), EndDate: nil, PlanID: "plan-v",
		})

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if len(deps.subs.All()) != 2 {
			t.Fatalf("expected no new row, got %d rows", len(deps.subs.All()))
		}
		got, err := deps.subs.FindByID(ctx, nil, "sub-1")
		if err != nil {
			t.Fatalf("running subscription vanished: %v", err)
		}
		want := end.Add(30 * 24 * time.Hour)
		if got.EndDate == nil || !got.EndDate.Equal(want) {
			t.Errorf("expected end %v, got %v", want, got.EndDate)
		}
	})

	t.Run("should not extend an already expired subscription", func(t *testing.T) {
		deps := newEntitlementDeps()
		plan := seekerPlan()
		end := time.Now().Add(-24 * time.Hour)
		_ = deps.subs.Save(ctx, nil, &model.Subscription{
			ID: "sub-old", UserID: "user-1", Type: "seeker-monthly", Status: model.SubscriptionStatusActive,
			StartDate: time.Now().Add(-31 * 24 * time.Hour), EndDate: &end, PlanID: plan.ID,
		})

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if len(deps.subs.All()) != 2 {
			t.Fatalf("expected a fresh row next to the expired one, got %d rows", len(deps.subs.All()))
		}
	})

	t.Run("should verify recruiters buying a recruiter subscription", func(t *testing.T) {
		deps := newEntitlementDeps()
		deps.users.Put(&model.User{ID: "user-1", Role: model.PlanRoleRecruiter})
		plan := &model.PricingPlan{
			ID: "plan-r", Slug: "recruiter-monthly", Name: "Recruiter Monthly", Role: model.PlanRoleRecruiter,
			PlanType: model.PlanTypeSubscription, AmountMinor: 10000, DurationDays: days(30), IsActive: true,
		}

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if deps.users.VerifiedCalls("user-1") != 1 {
			t.Errorf("expected one verification call, got %d", deps.users.VerifiedCalls("user-1"))
		}
	})
}

func TestEntitlementApplier_OneTime(t *testing.T) {
	ctx := context.Background()

	t.Run("should verify the user and keep a non-expiring audit row", func(t *testing.T) {
		deps := newEntitlementDeps()
		deps.users.Put(&model.User{ID: "user-1", Role: model.PlanRoleRecruiter})
		plan := &model.PricingPlan{
			ID: "plan-v", Slug: "recruiter-verification", Name: "Verification", Role: model.PlanRoleRecruiter,
			PlanType: model.PlanTypeOneTime, AmountMinor: 5000, IsActive: true,
		}

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if deps.users.VerifiedCalls("user-1") != 1 {
			t.Errorf("expected one verification call, got %d", deps.users.VerifiedCalls("user-1"))
		}
		subs := deps.subs.All()
		if len(subs) != 1 || subs[0].EndDate != nil {
			t.Errorf("expected one non-expiring audit row, got %+v", subs)
		}
	})
}

func TestEntitlementApplier_JobTier(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply the tier and add-ons recorded at initiation", func(t *testing.T) {
		deps := newEntitlementDeps()
		deps.jobs.Put(&model.Job{ID: "job-1", UserID: "user-1", HiringTier: model.HiringTierBasic})
		plan := &model.PricingPlan{
			ID: "plan-j", Slug: "job-premium", Name: "Premium", Role: model.PlanRoleRecruiter,
			PlanType: model.PlanTypePerJob, AmountMinor: 7500, IsActive: true,
		}
		txn := completedTxn(plan.ID)
		jobID := "job-1"
		txn.JobID = &jobID
		txn.Metadata = model.AuditTrail{AddOnSlugs: []string{"addon-featured"}}

		if err := deps.applier().Apply(ctx, nil, txn, plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		updates := deps.jobs.Updates()
		if len(updates) != 1 {
			t.Fatalf("expected one tier update, got %d", len(updates))
		}
		u := updates[0]
		if u.Tier != model.HiringTierPremium || !u.Featured || u.Promoted {
			t.Errorf("expected premium+featured, got %+v", u)
		}
		if u.TransactionID != "01TXN" {
			t.Error("expected transaction linkage on the job")
		}
	})

	t.Run("should map the social boost add-on to promotion", func(t *testing.T) {
		deps := newEntitlementDeps()
		deps.jobs.Put(&model.Job{ID: "job-1", UserID: "user-1"})
		plan := &model.PricingPlan{
			ID: "plan-s", Slug: "job-standard", Name: "Standard", Role: model.PlanRoleRecruiter,
			PlanType: model.PlanTypePerJob, AmountMinor: 3000, IsActive: true,
		}
		txn := completedTxn(plan.ID)
		jobID := "job-1"
		txn.JobID = &jobID
		txn.Metadata = model.AuditTrail{AddOnSlugs: []string{"addon-social-boost"}}

		if err := deps.applier().Apply(ctx, nil, txn, plan); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		u := deps.jobs.Updates()[0]
		if u.Tier != model.HiringTierStandard || u.Featured || !u.Promoted {
			t.Errorf("expected standard+promoted, got %+v", u)
		}
	})

	t.Run("should fail when the transaction has no job linkage", func(t *testing.T) {
		deps := newEntitlementDeps()
		plan := &model.PricingPlan{
			ID: "plan-j", Slug: "job-premium", Name: "Premium", Role: model.PlanRoleRecruiter,
			PlanType: model.PlanTypePerJob, AmountMinor: 7500, IsActive: true,
		}

		if err := deps.applier().Apply(ctx, nil, completedTxn(plan.ID), plan); err == nil {
			t.Fatal("expected an error")
		}
	})
}
