// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/adapter"
	"jobboard-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// GatewayConfig carries the static parameters every initiation needs.
type GatewayConfig struct {
	Currency       string
	ReturnURL      string
	NotifyURL      string
	Country        string
	DefaultGateway string // fallback shortcode when prefix resolution fails
}

// InitiationResult is what the caller gets back from a payment initiation.
// CheckoutURL is set only when the direct push could not be completed and
// the provider's hosted checkout page should be used instead.
type InitiationResult struct {
	Transaction *model.Transaction
	CheckoutURL string
}

type PaymentUseCase interface {
	// InitiateSubscription starts a payment for a subscription or one-time
	// verification plan.
	InitiateSubscription(ctx context.Context, userID, planSlug, promoCode, phone string) (*InitiationResult, error)
	// InitiateJobUpgrade starts a payment for a per-job hiring tier,
	// aggregating zero or more add-on plans into a single total.
	InitiateJobUpgrade(ctx context.Context, userID, jobID, planSlug string, addOnSlugs []string, promoCode, phone string) (*InitiationResult, error)
}

type paymentUC struct {
	plans   repository.PricingPlanRepository
	txns    repository.TransactionRepository
	jobs    repository.JobRepository
	promoUC PromoUseCase
	gateway adapter.GatewayClient
	cfg     GatewayConfig
	log     *zerolog.Logger
}

func NewPaymentUseCase(
	plans repository.PricingPlanRepository,
	txns repository.TransactionRepository,
	jobs repository.JobRepository,
	promoUC PromoUseCase,
	gateway adapter.GatewayClient,
	cfg GatewayConfig,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{plans: plans, txns: txns, jobs: jobs, promoUC: promoUC, gateway: gateway, cfg: cfg, log: logger}
}

func (u *paymentUC) InitiateSubscription(ctx context.Context, userID, planSlug, promoCode, phone string) (*InitiationResult, error) {
	plan, err := u.loadActivePlan(ctx, planSlug)
	if err != nil {
		return nil, err
	}
	if plan.PlanType == model.PlanTypePerJob {
		return nil, domain.NewValidationError("plan %s is a per-job upgrade, use the job payment flow", planSlug)
	}
	return u.initiate(ctx, userID, plan, plan.AmountMinor, nil, nil, promoCode, phone)
}

func (u *paymentUC) InitiateJobUpgrade(ctx context.Context, userID, jobID, planSlug string, addOnSlugs []string, promoCode, phone string) (*InitiationResult, error) {
	plan, err := u.loadActivePlan(ctx, planSlug)
	if err != nil {
		return nil, err
	}
	if plan.PlanType != model.PlanTypePerJob {
		return nil, domain.NewValidationError("plan %s is not a per-job upgrade", planSlug)
	}
	if _, err := u.jobs.FindByID(ctx, repository.NoTX, jobID); err != nil {
		return nil, err
	}

	total := plan.AmountMinor
	for _, slug := range addOnSlugs {
		addOn, err := u.loadActivePlan(ctx, slug)
		if err != nil {
			return nil, err
		}
		total += addOn.AmountMinor
	}
	return u.initiate(ctx, userID, plan, total, &jobID, addOnSlugs, promoCode, phone)
}

func (u *paymentUC) loadActivePlan(ctx context.Context, slug string) (*model.PricingPlan, error) {
	plan, err := u.plans.FindBySlug(ctx, repository.NoTX, slug)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() || !plan.IsActive {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

// initiate walks the shared state machine: resolve gateway, validate promo,
// compute the discounted amount, persist a pending transaction, then talk to
// the provider. The transaction row is never deleted on a later failure; it
// stays pending for webhook or polling reconciliation.
func (u *paymentUC) initiate(ctx context.Context, userID string, plan *model.PricingPlan, baseAmount int64, jobID *string, addOnSlugs []string, promoCode, phone string) (*InitiationResult, error) {
	log := u.log.With().Str("user_id", userID).Str("plan", plan.Slug).Logger()

	shortcode, err := ResolveGateway(phone, u.cfg.DefaultGateway)
	if err != nil {
		return nil, err
	}

	// An invalid promo code is a hard failure for the whole initiation,
	// never a silent no-discount fallback.
	var promo *model.PromoValidation
	if promoCode != "" {
		promo, err = u.promoUC.Validate(ctx, repository.NoTX, promoCode, plan.Slug, userID, baseAmount)
		if err != nil {
			return nil, err
		}
		if !promo.Valid {
			return nil, domain.NewValidationError("promo code %s: %s", promoCode, promo.Reason)
		}
	}

	disc, err := ComputeDiscount(baseAmount, promo)
	if err != nil {
		return nil, err
	}
	if disc.FinalAmount <= 0 {
		return nil, domain.NewValidationError("final amount must be positive, got %d", disc.FinalAmount)
	}

	txn, err := model.NewTransaction(newTransactionID(), userID, u.cfg.Currency, shortcode, phone, disc)
	if err != nil {
		return nil, err
	}
	txn.PlanID = &plan.ID
	txn.JobID = jobID
	if promo != nil {
		txn.PromoCodeID = &promo.PromoCodeID
	}
	txn.Metadata = model.AuditTrail{Gateway: shortcode, AddOnSlugs: addOnSlugs}
	if err := u.txns.Save(ctx, repository.NoTX, txn); err != nil {
		return nil, err
	}

	init, err := u.gateway.Initialize(ctx, disc.FinalAmount, u.cfg.Currency, txn.ID, u.cfg.ReturnURL, u.cfg.NotifyURL, u.cfg.Country)
	if err != nil {
		log.Error().Err(err).Str("txn_id", txn.ID).Msg("gateway initialize failed")
		return nil, err
	}
	if len(init.SupportedProviders) > 0 && !contains(init.SupportedProviders, shortcode) {
		return nil, domain.NewValidationError("gateway %s not supported for this transaction", shortcode)
	}

	// Record the provider reference and checkout URL before attempting the
	// push, so a webhook can match this transaction even if the push step
	// (or this process) dies. Only the new fields are written; the
	// repository merges them into the stored trail.
	refDelta := model.AuditTrail{
		GatewayReference: init.TransactionReference,
		CheckoutURL:      init.TransactionURL,
	}
	if init.TransactionReference != "" {
		txn.ProviderReference = &init.TransactionReference
	}
	if err := u.txns.SetProviderReference(ctx, repository.NoTX, txn.ID, init.TransactionReference, refDelta); err != nil {
		return nil, err
	}
	txn.Metadata = txn.Metadata.Merge(refDelta)

	push, pushErr := u.gateway.Push(ctx, disc.FinalAmount, u.cfg.Currency, txn.ID, phone, shortcode)
	if pushErr != nil {
		if domain.IsFallbackEligible(pushErr) && init.TransactionURL != "" {
			// Degrade, don't fail: the payer finishes on the hosted page.
			log.Warn().Err(pushErr).Str("txn_id", txn.ID).Msg("push blocked, falling back to hosted checkout")
			return &InitiationResult{Transaction: txn, CheckoutURL: init.TransactionURL}, nil
		}
		log.Error().Err(pushErr).Str("txn_id", txn.ID).Msg("gateway push failed")
		return nil, pushErr
	}

	pushDelta := model.AuditTrail{
		ExternalID: push.ExternalID,
		PushStatus: push.Status,
		Gateway:    push.Gateway,
	}
	if err := u.txns.SaveMetadata(ctx, repository.NoTX, txn.ID, pushDelta); err != nil {
		return nil, err
	}
	txn.Metadata = txn.Metadata.Merge(pushDelta)
	log.Info().Str("txn_id", txn.ID).Int64("amount", disc.FinalAmount).Str("gateway", shortcode).Msg("mobile money push sent")
	return &InitiationResult{Transaction: txn}, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// newTransactionID returns a ULID: sortable, and safe to hand to the
// provider as our transaction id.
func newTransactionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
