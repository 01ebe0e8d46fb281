// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookOutcome tells the transport layer how a notification was handled.
type WebhookOutcome string

const (
	OutcomeCompleted WebhookOutcome = "completed"
	OutcomeFailed    WebhookOutcome = "failed"
	OutcomeDuplicate WebhookOutcome = "duplicate" // already processed, acked again
	OutcomePending   WebhookOutcome = "pending"   // no new information, acked
)

// WebhookResult pairs the outcome with the matched transaction.
type WebhookResult struct {
	Outcome     WebhookOutcome
	Transaction *model.Transaction
}

type WebhookUseCase interface {
	// Process matches a normalized gateway notification to a transaction and
	// applies the idempotent state transition. domain.ErrNotFound means no
	// transaction matched (the provider should retry later); any other error
	// is an internal fault the provider should also retry.
	Process(ctx context.Context, n *model.GatewayNotification) (*WebhookResult, error)
}

// webhookPayload covers both historical notification shapes: the nested
// data.* form and the flat top-level form.
type webhookPayload struct {
	Data *struct {
		TransactionID     string `json:"transaction_id"`
		TransactionStatus string `json:"transaction_status"`
		Gateway           string `json:"gateway"`
	} `json:"data"`
	Status            string `json:"status"`
	TransactionID     string `json:"transaction_id"`
	Reference         string `json:"reference"`
	ExternalReference string `json:"external_reference"`
	Gateway           string `json:"gateway"`
}

// ParseNotification normalizes a raw webhook body into a GatewayNotification.
func ParseNotification(body []byte) (*model.GatewayNotification, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, domain.NewValidationError("malformed webhook payload: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	n := &model.GatewayNotification{Raw: raw}
	if p.Data != nil && p.Data.TransactionID != "" {
		n.ExternalReference = p.Data.TransactionID
		n.Status = p.Data.TransactionStatus
		n.Gateway = p.Data.Gateway
	} else {
		n.Status = p.Status
		n.Gateway = p.Gateway
		// flat shape carries the reference under several historical names
		for _, ref := range []string{p.ExternalReference, p.Reference, p.TransactionID} {
			if ref != "" {
				n.ExternalReference = ref
				break
			}
		}
	}
	if n.ExternalReference == "" || n.Status == "" {
		return nil, domain.NewValidationError("webhook payload missing transaction reference or status")
	}
	return n, nil
}

type webhookUC struct {
	txns         repository.TransactionRepository
	plans        repository.PricingPlanRepository
	promos       repository.PromoCodeRepository
	entitlements EntitlementApplier
	tm           repository.TransactionManager
	log          *zerolog.Logger
	now          func() time.Time
}

func NewWebhookUseCase(
	txns repository.TransactionRepository,
	plans repository.PricingPlanRepository,
	promos repository.PromoCodeRepository,
	entitlements EntitlementApplier,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *webhookUC {
	return &webhookUC{txns: txns, plans: plans, promos: promos, entitlements: entitlements, tm: tm, log: logger, now: time.Now}
}

func (u *webhookUC) Process(ctx context.Context, n *model.GatewayNotification) (*WebhookResult, error) {
	txn, err := u.match(ctx, n.ExternalReference)
	if err != nil {
		return nil, err
	}
	log := u.log.With().Str("txn_id", txn.ID).Str("status", n.Status).Logger()

	// Cheap duplicate short-circuit; the authoritative gate is the
	// conditional update below.
	if txn.Status == model.TransactionStatusCompleted && txn.CallbackReceivedAt != nil {
		log.Debug().Msg("duplicate webhook for completed transaction")
		return &WebhookResult{Outcome: OutcomeDuplicate, Transaction: txn}, nil
	}

	switch normalizeGatewayStatus(n.Status) {
	case "SUCCESS":
		outcome, err := u.applyCompletion(ctx, txn, n)
		if err != nil {
			return nil, err
		}
		return &WebhookResult{Outcome: outcome, Transaction: txn}, nil
	case "FAILED", "CANCELLED":
		outcome, err := u.applyFailure(ctx, txn, n)
		if err != nil {
			return nil, err
		}
		return &WebhookResult{Outcome: outcome, Transaction: txn}, nil
	default:
		// PENDING and friends carry no new information.
		log.Debug().Msg("non-terminal webhook status, acknowledged")
		return &WebhookResult{Outcome: OutcomePending, Transaction: txn}, nil
	}
}

// match looks the transaction up by provider reference first, then falls
// back to treating the value as our own transaction id for providers that
// echo the caller's id back.
func (u *webhookUC) match(ctx context.Context, ref string) (*model.Transaction, error) {
	txn, err := u.txns.FindByProviderReference(ctx, repository.NoTX, ref)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return u.txns.FindByID(ctx, repository.NoTX, ref)
}

// applyCompletion is the success transition. The conditional update is the
// sole gate: zero rows affected means a concurrent delivery already
// completed or failed the transaction, and no entitlement is reapplied.
func (u *webhookUC) applyCompletion(ctx context.Context, txn *model.Transaction, n *model.GatewayNotification) (WebhookOutcome, error) {
	outcome := OutcomeDuplicate
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		won, err := u.txns.UpdateStatusIfPending(ctx, tx, txn.ID, model.TransactionStatusCompleted, u.now())
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		// Only the delta is written; the repository merges it into the
		// stored trail so fields recorded by other paths survive.
		delta := model.AuditTrail{
			CallbackStatus: n.Status,
			Gateway:        n.Gateway,
		}
		if err := u.txns.SaveMetadata(ctx, tx, txn.ID, delta); err != nil {
			return err
		}
		txn.Metadata = txn.Metadata.Merge(delta)

		if txn.PlanID == nil {
			return domain.ErrInvalidArgument
		}
		plan, err := u.plans.FindByID(ctx, tx, *txn.PlanID)
		if err != nil {
			return err
		}
		if err := u.entitlements.Apply(ctx, tx, txn, plan); err != nil {
			return err
		}

		if txn.PromoCodeID != nil {
			if err := u.promos.IncrementUsage(ctx, tx, *txn.PromoCodeID); err != nil {
				return err
			}
			red := &model.PromoCodeRedemption{
				ID:              uuid.NewString(),
				PromoCodeID:     *txn.PromoCodeID,
				UserID:          txn.UserID,
				TransactionID:   txn.ID,
				DiscountApplied: txn.DiscountAmount,
				CreatedAt:       u.now(),
			}
			if err := u.promos.SaveRedemption(ctx, tx, red); err != nil {
				return err
			}
		}
		outcome = OutcomeCompleted
		return nil
	})
	if err != nil {
		return "", err
	}
	if outcome == OutcomeCompleted {
		u.log.Info().Str("txn_id", txn.ID).Int64("amount", txn.Amount).Msg("transaction completed")
	}
	return outcome, nil
}

func (u *webhookUC) applyFailure(ctx context.Context, txn *model.Transaction, n *model.GatewayNotification) (WebhookOutcome, error) {
	outcome := OutcomeDuplicate
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		won, err := u.txns.UpdateStatusIfPending(ctx, tx, txn.ID, model.TransactionStatusFailed, u.now())
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		delta := model.AuditTrail{
			CallbackStatus: n.Status,
			FailureReason:  strings.ToLower(n.Status),
			Gateway:        n.Gateway,
		}
		if err := u.txns.SaveMetadata(ctx, tx, txn.ID, delta); err != nil {
			return err
		}
		txn.Metadata = txn.Metadata.Merge(delta)
		outcome = OutcomeFailed
		return nil
	})
	if err != nil {
		return "", err
	}
	if outcome == OutcomeFailed {
		u.log.Info().Str("txn_id", txn.ID).Str("status", n.Status).Msg("transaction failed")
	}
	return outcome, nil
}

func normalizeGatewayStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "SUCCESS", "SUCCESSFUL", "COMPLETED", "COMPLETE":
		return "SUCCESS"
	case "FAILED", "FAILURE":
		return "FAILED"
	case "CANCELLED", "CANCELED":
		return "CANCELLED"
	}
	return s
}
