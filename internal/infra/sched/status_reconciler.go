package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/adapter"
	"jobboard-billing/internal/domain/ports/repository"
	"jobboard-billing/internal/infra/metrics"
	"jobboard-billing/internal/usecase"
)

// StatusReconciler periodically scans for stale pending transactions and
// polls the gateway for their status. This covers lost webhooks and
// processes that died between push and callback. Resolved statuses go
// through the same webhook use case as a real delivery, so the idempotency
// gate and entitlement application are shared.
type StatusReconciler struct {
	webhookUC  usecase.WebhookUseCase
	txns       repository.TransactionRepository
	gateway    adapter.GatewayClient
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending transaction must be to poll
	log        *zerolog.Logger
}

func NewStatusReconciler(
	webhookUC usecase.WebhookUseCase,
	txns repository.TransactionRepository,
	gateway adapter.GatewayClient,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *StatusReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &StatusReconciler{
		webhookUC:  webhookUC,
		txns:       txns,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (w *StatusReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *StatusReconciler) tick(ctx context.Context) {
	metrics.IncReconcilerSweep()
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.txns.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list pending failed")
		return
	}
	for _, t := range pending {
		w.reconcile(ctx, t)
	}
}

func (w *StatusReconciler) reconcile(ctx context.Context, t *model.Transaction) {
	st, err := w.gateway.Status(ctx, t.ID)
	if err != nil {
		metrics.IncReconcilerTransaction("error")
		w.log.Warn().Err(err).Str("txn_id", t.ID).Msg("reconciler: status poll failed")
		return
	}

	n := &model.GatewayNotification{
		ExternalReference: t.ID,
		Status:            st.Status,
		Gateway:           st.Gateway,
	}
	res, err := w.webhookUC.Process(ctx, n)
	if err != nil {
		metrics.IncReconcilerTransaction("error")
		w.log.Error().Err(err).Str("txn_id", t.ID).Msg("reconciler: apply failed")
		return
	}
	switch res.Outcome {
	case usecase.OutcomeCompleted:
		metrics.IncReconcilerTransaction("completed")
		metrics.IncPayment("completed")
		metrics.AddPaymentRevenue(t.Currency, t.Amount)
		if t.DiscountAmount > 0 {
			metrics.AddDiscount(t.Currency, t.DiscountAmount)
		}
		w.log.Info().Str("txn_id", t.ID).Msg("reconciler: transaction completed")
	case usecase.OutcomeFailed:
		metrics.IncReconcilerTransaction("failed")
		metrics.IncPayment("failed")
		w.log.Info().Str("txn_id", t.ID).Msg("reconciler: transaction failed")
	default:
		metrics.IncReconcilerTransaction("still_pending")
	}
}
