package repository

import (
	"context"
	"time"

	"jobboard-billing/internal/domain/model"
)

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	FindByProviderReference(ctx context.Context, tx Tx, ref string) (*model.Transaction, error)

	// SetProviderReference records the gateway's reference as soon as
	// Initialize returns, so a webhook can locate the transaction even if
	// the subsequent push step fails. meta is merged like SaveMetadata.
	SetProviderReference(ctx context.Context, tx Tx, id, ref string, meta model.AuditTrail) error

	// SaveMetadata merges meta into the stored audit trail at the storage
	// level. Callers pass only the fields they are adding; fields already
	// recorded, possibly by a concurrent path, are preserved.
	SaveMetadata(ctx context.Context, tx Tx, id string, meta model.AuditTrail) error

	// UpdateStatusIfPending atomically moves the row to a terminal status
	// only when it is still pending, stamping callback_received_at. A false
	// return means another delivery already won the race.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.TransactionStatus, callbackAt time.Time) (bool, error)

	// ListPendingOlderThan feeds the polling reconciliation sweep.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Transaction, error)

	// SummarizeRevenueSince aggregates completed transactions per currency
	// for the admin reporting endpoint.
	SummarizeRevenueSince(ctx context.Context, tx Tx, since time.Time) ([]*model.RevenueSummary, error)
}
