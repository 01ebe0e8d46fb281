package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
	"jobboard-billing/internal/infra/security"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct {
	pool *pgxpool.Pool
	enc  *security.EncryptionService // nil disables phone encryption at rest
}

func NewTransactionRepo(pool *pgxpool.Pool, enc *security.EncryptionService) *transactionRepo {
	return &transactionRepo{pool: pool, enc: enc}
}

func (r *transactionRepo) encryptPhone(s string) (string, error) {
	if r.enc == nil || s == "" {
		return s, nil
	}
	return r.enc.Encrypt(s)
}

func (r *transactionRepo) decryptPhone(s string) string {
	if r.enc == nil || s == "" {
		return s
	}
	// Rows written before encryption was enabled stay readable.
	if pt, err := r.enc.Decrypt(s); err == nil {
		return pt
	}
	return s
}

const txnColumns = `id, user_id, amount, original_amount, discount_amount, currency, status, provider, provider_reference, plan_id, job_id, promo_code_id, payment_phone, metadata, callback_received_at, created_at, updated_at`

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	phone, err := r.encryptPhone(t.PaymentPhone)
	if err != nil {
		return domain.ErrOperationFailed
	}
	const q = `
INSERT INTO payment_transactions (
  id, user_id, amount, original_amount, discount_amount, currency, status, provider, provider_reference, plan_id, job_id, promo_code_id, payment_phone, metadata, callback_received_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
) ON CONFLICT (id) DO UPDATE SET
  status=$7, provider_reference=$9, metadata=$14, callback_received_at=$15, updated_at=$17;`

	_, err = execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, t.Amount, t.OriginalAmount, t.DiscountAmount, t.Currency, t.Status, t.Provider,
		t.ProviderReference, t.PlanID, t.JobID, t.PromoCodeID, phone, meta, t.CallbackReceivedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	q := `SELECT ` + txnColumns + ` FROM payment_transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.findOne(ctx, tx, q, id)
}

func (r *transactionRepo) FindByProviderReference(ctx context.Context, tx repository.Tx, ref string) (*model.Transaction, error) {
	q := `SELECT ` + txnColumns + ` FROM payment_transactions WHERE provider_reference=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.findOne(ctx, tx, q, ref)
}

func (r *transactionRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.Transaction, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	return r.scanTransaction(row)
}

func (r *transactionRepo) scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var meta []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.OriginalAmount, &t.DiscountAmount, &t.Currency, &t.Status, &t.Provider,
		&t.ProviderReference, &t.PlanID, &t.JobID, &t.PromoCodeID, &t.PaymentPhone, &meta, &t.CallbackReceivedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	t.PaymentPhone = r.decryptPhone(t.PaymentPhone)
	return t, nil
}

func (r *transactionRepo) SetProviderReference(ctx context.Context, tx repository.Tx, id, ref string, meta model.AuditTrail) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE payment_transactions SET provider_reference=$2, metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb, updated_at=NOW() WHERE id=$1;`
	_, err = execSQL(ctx, r.pool, tx, q, id, ref, b)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// SaveMetadata merges meta into the stored audit trail with a jsonb
// concatenation, so fields written by a concurrent path (a webhook racing
// the initiator's post-push write) are never clobbered by a stale snapshot.
func (r *transactionRepo) SaveMetadata(ctx context.Context, tx repository.Tx, id string, meta model.AuditTrail) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE payment_transactions SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb, updated_at=NOW() WHERE id=$1;`
	_, err = execSQL(ctx, r.pool, tx, q, id, b)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// UpdateStatusIfPending atomically updates status only when current status
// is still 'pending'. The row count is the idempotency gate for webhook
// replays and concurrent deliveries.
func (r *transactionRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, callbackAt time.Time,
) (bool, error) {
	const q = `
    UPDATE payment_transactions
       SET status = $2,
           callback_received_at = $3,
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), callbackAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + txnColumns + ` FROM payment_transactions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t := &model.Transaction{}
		var meta []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.OriginalAmount, &t.DiscountAmount, &t.Currency, &t.Status, &t.Provider,
			&t.ProviderReference, &t.PlanID, &t.JobID, &t.PromoCodeID, &t.PaymentPhone, &meta, &t.CallbackReceivedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &t.Metadata); err != nil {
				return nil, domain.ErrReadDatabaseRow
			}
		}
		t.PaymentPhone = r.decryptPhone(t.PaymentPhone)
		out = append(out, t)
	}
	return out, nil
}

func (r *transactionRepo) SummarizeRevenueSince(ctx context.Context, tx repository.Tx, since time.Time) ([]*model.RevenueSummary, error) {
	const q = `
    SELECT currency, COUNT(1), COALESCE(SUM(amount), 0), COALESCE(SUM(discount_amount), 0)
      FROM payment_transactions
     WHERE status = 'completed'
       AND created_at >= $1
     GROUP BY currency
     ORDER BY currency;`

	rows, err := queryRows(ctx, r.pool, tx, q, since)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.RevenueSummary
	for rows.Next() {
		s := &model.RevenueSummary{}
		if err := rows.Scan(&s.Currency, &s.CompletedCount, &s.TotalAmount, &s.TotalDiscount); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	return out, nil
}
