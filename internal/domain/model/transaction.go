package model

import (
	"time"

	"jobboard-billing/internal/domain"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // created; gateway contacted or about to be
	TransactionStatusCompleted TransactionStatus = "completed" // provider confirmed the charge
	TransactionStatusFailed    TransactionStatus = "failed"    // provider reported failure/cancellation
)

// AuditTrail is the gateway-specific trail recorded on a transaction.
// Fields are filled in incrementally as the payment progresses; Merge is
// total and never drops a previously recorded value.
type AuditTrail struct {
	Gateway          string            `json:"gateway,omitempty"`
	GatewayReference string            `json:"gateway_reference,omitempty"`
	CheckoutURL      string            `json:"checkout_url,omitempty"`
	ExternalID       string            `json:"external_id,omitempty"`
	PushStatus       string            `json:"push_status,omitempty"`
	CallbackStatus   string            `json:"callback_status,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	AddOnSlugs       []string          `json:"add_on_slugs,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Merge overlays other onto a and returns the result. Empty fields in other
// keep the value already recorded in a.
func (a AuditTrail) Merge(other AuditTrail) AuditTrail {
	out := a
	if other.Gateway != "" {
		out.Gateway = other.Gateway
	}
	if other.GatewayReference != "" {
		out.GatewayReference = other.GatewayReference
	}
	if other.CheckoutURL != "" {
		out.CheckoutURL = other.CheckoutURL
	}
	if other.ExternalID != "" {
		out.ExternalID = other.ExternalID
	}
	if other.PushStatus != "" {
		out.PushStatus = other.PushStatus
	}
	if other.CallbackStatus != "" {
		out.CallbackStatus = other.CallbackStatus
	}
	if other.FailureReason != "" {
		out.FailureReason = other.FailureReason
	}
	if len(other.AddOnSlugs) > 0 {
		out.AddOnSlugs = other.AddOnSlugs
	}
	if len(other.Extra) > 0 {
		merged := make(map[string]string, len(a.Extra)+len(other.Extra))
		for k, v := range a.Extra {
			merged[k] = v
		}
		for k, v := range other.Extra {
			merged[k] = v
		}
		out.Extra = merged
	}
	return out
}

// Transaction records a single payment attempt. It is created pending and
// transitions exactly once to completed or failed; CallbackReceivedAt marks
// that a terminal gateway notification has been processed.
type Transaction struct {
	ID                 string // ULID; echoed back by the provider
	UserID             string
	Amount             int64 // final, minor units
	OriginalAmount     int64
	DiscountAmount     int64
	Currency           string
	Status             TransactionStatus
	Provider           string
	ProviderReference  *string
	PlanID             *string
	JobID              *string
	PromoCodeID        *string
	PaymentPhone       string
	Metadata           AuditTrail
	CallbackReceivedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewTransaction validates amount invariants and constructs a pending transaction.
func NewTransaction(id, userID, currency, provider, phone string, d Discount) (*Transaction, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if d.DiscountAmount < 0 || d.DiscountAmount > d.OriginalAmount || d.FinalAmount != d.OriginalAmount-d.DiscountAmount {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Transaction{
		ID:             id,
		UserID:         userID,
		Amount:         d.FinalAmount,
		OriginalAmount: d.OriginalAmount,
		DiscountAmount: d.DiscountAmount,
		Currency:       currency,
		Status:         TransactionStatusPending,
		Provider:       provider,
		PaymentPhone:   phone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RevenueSummary aggregates completed transactions per currency over a
// reporting window.
type RevenueSummary struct {
	Currency       string `json:"currency"`
	CompletedCount int64  `json:"completed_count"`
	TotalAmount    int64  `json:"total_amount"`
	TotalDiscount  int64  `json:"total_discount"`
}

// GatewayNotification is an inbound provider event normalized from one of
// the two historical webhook payload shapes.
type GatewayNotification struct {
	ExternalReference string
	Status            string
	Gateway           string
	Raw               map[string]any
}
