package model

import (
	"time"

	"jobboard-billing/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Subscription is a user's entitlement period bought through a transaction.
// EndDate is nil only for non-expiring one-time grants kept for audit.
type Subscription struct {
	ID            string // UUID
	UserID        string
	Type          string // plan slug
	Status        SubscriptionStatus
	StartDate     time.Time
	EndDate       *time.Time
	PlanID        string
	TransactionID string
	AutoRenew     bool
	CreatedAt     time.Time
}

// NewSubscription creates an active subscription starting now.
func NewSubscription(id, userID string, plan *PricingPlan, transactionID string, now time.Time) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	s := &Subscription{
		ID:            id,
		UserID:        userID,
		Type:          plan.Slug,
		Status:        SubscriptionStatusActive,
		StartDate:     now,
		PlanID:        plan.ID,
		TransactionID: transactionID,
		CreatedAt:     now,
	}
	if d := plan.Duration(); d > 0 {
		end := now.Add(d)
		s.EndDate = &end
	}
	return s, nil
}

// ActiveAt reports whether the subscription covers the given instant.
func (s *Subscription) ActiveAt(t time.Time) bool {
	if s == nil || s.Status != SubscriptionStatusActive {
		return false
	}
	return s.EndDate == nil || s.EndDate.After(t)
}
