package model

import "time"

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// PromoCode is a discount instrument with eligibility and usage constraints.
type PromoCode struct {
	ID                  string
	Code                string
	DiscountType        DiscountType
	DiscountValue       int64
	MaxUses             *int
	CurrentUses         int
	MinAmount           *int64
	MaxDiscount         *int64 // caps percentage discounts
	ApplicablePlanSlugs []string
	StartsAt            time.Time
	ExpiresAt           *time.Time
	IsActive            bool
}

// PromoValidation is the outcome of the persistence layer's atomic
// eligibility check. Valid=false with a Reason is a normal outcome,
// not an error.
type PromoValidation struct {
	Valid         bool
	PromoCodeID   string
	DiscountType  DiscountType
	DiscountValue int64
	MaxDiscount   *int64
	Reason        string
}

// Discount is the pure arithmetic result of applying a promo to an amount.
type Discount struct {
	OriginalAmount int64
	DiscountAmount int64
	FinalAmount    int64
}

// PromoCodeRedemption records exactly one use of a promo per transaction.
type PromoCodeRedemption struct {
	ID              string
	PromoCodeID     string
	UserID          string
	TransactionID   string
	DiscountApplied int64
	CreatedAt       time.Time
}
