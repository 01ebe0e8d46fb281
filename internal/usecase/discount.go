// File: internal/usecase/discount.go
package usecase

import (
	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
)

// ComputeDiscount applies a promo validation result to a base amount in
// minor units. Percentage discounts are rounded half-up and capped first by
// the promo's MaxDiscount, then by the amount itself, so the final amount
// can never go negative. A nil or invalid validation yields zero discount.
func ComputeDiscount(amount int64, v *model.PromoValidation) (model.Discount, error) {
	if amount <= 0 {
		return model.Discount{}, domain.ErrInvalidArgument
	}
	d := model.Discount{OriginalAmount: amount, FinalAmount: amount}
	if v == nil || !v.Valid {
		return d, nil
	}

	var discount int64
	switch v.DiscountType {
	case model.DiscountTypePercentage:
		if v.DiscountValue < 0 {
			return model.Discount{}, domain.ErrInvalidArgument
		}
		discount = (amount*v.DiscountValue + 50) / 100
		if v.MaxDiscount != nil && discount > *v.MaxDiscount {
			discount = *v.MaxDiscount
		}
	case model.DiscountTypeFixedAmount:
		if v.DiscountValue < 0 {
			return model.Discount{}, domain.ErrInvalidArgument
		}
		discount = v.DiscountValue
	default:
		return model.Discount{}, domain.ErrInvalidArgument
	}

	if discount > amount {
		discount = amount
	}
	d.DiscountAmount = discount
	d.FinalAmount = amount - discount
	return d, nil
}
