package model

import "time"

// Hiring tiers unlocked by per_job plans.
const (
	HiringTierBasic    = "basic"
	HiringTierStandard = "standard"
	HiringTierPremium  = "premium"
)

// Job carries only the billing-relevant slice of a job posting: the hiring
// tier fields updated when a per_job transaction completes. The rest of the
// posting lives outside this engine.
type Job struct {
	ID            string
	UserID        string
	HiringTier    string
	IsFeatured    bool
	IsPromoted    bool
	TransactionID *string
	UpdatedAt     time.Time
}
