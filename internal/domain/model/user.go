package model

import "time"

// User carries the billing-relevant slice of an account: recruiter
// verification, flipped when a verification plan is paid for.
type User struct {
	ID         string
	Role       PlanRole
	IsVerified bool
	VerifiedAt *time.Time
}
