package domain

import "time"

// PasswordReset is a single-use token that lets a staff member choose a new password.
type PasswordReset struct {
	ID        string     `bson:"_id"`
	StaffID   string     `bson:"staffId"`
	Token     string     `bson:"token"`
	ExpiresAt time.Time  `bson:"expiresAt"`
	UsedAt    *time.Time `bson:"usedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
}

// Usable reports whether the token can still be redeemed at now.
func (p *PasswordReset) Usable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt)
}
