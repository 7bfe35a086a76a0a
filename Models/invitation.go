package Models

import (
	"time"

	"gorm.io/gorm"
)

// Invitation lets an admin onboard a team member by email. The token is
// a uuid embedded in the emailed link; accepting sets the password and
// creates the User (plus an Assistant profile for assistant roles).
type Invitation struct {
	gorm.Model
	Email      string     `json:"email" gorm:"index"`
	Role       string     `json:"role"`
	Token      string     `json:"-" gorm:"uniqueIndex"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
