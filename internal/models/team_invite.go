package models

import "time"

// TeamInvite represents an invitation for a user to join a team.
type TeamInvite struct {
	BaseModel

	Email      string     `gorm:"not null;index" json:"email"`
	TeamID     string     `gorm:"type:uuid;not null;index" json:"team_id"`
	InvitedBy  string     `gorm:"type:uuid;not null" json:"invited_by"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	Team *Team `gorm:"constraint:OnDelete:CASCADE" json:"team,omitempty"`
}
