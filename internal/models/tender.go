package models

import "time"

// Tender lifecycle states.
const (
	TenderStatusDraft      = "draft"
	TenderStatusInProgress = "in_progress"
	TenderStatusSubmitted  = "submitted"
	TenderStatusWon        = "won"
	TenderStatusLost       = "lost"
)

// Tender represents a call for bids the owner is responding to.
type Tender struct {
	BaseModel

	OwnerID   string     `gorm:"type:uuid;not null;index" json:"owner_id"`
	TeamID    *string    `gorm:"type:uuid;index" json:"team_id,omitempty"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Reference string     `gorm:"type:varchar(128);index" json:"reference"`
	Buyer     string     `gorm:"type:varchar(255)" json:"buyer"`
	Status    string     `gorm:"type:varchar(32);default:'draft';index" json:"status"`
	Deadline  *time.Time `gorm:"index" json:"deadline,omitempty"`
}

// IsValidTenderStatus reports whether the value is a known tender status.
func IsValidTenderStatus(value string) bool {
	switch value {
	case TenderStatusDraft, TenderStatusInProgress, TenderStatusSubmitted, TenderStatusWon, TenderStatusLost:
		return true
	}
	return false
}
