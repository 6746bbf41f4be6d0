package models

import (
	"gorm.io/datatypes"
)

// Notification type values accepted at the API boundary. Producers added later
// must extend this set before the create endpoint accepts their type.
const (
	NotificationTenderDeadline7D  = "TENDER_DEADLINE_7D"
	NotificationTenderDeadline3D  = "TENDER_DEADLINE_3D"
	NotificationTenderDeadline24H = "TENDER_DEADLINE_24H"
	NotificationTenderWon         = "TENDER_WON"
	NotificationTenderLost        = "TENDER_LOST"
	NotificationNewComment        = "NEW_COMMENT"
	NotificationTeamInvite        = "TEAM_INVITE"
	NotificationSystem            = "SYSTEM"
	NotificationDocumentReady     = "DOCUMENT_READY"
	NotificationAnalysisComplete  = "ANALYSIS_COMPLETE"
)

var notificationTypes = map[string]struct{}{
	NotificationTenderDeadline7D:  {},
	NotificationTenderDeadline3D:  {},
	NotificationTenderDeadline24H: {},
	NotificationTenderWon:         {},
	NotificationTenderLost:        {},
	NotificationNewComment:        {},
	NotificationTeamInvite:        {},
	NotificationSystem:            {},
	NotificationDocumentReady:     {},
	NotificationAnalysisComplete:  {},
}

// IsValidNotificationType reports whether the value is a known notification type.
func IsValidNotificationType(value string) bool {
	_, ok := notificationTypes[value]
	return ok
}

// NotificationTypes returns the accepted type values (order unspecified).
func NotificationTypes() []string {
	out := make([]string, 0, len(notificationTypes))
	for t := range notificationTypes {
		out = append(out, t)
	}
	return out
}

// Notification is a per-user in-app notification. Every read and mutation is
// scoped by UserID; a notification is never visible across users.
type Notification struct {
	BaseModel

	UserID   string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     string         `gorm:"type:varchar(64);not null" json:"type"`
	Title    string         `gorm:"type:varchar(255);not null" json:"title"`
	Message  string         `gorm:"type:text;not null" json:"message"`
	Link     string         `gorm:"type:text" json:"link,omitempty"`
	TenderID *string        `gorm:"type:uuid;index" json:"tender_id,omitempty"`
	Read     bool           `gorm:"column:is_read;default:false;index" json:"read"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}
