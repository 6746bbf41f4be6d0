package models

// Team groups users collaborating on tender responses.
type Team struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     string `gorm:"type:uuid;not null;index" json:"owner_id"`

	Users []User `gorm:"many2many:user_teams;" json:"users,omitempty"`
}
