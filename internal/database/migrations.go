package database

import "github.com/tenderhq/tenderdesk/internal/models"

// allModels lists every model registered for auto-migration, dependency order
// first so foreign keys resolve.
func allModels() []any {
	return []any{
		&models.User{},
		&models.Team{},
		&models.TeamInvite{},
		&models.Tender{},
		&models.Notification{},
	}
}
