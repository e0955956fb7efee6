package db

import (
	"leadsync/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	// The composite unique indexes on (tenant_id, external_id) declared in
	// the model tags are the conflict targets for every upsert; the sync
	// engine is not correct without them actually enforced.
	return db.Gorm.AutoMigrate(
		&models.Tenant{},
		&models.Agent{},
		&models.Contact{},
		&models.Conversation{},
		&models.Message{},
		&models.SyncCheckpoint{},
		&models.ConversationAnalysis{},
	)
}
