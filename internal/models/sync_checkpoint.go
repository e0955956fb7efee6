package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EntityAgents        = "agents"
	EntityContacts      = "contacts"
	EntityConversations = "conversations"
	EntityMessages      = "messages"
	EntityAll           = "all"
)

const (
	SyncInProgress = "in_progress"
	SyncSuccess    = "success"
	SyncFailed     = "failed"
)

// SyncCheckpoint is an append-only log of sync progress. Rows are never
// updated in place; the most recent success row per entity type is the
// resume point for the next run, and the full history stays auditable.
type SyncCheckpoint struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_sync_checkpoints_lookup,priority:1"`
	EntityType     string         `gorm:"type:text;not null;index:idx_sync_checkpoints_lookup,priority:2"`
	Cursor         *string        `gorm:"type:text"`
	WatermarkTS    *time.Time     `gorm:"type:timestamptz"`
	RecordsSynced  int            `gorm:"not null;default:0"`
	RecordsSkipped int            `gorm:"not null;default:0"`
	Status         string         `gorm:"type:text;not null;index:idx_sync_checkpoints_lookup,priority:3"`
	Error          *string        `gorm:"type:text"`
	Stats          datatypes.JSON `gorm:"type:jsonb"`
	StartedAt      time.Time      `gorm:"type:timestamptz;not null"`
	CompletedAt    *time.Time     `gorm:"type:timestamptz"`
}

func (SyncCheckpoint) TableName() string {
	return "sync_checkpoints"
}
