package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Conversation struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_conversations_tenant_external,priority:1"`
	ExternalID    string         `gorm:"type:text;not null;uniqueIndex:uniq_conversations_tenant_external,priority:2"`
	ContactID     *uuid.UUID     `gorm:"type:uuid;index"`
	AgentID       *uuid.UUID     `gorm:"type:uuid;index"`
	Status        string         `gorm:"type:text;not null"`
	Platform      string         `gorm:"type:text;not null"`
	LastMessage   *string        `gorm:"type:text"`
	LastMessageAt *time.Time     `gorm:"type:timestamptz;index"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	SyncedAt      time.Time      `gorm:"type:timestamptz;not null"`
}

func (Conversation) TableName() string {
	return "conversations"
}
