package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a destination copy of a source-store user. Identity within a
// tenant is the source system's user id preserved in ExternalID.
type Agent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_agents_tenant_external,priority:1"`
	ExternalID string    `gorm:"type:text;not null;uniqueIndex:uniq_agents_tenant_external,priority:2"`
	Name       string    `gorm:"type:text;not null"`
	Email      *string   `gorm:"type:text"`
	Role       *string   `gorm:"type:text"`
	Active     bool      `gorm:"not null;default:true"`
	AvatarURL  *string   `gorm:"type:text"`
	SyncedAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (Agent) TableName() string {
	return "agents"
}
