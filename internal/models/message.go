package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SenderCustomer = "customer"
	SenderAgent    = "agent"
	SenderBot      = "bot"
)

// Message requires a resolved ConversationID; rows whose conversation cannot
// be mapped are skipped during sync, never written with a dangling reference.
type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_messages_tenant_external,priority:1"`
	ExternalID     string         `gorm:"type:text;not null;uniqueIndex:uniq_messages_tenant_external,priority:2"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ContactID      *uuid.UUID     `gorm:"type:uuid;index"`
	AgentID        *uuid.UUID     `gorm:"type:uuid;index"`
	Content        string         `gorm:"type:text;not null"`
	ContentType    string         `gorm:"type:text;not null"`
	SenderType     string         `gorm:"type:text;not null"`
	FromMe         bool           `gorm:"not null;default:false"`
	Status         *string        `gorm:"type:text"`
	AudioURL       *string        `gorm:"type:text"`
	SentAt         *time.Time     `gorm:"type:timestamptz;index"`
	Metadata       datatypes.JSON `gorm:"type:jsonb"`
	SyncedAt       time.Time      `gorm:"type:timestamptz;not null"`
}

func (Message) TableName() string {
	return "messages"
}
