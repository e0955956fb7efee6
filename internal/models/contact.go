package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Contact is a destination copy of a source-store lead. CustomAttributes is
// the merged union of the lead's two attribute columns plus UTM fields.
type Contact struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_contacts_tenant_external,priority:1"`
	ExternalID       string         `gorm:"type:text;not null;uniqueIndex:uniq_contacts_tenant_external,priority:2"`
	Name             *string        `gorm:"type:text"`
	Email            *string        `gorm:"type:text"`
	Phone            *string        `gorm:"type:text"`
	Identifier       *string        `gorm:"type:text"`
	Status           *string        `gorm:"type:text"`
	CustomAttributes datatypes.JSON `gorm:"type:jsonb"`
	SyncedAt         time.Time      `gorm:"type:timestamptz;not null"`
}

func (Contact) TableName() string {
	return "contacts"
}
