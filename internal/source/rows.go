package source

import (
	"time"

	"gorm.io/datatypes"
)

// Row types mirror the four source-store tables, only the columns the sync
// reads. Pointer fields are nullable at the source.

type UserRow struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	Name      *string    `gorm:"column:name"`
	Email     *string    `gorm:"column:email"`
	Role      *string    `gorm:"column:role"`
	Active    *bool      `gorm:"column:active"`
	AvatarURL *string    `gorm:"column:avatar_url"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at"`
}

func (UserRow) TableName() string {
	return "users"
}

type LeadRow struct {
	ID                   int64          `gorm:"column:id;primaryKey"`
	TenantID             int64          `gorm:"column:tenant_id"`
	ExternalID           *string        `gorm:"column:external_id"`
	Identifier           *string        `gorm:"column:identifier"`
	Name                 *string        `gorm:"column:name"`
	Email                *string        `gorm:"column:email"`
	Phone                *string        `gorm:"column:phone_number"`
	Status               *string        `gorm:"column:status"`
	AdditionalAttributes datatypes.JSON `gorm:"column:additional_attributes"`
	CustomAttributes     datatypes.JSON `gorm:"column:custom_attributes"`
	UTMSource            *string        `gorm:"column:utm_source"`
	UTMMedium            *string        `gorm:"column:utm_medium"`
	UTMCampaign          *string        `gorm:"column:utm_campaign"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
	UpdatedAt            *time.Time     `gorm:"column:updated_at"`
}

func (LeadRow) TableName() string {
	return "leads"
}

type ConversationRow struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	TenantID      int64      `gorm:"column:tenant_id"`
	LeadID        *int64     `gorm:"column:lead_id"`
	UserID        *int64     `gorm:"column:user_id"`
	Status        *string    `gorm:"column:status"`
	TeamID        *int64     `gorm:"column:team_id"`
	FolderID      *int64     `gorm:"column:folder_id"`
	IsBot         *bool      `gorm:"column:is_bot"`
	Platform      *string    `gorm:"column:platform"`
	LastMessage   *string    `gorm:"column:last_message"`
	LastMessageAt *time.Time `gorm:"column:last_message_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     *time.Time `gorm:"column:updated_at"`
}

func (ConversationRow) TableName() string {
	return "conversations"
}

type MessageRow struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	TenantID       int64          `gorm:"column:tenant_id"`
	ExternalID     *string        `gorm:"column:external_id"`
	ConversationID *int64         `gorm:"column:conversation_id"`
	LeadID         *int64         `gorm:"column:lead_id"`
	UserID         *int64         `gorm:"column:user_id"`
	InboxID        *int64         `gorm:"column:inbox_id"`
	Content        *string        `gorm:"column:content"`
	ContentType    *string        `gorm:"column:content_type"`
	FromMe         *bool          `gorm:"column:from_me"`
	Status         *string        `gorm:"column:status"`
	SentAt         *time.Time     `gorm:"column:sent_at"`
	Attachments    datatypes.JSON `gorm:"column:attachments"`
	Transcription  *string        `gorm:"column:transcricao"`
	Platform       *string        `gorm:"column:platform"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
}

func (MessageRow) TableName() string {
	return "messages"
}
