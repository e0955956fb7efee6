package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ConversationAnalysis stores one rubric scoring result per conversation.
// Result holds the analyzer's full structured JSON; OverallScore is lifted
// out for ordering and reporting.
type ConversationAnalysis struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	ConversationID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	Model           string           `gorm:"type:text;not null"`
	OverallScore    *decimal.Decimal `gorm:"type:numeric(5,2)"`
	Result          datatypes.JSON   `gorm:"type:jsonb;not null"`
	TranscriptChars int              `gorm:"not null;default:0"`
	MessageCount    int              `gorm:"not null;default:0"`
	AnalyzedAt      time.Time        `gorm:"type:timestamptz;not null"`
}

func (ConversationAnalysis) TableName() string {
	return "conversation_analyses"
}
