package sync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"leadsync/internal/models"
	"leadsync/internal/source"
)

const lastMessageMaxLen = 500

// TransformAgent maps one upstream user row onto a destination agent. A
// missing name gets a synthesized placeholder so the row is still displayable.
func TransformAgent(tenantID uuid.UUID, row source.UserRow, now time.Time) models.Agent {
	name := strDeref(row.Name)
	if name == "" {
		name = fmt.Sprintf("User %d", row.ID)
	}
	return models.Agent{
		TenantID:   tenantID,
		ExternalID: strconv.FormatInt(row.ID, 10),
		Name:       name,
		Email:      row.Email,
		Role:       row.Role,
		AvatarURL:  row.AvatarURL,
		Active:     row.Active == nil || *row.Active,
		SyncedAt:   now,
	}
}

// TransformContact maps one upstream lead row onto a destination contact,
// folding additional, custom and UTM attributes into one JSON object with
// custom attributes winning on key collisions.
func TransformContact(tenantID uuid.UUID, row source.LeadRow, now time.Time) models.Contact {
	externalID := strDeref(row.ExternalID)
	if externalID == "" {
		externalID = strconv.FormatInt(row.ID, 10)
	}
	return models.Contact{
		TenantID:         tenantID,
		ExternalID:       externalID,
		Name:             row.Name,
		Email:            row.Email,
		Phone:            row.Phone,
		Identifier:       row.Identifier,
		Status:           row.Status,
		CustomAttributes: mergeAttributes(row),
		SyncedAt:         now,
	}
}

// TransformConversation resolves the lead and user references through the
// identifier maps; an unresolved reference leaves the column null rather than
// dropping the row.
func TransformConversation(tenantID uuid.UUID, row source.ConversationRow, contacts, agents IDMap, now time.Time) models.Conversation {
	item := models.Conversation{
		TenantID:      tenantID,
		ExternalID:    strconv.FormatInt(row.ID, 10),
		Status:        strDerefDefault(row.Status, "pending"),
		Platform:      strDerefDefault(row.Platform, "whatsapp"),
		LastMessageAt: row.LastMessageAt,
		Metadata:      conversationMetadata(row),
		SyncedAt:      now,
	}
	if row.LastMessage != nil {
		trimmed := truncate(*row.LastMessage, lastMessageMaxLen)
		item.LastMessage = &trimmed
	}
	if row.LeadID != nil {
		if id, ok := contacts.ResolveInt(*row.LeadID); ok {
			item.ContactID = &id
		}
	}
	if row.UserID != nil {
		if id, ok := agents.ResolveInt(*row.UserID); ok {
			item.AgentID = &id
		}
	}
	return item
}

// TransformMessage maps one upstream message. It returns ok=false when the
// message's conversation is not present in the map; the caller counts those
// as skipped instead of failing the batch.
func TransformMessage(tenantID uuid.UUID, row source.MessageRow, conversations, contacts, agents IDMap, now time.Time) (models.Message, bool) {
	if row.ConversationID == nil {
		return models.Message{}, false
	}
	convID, ok := conversations.ResolveInt(*row.ConversationID)
	if !ok {
		return models.Message{}, false
	}

	externalID := strDeref(row.ExternalID)
	if externalID == "" {
		externalID = strconv.FormatInt(row.ID, 10)
	}
	fromMe := row.FromMe != nil && *row.FromMe
	content := strDeref(row.Content)
	contentType := strDerefDefault(row.ContentType, "text")

	item := models.Message{
		TenantID:       tenantID,
		ExternalID:     externalID,
		ConversationID: convID,
		Content:        cleanContent(content),
		ContentType:    contentType,
		SenderType:     classifySender(fromMe, row.UserID),
		FromMe:         fromMe,
		Status:         row.Status,
		SentAt:         row.SentAt,
		Metadata:       messageMetadata(row),
		SyncedAt:       now,
	}
	if contentType == "audio" {
		item.AudioURL = extractAudioURL(row.Attachments, content)
	}
	if row.LeadID != nil {
		if id, ok := contacts.ResolveInt(*row.LeadID); ok {
			item.ContactID = &id
		}
	}
	if fromMe && row.UserID != nil {
		if id, ok := agents.ResolveInt(*row.UserID); ok {
			item.AgentID = &id
		}
	}
	return item, true
}

// classifySender applies the sender rule: inbound is always the customer,
// outbound with an operator id is an agent, outbound without one is a bot.
func classifySender(fromMe bool, userID *int64) string {
	if !fromMe {
		return models.SenderCustomer
	}
	if userID == nil || *userID == 0 {
		return models.SenderBot
	}
	return models.SenderAgent
}

type attachment struct {
	FileType string `json:"file_type"`
	DataURL  string `json:"data_url"`
}

// extractAudioURL returns the first audio attachment's url, looking at the
// attachments column first and then at a JSON-encoded content payload.
// Malformed JSON yields nil, never an error.
func extractAudioURL(attachments datatypes.JSON, content string) *string {
	if url := firstAudioURL([]byte(attachments)); url != nil {
		return url
	}
	if len(content) > 0 && content[0] == '{' {
		var payload struct {
			Attachments []attachment `json:"attachments"`
		}
		if err := json.Unmarshal([]byte(content), &payload); err == nil {
			return audioURLFrom(payload.Attachments)
		}
	}
	return nil
}

func firstAudioURL(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}
	var items []attachment
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return audioURLFrom(items)
}

func audioURLFrom(items []attachment) *string {
	for _, att := range items {
		if att.FileType == "audio" && att.DataURL != "" {
			url := att.DataURL
			return &url
		}
	}
	return nil
}

// cleanContent strips a JSON attachment wrapper down to its readable text,
// substituting a placeholder when the wrapper has none. Plain text passes
// through untouched.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}
	if content[0] != '{' {
		return content
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return content
	}
	if text, ok := payload["content"].(string); ok && text != "" {
		return text
	}
	return "[Attachment]"
}

// mergeAttributes folds additional_attributes and custom_attributes into one
// object, custom winning on collisions, with the UTM columns layered on top.
// Unparseable JSON on either side is treated as empty.
func mergeAttributes(row source.LeadRow) datatypes.JSON {
	merged := map[string]any{}
	decodeInto(merged, row.AdditionalAttributes)
	decodeInto(merged, row.CustomAttributes)
	merged["utm_source"] = strPtrOrNil(row.UTMSource)
	merged["utm_medium"] = strPtrOrNil(row.UTMMedium)
	merged["utm_campaign"] = strPtrOrNil(row.UTMCampaign)
	return mustJSON(merged)
}

func decodeInto(dst map[string]any, raw datatypes.JSON) {
	if len(raw) == 0 {
		return
	}
	var src map[string]any
	if err := json.Unmarshal([]byte(raw), &src); err != nil {
		return
	}
	for k, v := range src {
		dst[k] = v
	}
}

func conversationMetadata(row source.ConversationRow) datatypes.JSON {
	return mustJSON(map[string]any{
		"team_id":   row.TeamID,
		"folder_id": row.FolderID,
		"is_bot":    row.IsBot,
	})
}

func messageMetadata(row source.MessageRow) datatypes.JSON {
	return mustJSON(map[string]any{
		"transcription": strPtrOrNil(row.Transcription),
		"platform":      strPtrOrNil(row.Platform),
		"inbox_id":      row.InboxID,
	})
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

// truncate cuts s to at most max runes, never splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strDerefDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func strPtrOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
