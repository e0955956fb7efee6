package sync

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"leadsync/internal/models"
	"leadsync/internal/source"
)

var testTenant = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func TestClassifySender_Inbound(t *testing.T) {
	if got := classifySender(false, int64Ptr(42)); got != models.SenderCustomer {
		t.Fatalf("got %q want customer", got)
	}
	if got := classifySender(false, nil); got != models.SenderCustomer {
		t.Fatalf("got %q want customer", got)
	}
}

func TestClassifySender_Outbound(t *testing.T) {
	if got := classifySender(true, int64Ptr(42)); got != models.SenderAgent {
		t.Fatalf("got %q want agent", got)
	}
	if got := classifySender(true, nil); got != models.SenderBot {
		t.Fatalf("got %q want bot", got)
	}
	if got := classifySender(true, int64Ptr(0)); got != models.SenderBot {
		t.Fatalf("got %q want bot", got)
	}
}

func TestCleanContent_PlainText(t *testing.T) {
	if got := cleanContent("hello there"); got != "hello there" {
		t.Fatalf("got %q", got)
	}
	if got := cleanContent(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanContent_JSONWrapper(t *testing.T) {
	if got := cleanContent(`{"content":"inner text","attachments":[]}`); got != "inner text" {
		t.Fatalf("got %q want inner text", got)
	}
	if got := cleanContent(`{"attachments":[{"file_type":"image"}]}`); got != "[Attachment]" {
		t.Fatalf("got %q want placeholder", got)
	}
}

func TestCleanContent_MalformedJSON(t *testing.T) {
	raw := `{"content": truncated`
	if got := cleanContent(raw); got != raw {
		t.Fatalf("got %q want passthrough", got)
	}
}

func TestExtractAudioURL(t *testing.T) {
	content := `{"attachments":[{"file_type":"image","data_url":"http://x/img.png"},{"file_type":"audio","data_url":"http://x/voice.ogg"}]}`
	url := extractAudioURL(nil, content)
	if url == nil || *url != "http://x/voice.ogg" {
		t.Fatalf("url=%v want voice.ogg", url)
	}
}

func TestExtractAudioURL_AttachmentsColumn(t *testing.T) {
	raw := datatypes.JSON(`[{"file_type":"audio","data_url":"http://x/a.ogg"}]`)
	url := extractAudioURL(raw, "")
	if url == nil || *url != "http://x/a.ogg" {
		t.Fatalf("url=%v want a.ogg", url)
	}
}

func TestExtractAudioURL_Malformed(t *testing.T) {
	if url := extractAudioURL(datatypes.JSON(`not json`), `{"attachments": [`); url != nil {
		t.Fatalf("url=%v want nil", url)
	}
	if url := extractAudioURL(nil, "plain text"); url != nil {
		t.Fatalf("url=%v want nil", url)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("ação", 3); got != "açã" {
		t.Fatalf("got %q, rune boundary broken", got)
	}
	if got := truncate("short", 500); got != "short" {
		t.Fatalf("got %q", got)
	}
}

func TestTransformAgent_NameFallback(t *testing.T) {
	row := source.UserRow{ID: 77}
	item := TransformAgent(testTenant, row, time.Now())
	if item.Name != "User 77" {
		t.Fatalf("name=%q", item.Name)
	}
	if item.ExternalID != "77" {
		t.Fatalf("external_id=%q", item.ExternalID)
	}
	if !item.Active {
		t.Fatalf("nil active should default true")
	}
}

func TestTransformContact_MergedAttributes(t *testing.T) {
	row := source.LeadRow{
		ID:                   5,
		AdditionalAttributes: datatypes.JSON(`{"city":"Itajai","plan":"basic"}`),
		CustomAttributes:     datatypes.JSON(`{"plan":"premium"}`),
		UTMSource:            strPtr("google"),
	}
	item := TransformContact(testTenant, row, time.Now())
	if item.ExternalID != "5" {
		t.Fatalf("external_id=%q", item.ExternalID)
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(item.CustomAttributes), &attrs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if attrs["plan"] != "premium" {
		t.Fatalf("plan=%v, custom attributes must win", attrs["plan"])
	}
	if attrs["city"] != "Itajai" {
		t.Fatalf("city=%v", attrs["city"])
	}
	if attrs["utm_source"] != "google" {
		t.Fatalf("utm_source=%v", attrs["utm_source"])
	}
}

func TestTransformContact_ExternalIDPreferred(t *testing.T) {
	row := source.LeadRow{ID: 5, ExternalID: strPtr("wa-99")}
	item := TransformContact(testTenant, row, time.Now())
	if item.ExternalID != "wa-99" {
		t.Fatalf("external_id=%q", item.ExternalID)
	}
}

func TestTransformConversation_Resolution(t *testing.T) {
	contactID := uuid.New()
	contacts := IDMap{"10": contactID}
	agents := IDMap{}
	long := strings.Repeat("x", 900)
	row := source.ConversationRow{
		ID:          3,
		LeadID:      int64Ptr(10),
		UserID:      int64Ptr(999), // not in map
		LastMessage: &long,
	}
	item := TransformConversation(testTenant, row, contacts, agents, time.Now())
	if item.ContactID == nil || *item.ContactID != contactID {
		t.Fatalf("contact not resolved")
	}
	if item.AgentID != nil {
		t.Fatalf("unresolved agent must stay null")
	}
	if len(*item.LastMessage) != lastMessageMaxLen {
		t.Fatalf("last_message len=%d", len(*item.LastMessage))
	}
	if item.Status != "pending" || item.Platform != "whatsapp" {
		t.Fatalf("defaults: status=%q platform=%q", item.Status, item.Platform)
	}
}

func TestTransformMessage_SkipsUnmappedConversation(t *testing.T) {
	row := source.MessageRow{ID: 1, ConversationID: int64Ptr(404)}
	if _, ok := TransformMessage(testTenant, row, IDMap{}, IDMap{}, IDMap{}, time.Now()); ok {
		t.Fatalf("expected skip")
	}
	row.ConversationID = nil
	if _, ok := TransformMessage(testTenant, row, IDMap{}, IDMap{}, IDMap{}, time.Now()); ok {
		t.Fatalf("expected skip on nil conversation")
	}
}

func TestTransformMessage_Full(t *testing.T) {
	convID := uuid.New()
	agentID := uuid.New()
	row := source.MessageRow{
		ID:             9,
		ConversationID: int64Ptr(3),
		UserID:         int64Ptr(7),
		FromMe:         boolPtr(true),
		ContentType:    strPtr("audio"),
		Content:        strPtr(`{"content":"","attachments":[{"file_type":"audio","data_url":"http://x/v.ogg"}]}`),
		SentAt:         timePtr(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	maps := IDMap{"3": convID}
	agents := IDMap{"7": agentID}
	item, ok := TransformMessage(testTenant, row, maps, IDMap{}, agents, time.Now())
	if !ok {
		t.Fatalf("unexpected skip")
	}
	if item.ConversationID != convID {
		t.Fatalf("conversation not resolved")
	}
	if item.SenderType != models.SenderAgent {
		t.Fatalf("sender=%q", item.SenderType)
	}
	if item.AgentID == nil || *item.AgentID != agentID {
		t.Fatalf("agent not resolved")
	}
	if item.AudioURL == nil || *item.AudioURL != "http://x/v.ogg" {
		t.Fatalf("audio_url=%v", item.AudioURL)
	}
	if item.Content != "[Attachment]" {
		t.Fatalf("content=%q", item.Content)
	}
	if item.ExternalID != "9" {
		t.Fatalf("external_id=%q", item.ExternalID)
	}
}

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func timePtr(v time.Time) *time.Time { return &v }
