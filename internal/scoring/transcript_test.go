package scoring

import (
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"leadsync/internal/models"
)

func TestAgentName(t *testing.T) {
	if got := AgentName("*Maria Silva*:\nBom dia!"); got != "Maria Silva" {
		t.Fatalf("got %q", got)
	}
	if got := AgentName("no prefix here"); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := AgentName(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestStripAgentPrefix(t *testing.T) {
	if got := stripAgentPrefix("*Maria*: \nBom dia!"); got != "Bom dia!" {
		t.Fatalf("got %q", got)
	}
	if got := stripAgentPrefix("plain text"); got != "plain text" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildTranscript_Senders(t *testing.T) {
	sentAt := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	messages := []models.Message{
		{SenderType: models.SenderCustomer, Content: "oi, quero informações", SentAt: &sentAt},
		{SenderType: models.SenderAgent, Content: "*Maria*: Claro, posso ajudar", SentAt: &sentAt},
		{SenderType: models.SenderBot, Content: "Lembrete automático"},
	}
	tr := BuildTranscript(messages)
	if tr.MessageCount != 3 {
		t.Fatalf("count=%d", tr.MessageCount)
	}
	lines := strings.Split(tr.Text, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d", len(lines))
	}
	if lines[0] != "15/03 09:30 | [CUSTOMER] Customer: oi, quero informações" {
		t.Fatalf("line0=%q", lines[0])
	}
	if lines[1] != "15/03 09:30 | [AGENT] Maria: Claro, posso ajudar" {
		t.Fatalf("line1=%q", lines[1])
	}
	if lines[2] != " | [BOT] Bot: Lembrete automático" {
		t.Fatalf("line2=%q", lines[2])
	}
}

func TestBuildTranscript_BotWithAgentPrefix(t *testing.T) {
	messages := []models.Message{
		{SenderType: models.SenderBot, Content: "*Maria*: Oi, tudo bem?"},
		{SenderType: models.SenderBot, Content: "Mensagem automática"},
	}
	tr := BuildTranscript(messages)
	lines := strings.Split(tr.Text, "\n")
	if lines[0] != " | [AGENT] Maria: Oi, tudo bem?" {
		t.Fatalf("line0=%q", lines[0])
	}
	if lines[1] != " | [BOT] Bot: Mensagem automática" {
		t.Fatalf("line1=%q", lines[1])
	}
}

func TestBuildTranscript_Audio(t *testing.T) {
	messages := []models.Message{
		{
			SenderType:  models.SenderCustomer,
			ContentType: "audio",
			Content:     "[Attachment]",
			Metadata:    datatypes.JSON(`{"transcription":"quero agendar para sábado"}`),
		},
		{
			SenderType:  models.SenderCustomer,
			ContentType: "audio",
			Content:     "[Attachment]",
		},
	}
	tr := BuildTranscript(messages)
	lines := strings.Split(tr.Text, "\n")
	if !strings.HasSuffix(lines[0], "[AUDIO] quero agendar para sábado") {
		t.Fatalf("line0=%q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "[AUDIO - no transcription]") {
		t.Fatalf("line1=%q", lines[1])
	}
}

func TestParseAnalysisJSON(t *testing.T) {
	raw, score, err := parseAnalysisJSON("```json\n{\"overall_score\": 72.5, \"summary\": \"ok\"}\n```")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if score == nil || *score != 72.5 {
		t.Fatalf("score=%v", score)
	}
	if len(raw) == 0 || raw[0] != '{' {
		t.Fatalf("raw=%q", raw)
	}
}

func TestParseAnalysisJSON_ScoreMissing(t *testing.T) {
	_, score, err := parseAnalysisJSON(`{"summary":"no score"}`)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if score != nil {
		t.Fatalf("score=%v want nil", score)
	}
}

func TestParseAnalysisJSON_Unstructured(t *testing.T) {
	if _, _, err := parseAnalysisJSON("I could not analyze this conversation."); err == nil {
		t.Fatalf("expected error")
	}
}
