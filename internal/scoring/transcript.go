package scoring

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"leadsync/internal/models"
)

// Outbound messages arrive prefixed with the operator's display name in the
// form "*Name*:"; the prefix identifies the human and is stripped from the
// transcript body.
var agentNamePattern = regexp.MustCompile(`^\*([^*]+)\*:`)

var agentPrefixPattern = regexp.MustCompile(`^\*[^*]+\*:\s*\n?`)

// AgentName extracts the operator name from a message body, empty when the
// body carries no prefix.
func AgentName(content string) string {
	match := agentNamePattern.FindStringSubmatch(content)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func stripAgentPrefix(content string) string {
	return strings.TrimSpace(agentPrefixPattern.ReplaceAllString(content, ""))
}

// Transcript is the rendered conversation handed to the analyzer.
type Transcript struct {
	Text         string
	MessageCount int
}

// BuildTranscript renders messages oldest-first into one line per message:
// "dd/mm hh:mm | [SENDER] Name: text". Audio messages substitute their
// transcription when the sync captured one.
func BuildTranscript(messages []models.Message) Transcript {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, formatMessage(msg))
	}
	text := strings.Join(lines, "\n")
	return Transcript{Text: text, MessageCount: len(messages)}
}

func formatMessage(msg models.Message) string {
	label, name, text := senderAndText(msg)

	timestamp := ""
	if msg.SentAt != nil {
		timestamp = msg.SentAt.Format("02/01 15:04")
	}
	return fmt.Sprintf("%s | [%s] %s: %s", timestamp, label, name, text)
}

func senderAndText(msg models.Message) (label, name, text string) {
	content := msg.Content

	switch msg.SenderType {
	case models.SenderCustomer:
		label, name = "CUSTOMER", "Customer"
		text = content
	case models.SenderAgent:
		label = "AGENT"
		name = AgentName(content)
		if name == "" {
			name = "Agent"
		}
		text = stripAgentPrefix(content)
	default:
		// Automated outbound messages typed by a human still carry the
		// "*Name*:" prefix; promote those to agent lines.
		if n := AgentName(content); n != "" {
			label, name = "AGENT", n
			text = stripAgentPrefix(content)
			break
		}
		label, name = "BOT", "Bot"
		text = content
	}

	if msg.ContentType == "audio" {
		if t := transcriptionOf(msg); t != "" {
			text = "[AUDIO] " + t
		} else {
			text = "[AUDIO - no transcription]"
		}
	}
	return label, name, text
}

func transcriptionOf(msg models.Message) string {
	if len(msg.Metadata) == 0 {
		return ""
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(msg.Metadata), &meta); err != nil {
		return ""
	}
	if t, ok := meta["transcription"].(string); ok {
		return strings.TrimSpace(t)
	}
	return ""
}
