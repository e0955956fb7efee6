package scoring

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"leadsync/internal/config"
	"leadsync/internal/models"
	"leadsync/internal/repository"
	"leadsync/internal/transcribe"
)

// Service scans for conversations whose newest message postdates their last
// analysis and scores them. It is best-effort: a failed conversation is
// logged and retried on the next scan, never blocking the rest of the batch.
type Service struct {
	Store       repository.Repository
	Analyzer    Analyzer
	Transcriber *transcribe.Client
	Tenant      config.TenantConfig
	Cfg         config.ScoringConfig
	Logger      *zap.Logger
}

func (s *Service) Run(ctx context.Context) error {
	if s == nil || s.Store == nil || s.Analyzer == nil {
		return nil
	}
	interval := s.Cfg.ScanInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	// Run once on start.
	_ = s.RunOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce scores at most one batch of pending conversations.
func (s *Service) RunOnce(ctx context.Context) error {
	if s == nil || s.Store == nil || s.Analyzer == nil {
		return nil
	}
	tenant, err := s.Store.GetTenantBySlug(ctx, s.Tenant.Slug)
	if err != nil {
		s.Logger.Warn("scoring tenant lookup failed", zap.Error(err))
		return err
	}
	if tenant == nil {
		// Nothing synced yet.
		return nil
	}

	batch := s.Cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	pending, err := s.Store.ListConversationsPendingAnalysis(ctx, tenant.ID, batch)
	if err != nil {
		s.Logger.Warn("scoring scan failed", zap.Error(err))
		return err
	}

	scored := 0
	for _, conv := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scoreConversation(ctx, tenant.ID, conv); err != nil {
			s.Logger.Warn("conversation scoring failed",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err))
			continue
		}
		scored++
	}
	if len(pending) > 0 {
		s.Logger.Info("scoring pass finished",
			zap.Int("pending", len(pending)),
			zap.Int("scored", scored))
	}
	return nil
}

func (s *Service) scoreConversation(ctx context.Context, tenantID uuid.UUID, conv models.Conversation) error {
	messages, err := s.Store.ListMessagesByConversation(ctx, conv.ID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	s.transcribeAudio(ctx, messages)

	transcript := BuildTranscript(messages)
	analysis, err := s.Analyzer.Analyze(ctx, transcript)
	if err != nil {
		return err
	}

	item := &models.ConversationAnalysis{
		TenantID:        tenantID,
		ConversationID:  conv.ID,
		Model:           analysis.Model,
		Result:          datatypes.JSON(analysis.Raw),
		TranscriptChars: len(transcript.Text),
		MessageCount:    transcript.MessageCount,
		AnalyzedAt:      time.Now().UTC(),
	}
	if analysis.OverallScore != nil {
		score := decimal.NewFromFloat(*analysis.OverallScore)
		item.OverallScore = &score
	}
	return s.Store.UpsertConversationAnalysis(ctx, item)
}

// transcribeAudio fills the transcript text for audio messages the sync
// stored without one. Failures leave the message untranscribed; the
// transcript renders a placeholder instead.
func (s *Service) transcribeAudio(ctx context.Context, messages []models.Message) {
	if !s.Transcriber.Enabled() {
		return
	}
	for i := range messages {
		msg := &messages[i]
		if msg.ContentType != "audio" || msg.AudioURL == nil {
			continue
		}
		if transcriptionOf(*msg) != "" {
			continue
		}
		text, err := s.Transcriber.Transcribe(ctx, *msg.AudioURL, "")
		if err != nil {
			s.Logger.Warn("transcription failed",
				zap.String("message_id", msg.ID.String()),
				zap.Error(err))
			continue
		}
		msg.Metadata = withTranscription(msg.Metadata, text)
	}
}

func withTranscription(meta datatypes.JSON, text string) datatypes.JSON {
	payload := map[string]any{}
	if len(meta) > 0 {
		_ = json.Unmarshal([]byte(meta), &payload)
	}
	payload["transcription"] = text
	raw, err := json.Marshal(payload)
	if err != nil {
		return meta
	}
	return datatypes.JSON(raw)
}
