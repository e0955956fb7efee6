package gormrepository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadsync/internal/models"
	"leadsync/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- tenants ----------------------------------------------------------------

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) EnsureTenant(ctx context.Context, slug, name string) (*models.Tenant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("tenant slug is empty")
	}
	existing, err := s.GetTenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	item := models.Tenant{Slug: slug, Name: name}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&item).Error; err != nil {
		return nil, err
	}
	// A concurrent insert may have won the conflict; re-read for the real id.
	return s.GetTenantBySlug(ctx, slug)
}

// --- entity upserts ---------------------------------------------------------

var tenantExternalKey = []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}}

func (s *Store) UpsertAgents(ctx context.Context, items []models.Agent) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: tenantExternalKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"email",
			"role",
			"avatar_url",
			"active",
			"synced_at",
		}),
	}).Create(&items).Error
}

func (s *Store) UpsertContacts(ctx context.Context, items []models.Contact) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: tenantExternalKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"email",
			"phone",
			"identifier",
			"status",
			"custom_attributes",
			"synced_at",
		}),
	}).Create(&items).Error
}

func (s *Store) UpsertConversations(ctx context.Context, items []models.Conversation) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: tenantExternalKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"contact_id",
			"agent_id",
			"status",
			"platform",
			"last_message",
			"last_message_at",
			"metadata",
			"synced_at",
		}),
	}).Create(&items).Error
}

func (s *Store) UpsertMessages(ctx context.Context, items []models.Message) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: tenantExternalKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"conversation_id",
			"contact_id",
			"agent_id",
			"content",
			"content_type",
			"sender_type",
			"from_me",
			"status",
			"audio_url",
			"sent_at",
			"metadata",
			"synced_at",
		}),
	}).Create(&items).Error
}

// --- identifier listings ----------------------------------------------------

func (s *Store) ListAgentIDPairs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error) {
	return listIDPairs(ctx, s, &models.Agent{}, tenantID, limit, offset)
}

func (s *Store) ListContactIDPairs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error) {
	return listIDPairs(ctx, s, &models.Contact{}, tenantID, limit, offset)
}

func (s *Store) ListConversationIDPairs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error) {
	return listIDPairs(ctx, s, &models.Conversation{}, tenantID, limit, offset)
}

func listIDPairs(ctx context.Context, s *Store, model any, tenantID uuid.UUID, limit, offset int) ([]repository.IDPair, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var pairs []repository.IDPair
	if err := s.db.WithContext(ctx).
		Model(model).
		Select("id", "external_id").
		Where("tenant_id = ?", tenantID).
		Order("id asc").
		Limit(normalizeLimit(limit, 1000)).
		Offset(normalizeOffset(offset)).
		Find(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}

// --- checkpoints ------------------------------------------------------------

func (s *Store) SaveCheckpoint(ctx context.Context, item *models.SyncCheckpoint) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestCheckpoint(ctx context.Context, tenantID uuid.UUID, entityType, status string) (*models.SyncCheckpoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("entity_type = ?", entityType)
	if strings.TrimSpace(status) != "" {
		query = query.Where("status = ?", status)
	}
	var item models.SyncCheckpoint
	err := query.Order("id desc").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListCheckpoints(ctx context.Context, tenantID uuid.UUID, params repository.ListCheckpointsParams) ([]models.SyncCheckpoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.SyncCheckpoint{}).
		Where("tenant_id = ?", tenantID)
	if params.EntityType != nil && strings.TrimSpace(*params.EntityType) != "" {
		query = query.Where("entity_type = ?", strings.TrimSpace(*params.EntityType))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	var items []models.SyncCheckpoint
	if err := query.
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- conversation analyses --------------------------------------------------

func (s *Store) UpsertConversationAnalysis(ctx context.Context, item *models.ConversationAnalysis) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"model",
			"overall_score",
			"result",
			"transcript_chars",
			"message_count",
			"analyzed_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListConversationAnalyses(ctx context.Context, tenantID uuid.UUID, params repository.ListAnalysesParams) ([]models.ConversationAnalysis, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.ConversationAnalysis{}).
		Where("tenant_id = ?", tenantID)
	if params.MinScore != nil {
		query = query.Where("overall_score >= ?", *params.MinScore)
	}
	var items []models.ConversationAnalysis
	if err := query.
		Order("analyzed_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListConversationsPendingAnalysis returns conversations that were never
// analyzed, or whose analysis predates their most recent message.
func (s *Store) ListConversationsPendingAnalysis(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Conversation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Conversation
	if err := s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Joins("LEFT JOIN conversation_analyses ca ON ca.conversation_id = conversations.id").
		Where("conversations.tenant_id = ?", tenantID).
		Where("conversations.last_message_at IS NOT NULL").
		Where("ca.id IS NULL OR ca.analyzed_at < conversations.last_message_at").
		Order("conversations.last_message_at desc").
		Limit(normalizeLimit(limit, 20)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Message
	if err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("sent_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
