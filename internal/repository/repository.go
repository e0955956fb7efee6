package repository

import (
	"context"

	"github.com/google/uuid"

	"leadsync/internal/models"
)

// IDPair is one row of a destination identifier mapping: the surrogate key a
// table assigned and the source identifier it was synced under.
type IDPair struct {
	ID         uuid.UUID
	ExternalID string
}

type ListCheckpointsParams struct {
	Limit      int
	Offset     int
	EntityType *string
	Status     *string
}

type ListAnalysesParams struct {
	Limit    int
	Offset   int
	MinScore *float64
}

type Repository interface {
	// Tenants.
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	EnsureTenant(ctx context.Context, slug, name string) (*models.Tenant, error)

	// Batch upserts keyed on (tenant_id, external_id).
	UpsertAgents(ctx context.Context, items []models.Agent) error
	UpsertContacts(ctx context.Context, items []models.Contact) error
	UpsertConversations(ctx context.Context, items []models.Conversation) error
	UpsertMessages(ctx context.Context, items []models.Message) error

	// Identifier listings for foreign-key resolution, paged by id.
	ListAgentIDPairs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]IDPair, error)
	ListContactIDPairs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]IDPair, error)
	ListConversationIDPairs(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]IDPair, error)

	// Checkpoints. SaveCheckpoint always appends; status "" in the lookup
	// matches any status.
	SaveCheckpoint(ctx context.Context, item *models.SyncCheckpoint) error
	LatestCheckpoint(ctx context.Context, tenantID uuid.UUID, entityType, status string) (*models.SyncCheckpoint, error)
	ListCheckpoints(ctx context.Context, tenantID uuid.UUID, params ListCheckpointsParams) ([]models.SyncCheckpoint, error)

	// Conversation analyses.
	UpsertConversationAnalysis(ctx context.Context, item *models.ConversationAnalysis) error
	ListConversationAnalyses(ctx context.Context, tenantID uuid.UUID, params ListAnalysesParams) ([]models.ConversationAnalysis, error)
	ListConversationsPendingAnalysis(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Conversation, error)
	ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
}
